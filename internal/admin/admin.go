package admin

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"PronosticsPlatform/internal/api"
	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/logger"
	"PronosticsPlatform/pkg/validation"
)

// RecentUsersLimit сколько пользователей показывает панель
const RecentUsersLimit = 5

// Gateway вызовы API администратора
type Gateway interface {
	AdminStats(ctx context.Context) (*api.AdminStats, error)
	AdminUsers(ctx context.Context, page, limit int) (*api.UserPage, error)
	CreatePronostic(ctx context.Context, input api.PronosticInput) (*api.Pronostic, error)
	DeletePronostic(ctx context.Context, id string) error
}

// Access проверка роли
type Access interface {
	IsAdmin() bool
}

// Dashboard сводка панели администратора
type Dashboard struct {
	Stats       api.AdminStats
	RecentUsers []api.User
}

// Service операции панели администратора.
// Каждый вызов сначала проверяет роль локально.
type Service struct {
	gateway   Gateway
	access    Access
	validator *validation.Validator
	logger    logger.Logger
}

// NewService создает сервис администратора
func NewService(gateway Gateway, access Access, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		gateway:   gateway,
		access:    access,
		validator: validation.NewValidator(),
		logger:    log,
	}
}

func (s *Service) authorize() error {
	if !s.access.IsAdmin() {
		return apperrors.New(apperrors.ErrForbidden, "доступ только для администраторов")
	}
	return nil
}

// Dashboard загружает статистику и последних пользователей параллельно
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}

	var (
		stats *api.AdminStats
		users *api.UserPage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.gateway.AdminStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.gateway.AdminUsers(gctx, 1, RecentUsersLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Dashboard{Stats: *stats, RecentUsers: users.Users}, nil
}

// Users возвращает страницу пользователей
func (s *Service) Users(ctx context.Context, page, limit int) (*api.UserPage, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.gateway.AdminUsers(ctx, page, limit)
}

// CreatePronostic проверяет и публикует прогноз
func (s *Service) CreatePronostic(ctx context.Context, input api.PronosticInput) (*api.Pronostic, error) {
	if err := s.authorize(); err != nil {
		return nil, err
	}
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	p, err := s.gateway.CreatePronostic(ctx, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("прогноз создан", logger.String("id", p.ID), logger.String("sport", p.Sport))
	return p, nil
}

// DeletePronostic удаляет прогноз
func (s *Service) DeletePronostic(ctx context.Context, id string) error {
	if err := s.authorize(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.New(apperrors.ErrValidation, "не указан идентификатор прогноза").WithField("id", "обязательное поле")
	}

	if err := s.gateway.DeletePronostic(ctx, id); err != nil {
		return err
	}
	s.logger.Info("прогноз удален", logger.String("id", id))
	return nil
}

func (s *Service) validateInput(input api.PronosticInput) error {
	fields := map[string]string{
		"sport":      input.Sport,
		"homeTeam":   input.HomeTeam,
		"awayTeam":   input.AwayTeam,
		"prediction": input.Prediction,
	}
	if err := s.validator.ValidateRequiredFields(fields, map[string]string{
		"sport":      "sport",
		"homeTeam":   "home team",
		"awayTeam":   "away team",
		"prediction": "prediction",
	}); err != nil {
		return apperrors.New(apperrors.ErrValidation, err.Error())
	}

	appErr := apperrors.New(apperrors.ErrValidation, "некорректный прогноз")
	invalid := false
	if input.Odds < 1 {
		appErr = appErr.WithField("odds", "коэффициент должен быть не меньше 1")
		invalid = true
	}
	if input.Confidence < 0 || input.Confidence > 100 {
		appErr = appErr.WithField("confidence", "уверенность от 0 до 100")
		invalid = true
	}
	if input.MatchDate.IsZero() {
		appErr = appErr.WithField("matchDate", "обязательное поле")
		invalid = true
	}
	if invalid {
		return appErr
	}
	return nil
}

// ParseMatchDate разбирает дату матча в RFC3339 или "2006-01-02 15:04"
func ParseMatchDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		return time.Time{}, apperrors.New(apperrors.ErrValidation, "некорректная дата матча").WithField("matchDate", value)
	}
	return t, nil
}
