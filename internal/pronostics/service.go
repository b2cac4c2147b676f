package pronostics

import (
	"context"
	"strings"
	"time"

	"PronosticsPlatform/internal/api"
	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/logger"
	"PronosticsPlatform/pkg/validation"
)

// Gateway вызовы API прогнозов
type Gateway interface {
	ListPronostics(ctx context.Context, query api.PronosticQuery) ([]api.Pronostic, error)
	GetPronostic(ctx context.Context, id string) (*api.Pronostic, error)
}

// Access проверка подписки текущего пользователя
type Access interface {
	HasActiveSubscription() bool
}

// Detail прогноз с признаком скрытого анализа
type Detail struct {
	Pronostic api.Pronostic
	Locked    bool
}

// Service список и карточка прогнозов
type Service struct {
	gateway   Gateway
	access    Access
	validator *validation.Validator
	logger    logger.Logger
	now       func() time.Time
	location  *time.Location
}

// Option настраивает сервис
type Option func(*Service)

// WithClock задает источник текущего времени
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLocation задает часовой пояс группировки по дням
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		s.location = loc
	}
}

// WithLogger задает логгер
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		s.logger = log
	}
}

// NewService создает сервис прогнозов
func NewService(gateway Gateway, access Access, opts ...Option) *Service {
	s := &Service{
		gateway:   gateway,
		access:    access,
		validator: validation.NewValidator(),
		logger:    logger.NewNop(),
		now:       time.Now,
		location:  time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var statuses = []string{
	string(api.PronosticPending), string(api.PronosticWon),
	string(api.PronosticLost), string(api.PronosticVoid),
}

// Validate проверяет фильтр
func (s *Service) Validate(f Filter) error {
	if f.Period != "" {
		if err := s.validator.ValidateEnum(string(f.Period), Periods, "period"); err != nil {
			return apperrors.New(apperrors.ErrValidation, err.Error()).WithField("period", err.Error())
		}
	}
	if f.Status != "" {
		if err := s.validator.ValidateEnum(string(f.Status), statuses, "status"); err != nil {
			return apperrors.New(apperrors.ErrValidation, err.Error()).WithField("status", err.Error())
		}
	}
	if f.Page < 0 || f.PageSize < 0 {
		return apperrors.New(apperrors.ErrValidation, "номер и размер страницы не могут быть отрицательными")
	}
	return nil
}

// List загружает прогнозы и строит страницу представления.
// Спорт и статус фильтруются на сервере и повторно на клиенте.
func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	if err := s.Validate(f); err != nil {
		return nil, err
	}

	list, err := s.gateway.ListPronostics(ctx, api.PronosticQuery{Sport: f.Sport, Status: f.Status})
	if err != nil {
		return nil, err
	}

	active := s.access.HasActiveSubscription()
	for i := range list {
		list[i] = gate(list[i], active)
	}

	page := Apply(list, f, s.now(), s.location)
	s.logger.Debug("список прогнозов",
		logger.Int("received", len(list)),
		logger.Int("shown", page.TotalItems),
		logger.String("period", string(f.Period)),
	)
	return &page, nil
}

// Detail загружает прогноз; премиум анализ скрыт без активной подписки
func (s *Service) Detail(ctx context.Context, id string) (*Detail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "не указан идентификатор прогноза").WithField("id", "обязательное поле")
	}

	p, err := s.gateway.GetPronostic(ctx, id)
	if err != nil {
		return nil, err
	}

	active := s.access.HasActiveSubscription()
	return &Detail{
		Pronostic: gate(*p, active),
		Locked:    p.IsPremium && !active,
	}, nil
}

func gate(p api.Pronostic, active bool) api.Pronostic {
	if p.IsPremium && !active {
		p.Analysis = ""
	}
	return p
}
