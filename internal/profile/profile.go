package profile

import (
	"context"
	"strings"

	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/session"
	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/logger"
	"PronosticsPlatform/pkg/validation"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128
	minUsernameLength = 3
	maxUsernameLength = 30
)

// Gateway вызовы API профиля
type Gateway interface {
	UpdateProfile(ctx context.Context, update api.ProfileUpdate) (*api.User, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
}

// Session операции сессии, нужные профилю
type Session interface {
	State() session.State
	UpdateUser(patch session.UserPatch)
	RefreshUserFromServer(ctx context.Context) (*api.User, error)
}

// Service просмотр и изменение профиля
type Service struct {
	gateway   Gateway
	session   Session
	notifier  session.Notifier
	validator *validation.Validator
	logger    logger.Logger
}

// NewService создает сервис профиля
func NewService(gateway Gateway, sess Session, notifier session.Notifier, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if notifier == nil {
		notifier = session.NewLogNotifier(log)
	}
	return &Service{
		gateway:   gateway,
		session:   sess,
		notifier:  notifier,
		validator: validation.NewValidator(),
		logger:    log,
	}
}

// Show возвращает профиль; с fresh перечитывает его у сервера
func (s *Service) Show(ctx context.Context, fresh bool) (*api.User, error) {
	if fresh {
		return s.session.RefreshUserFromServer(ctx)
	}
	user := s.session.State().User
	if user == nil {
		return nil, apperrors.New(apperrors.ErrUnauthorized, "вход не выполнен")
	}
	return user, nil
}

// Update сохраняет изменения на сервере и локально сливает их в профиль
// без повторной загрузки
func (s *Service) Update(ctx context.Context, update api.ProfileUpdate) (*api.User, error) {
	if err := s.validateUpdate(update); err != nil {
		return nil, err
	}

	if _, err := s.gateway.UpdateProfile(ctx, update); err != nil {
		s.notifier.Error(apperrors.UserMessage(err))
		return nil, err
	}

	s.session.UpdateUser(session.PatchFromUpdate(update))
	s.notifier.Success("Профиль обновлен")
	return s.session.State().User, nil
}

// ChangePassword меняет пароль
func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword, confirmation string) error {
	appErr := apperrors.New(apperrors.ErrValidation, "некорректный пароль")
	invalid := false

	if currentPassword == "" {
		appErr = appErr.WithField("currentPassword", "обязательное поле")
		invalid = true
	}
	if err := s.validator.ValidateStringLength(newPassword, "newPassword", minPasswordLength, maxPasswordLength); err != nil {
		appErr = appErr.WithField("newPassword", err.Error())
		invalid = true
	}
	if newPassword != confirmation {
		appErr = appErr.WithField("confirmPassword", "пароли не совпадают")
		invalid = true
	}
	if invalid {
		return appErr
	}

	if err := s.gateway.ChangePassword(ctx, currentPassword, newPassword); err != nil {
		s.notifier.Error(apperrors.UserMessage(err))
		return err
	}
	s.notifier.Success("Пароль изменен")
	return nil
}

func (s *Service) validateUpdate(update api.ProfileUpdate) error {
	if update.Username == nil && update.Email == nil && update.FirstName == nil && update.LastName == nil {
		return apperrors.New(apperrors.ErrValidation, "нет изменений")
	}

	appErr := apperrors.New(apperrors.ErrValidation, "некорректные данные профиля")
	invalid := false

	if update.Username != nil {
		*update.Username = strings.TrimSpace(*update.Username)
		if err := s.validator.ValidateStringLength(*update.Username, "username", minUsernameLength, maxUsernameLength); err != nil {
			appErr = appErr.WithField("username", err.Error())
			invalid = true
		}
	}
	if update.Email != nil {
		*update.Email = strings.TrimSpace(*update.Email)
		if err := s.validator.ValidateEmail(*update.Email); err != nil {
			appErr = appErr.WithField("email", err.Error())
			invalid = true
		}
	}

	if invalid {
		return appErr
	}
	return nil
}
