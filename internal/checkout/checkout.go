package checkout

import (
	"context"
	"strings"

	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/retry"
	"PronosticsPlatform/internal/session"
	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/logger"
)

// Gateway вызовы API подписок
type Gateway interface {
	Plans(ctx context.Context) ([]api.Plan, error)
	CreateCheckoutSession(ctx context.Context, planID string) (*api.CheckoutStart, error)
	CheckoutSession(ctx context.Context, sessionID string) (*api.CheckoutSession, error)
	CancelSubscription(ctx context.Context) error
}

// Session операции сессии, которые меняют подписку
type Session interface {
	SyncSubscriptionAfterPayment(ctx context.Context, paymentSessionID string) (*api.User, error)
	RefreshSubscriptionStatus(ctx context.Context) (api.SubscriptionStatus, error)
}

// Status итог подтверждения оплаты
type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
)

const (
	msgActivated = "Подписка активирована"
	msgPending   = "Оплата получена, активация подписки займет несколько минут"
	msgCancelled = "Продление подписки отменено"
)

// Confirmation результат подтверждения оплаты
type Confirmation struct {
	Status   Status
	User     *api.User
	Attempts int
	Message  string
}

// Service сценарии оформления подписки
type Service struct {
	gateway  Gateway
	session  Session
	poller   *retry.Manager
	notifier session.Notifier
	logger   logger.Logger
}

// NewService создает сервис оформления подписки
func NewService(gateway Gateway, sess Session, poller *retry.Manager, notifier session.Notifier, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if notifier == nil {
		notifier = session.NewLogNotifier(log)
	}
	return &Service{
		gateway:  gateway,
		session:  sess,
		poller:   poller,
		notifier: notifier,
		logger:   log,
	}
}

// Plans возвращает тарифы
func (s *Service) Plans(ctx context.Context) ([]api.Plan, error) {
	return s.gateway.Plans(ctx)
}

// Start создает сессию оплаты и возвращает адрес страницы оплаты
func (s *Service) Start(ctx context.Context, planID string) (*api.CheckoutStart, error) {
	planID = strings.TrimSpace(planID)
	if planID == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "не указан тариф").WithField("plan", "обязательное поле")
	}

	start, err := s.gateway.CreateCheckoutSession(ctx, planID)
	if err != nil {
		s.notifier.Error(apperrors.UserMessage(err))
		return nil, err
	}
	s.logger.Info("сессия оплаты создана", logger.String("plan", planID), logger.String("session_id", start.SessionID))
	return start, nil
}

// Confirm дожидается подтверждения оплаты и синхронизирует подписку.
// Если провайдер так и не сообщил об оплате, выполняется одна
// безусловная синхронизация; неуспех дает Pending, а не ошибку.
func (s *Service) Confirm(ctx context.Context, paymentSessionID string) (*Confirmation, error) {
	paymentSessionID = strings.TrimSpace(paymentSessionID)
	if paymentSessionID == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "не указан идентификатор сессии оплаты").WithField("session_id", "обязательное поле")
	}

	log := s.logger.With(logger.String("session_id", paymentSessionID))
	var conf *Confirmation

	poll := func(ctx context.Context, attempt int) (retry.Step, error) {
		cs, err := s.gateway.CheckoutSession(ctx, paymentSessionID)
		switch {
		case err == nil:
			if cs.IsPaid() {
				return retry.Succeeded, nil
			}
			log.Debug("оплата еще не подтверждена",
				logger.Int("attempt", attempt),
				logger.String("payment_status", cs.PaymentStatus),
				logger.String("status", cs.Status),
			)
			return retry.Continue, nil
		case apperrors.IsNotFound(err), apperrors.IsValidation(err):
			log.Warn("сессия оплаты не найдена, принудительная синхронизация", logger.Error(err))
			return retry.Fallback, nil
		case apperrors.IsTransient(err):
			log.Warn("ошибка проверки оплаты", logger.Error(err), logger.Int("attempt", attempt))
			return retry.Continue, nil
		default:
			return retry.Continue, err
		}
	}

	fallback := func(ctx context.Context) error {
		c, err := s.reconcile(ctx, paymentSessionID, false)
		conf = c
		return err
	}

	result, err := s.poller.Poll(ctx, poll, fallback)
	if err != nil {
		return nil, err
	}

	if result.Succeeded {
		conf, err = s.reconcile(ctx, paymentSessionID, true)
		if err != nil {
			return nil, err
		}
	}
	conf.Attempts = result.Attempts

	log.Info("подтверждение оплаты завершено",
		logger.String("status", string(conf.Status)),
		logger.Int("attempts", conf.Attempts),
	)
	if conf.Status == StatusSuccess {
		s.notifier.Success(conf.Message)
	} else {
		s.notifier.Info(conf.Message)
	}
	return conf, nil
}

// reconcile вызывает синхронизацию подписки ровно один раз.
// Ошибка возвращается только для 401, остальное дает Pending.
func (s *Service) reconcile(ctx context.Context, paymentSessionID string, paid bool) (*Confirmation, error) {
	user, err := s.session.SyncSubscriptionAfterPayment(ctx, paymentSessionID)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			return nil, err
		}
		s.logger.Warn("синхронизация подписки не удалась", logger.Error(err))
		return &Confirmation{Status: StatusPending, Message: msgPending}, nil
	}

	if paid || user.SubscriptionStatus == api.SubscriptionActive {
		return &Confirmation{Status: StatusSuccess, User: user, Message: msgActivated}, nil
	}
	return &Confirmation{Status: StatusPending, User: user, Message: msgPending}, nil
}

// Cancel отменяет продление и обновляет статус подписки в сессии
func (s *Service) Cancel(ctx context.Context) (api.SubscriptionStatus, error) {
	if err := s.gateway.CancelSubscription(ctx); err != nil {
		s.notifier.Error(apperrors.UserMessage(err))
		return "", err
	}

	status, err := s.session.RefreshSubscriptionStatus(ctx)
	if err != nil {
		return "", err
	}
	s.notifier.Success(msgCancelled)
	return status, nil
}
