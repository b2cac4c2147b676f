package session

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/store"
	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/logger"
	"PronosticsPlatform/pkg/metrics"
)

// API вызовы бэкенда, которые нужны сессии
type API interface {
	Login(ctx context.Context, email, password string) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (store.Tokens, error)
	Me(ctx context.Context) (*api.User, error)
	SubscriptionStatus(ctx context.Context) (*api.SubscriptionSummary, error)
	SyncFromStripe(ctx context.Context, sessionID string) (*api.User, error)
}

// Credentials хранилище токенов. Контроллер его единственный писатель.
type Credentials interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshToken(ctx context.Context) (string, error)
	SaveTokens(ctx context.Context, tokens store.Tokens) error
	ClearTokens(ctx context.Context) error
}

const (
	msgLoginFailed    = "Не удалось войти"
	msgRegisterFailed = "Не удалось зарегистрироваться"
	msgLoginOK        = "Вход выполнен"
	msgRegisterOK     = "Учетная запись создана"
	msgLogoutOK       = "Вы вышли из системы"
	msgSessionExpired = "Сессия истекла, войдите снова"
)

// Controller владеет состоянием сессии и пишет токены в хранилище.
// Мьютекс не удерживается во время сетевых вызовов.
type Controller struct {
	api      API
	creds    Credentials
	notifier Notifier
	logger   logger.Logger
	metrics  *metrics.Metrics

	mu          sync.RWMutex
	state       State
	subscribers map[int]func(State)
	nextSubID   int

	bootstrapOnce sync.Once
	refreshGroup  singleflight.Group
}

// Option настраивает контроллер
type Option func(*Controller)

// WithNotifier задает канал уведомлений
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		c.notifier = n
	}
}

// WithLogger задает логгер
func WithLogger(log logger.Logger) Option {
	return func(c *Controller) {
		c.logger = log
	}
}

// WithMetrics включает счетчик переходов сессии
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// NewController создает контроллер в состоянии Bootstrapping
func NewController(client API, creds Credentials, opts ...Option) *Controller {
	c := &Controller{
		api:         client,
		creds:       creds,
		notifier:    nopNotifier{},
		logger:      logger.NewNop(),
		state:       Initial(),
		subscribers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State возвращает копию текущего состояния
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// HasActiveSubscription true iff статус подписки active
func (c *Controller) HasActiveSubscription() bool {
	return c.State().HasActiveSubscription()
}

// IsAdmin true для администратора
func (c *Controller) IsAdmin() bool {
	return c.State().IsAdmin()
}

// Subscribe регистрирует обработчик изменений состояния.
// Возвращает функцию отписки.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subscribers, id)
		c.mu.Unlock()
	}
}

// dispatch применяет событие и оповещает подписчиков вне блокировки
func (c *Controller) dispatch(e Event) State {
	c.mu.Lock()
	c.state = Reduce(c.state, e)
	snapshot := c.state.clone()
	subs := make([]func(State), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	name := EventName(e)
	if c.metrics != nil {
		c.metrics.SessionTransition(name)
	}
	c.logger.Debug("переход сессии",
		logger.String("event", name),
		logger.String("phase", string(snapshot.Phase)),
	)

	for _, fn := range subs {
		fn(snapshot.clone())
	}
	return snapshot
}

// Bootstrap проверяет сохраненный токен и загружает профиль.
// Выполняется один раз; повторные вызовы ничего не делают.
func (c *Controller) Bootstrap(ctx context.Context) {
	c.bootstrapOnce.Do(func() {
		c.bootstrap(ctx)
	})
}

func (c *Controller) bootstrap(ctx context.Context) {
	token, err := c.creds.AccessToken(ctx)
	if err != nil {
		c.logger.Warn("не удалось прочитать сохраненный токен", logger.Error(err))
	}
	if token == "" {
		token = c.bootstrapRefresh(ctx)
	}
	if token == "" {
		c.dispatch(BootstrapFailed{})
		return
	}

	user, err := c.api.Me(ctx)
	if err != nil {
		c.logger.Warn("профиль по сохраненному токену не загружен", logger.Error(err))
		c.clearLocal(ctx)
		c.dispatch(BootstrapFailed{})
		return
	}
	c.dispatch(BootstrapSucceeded{User: user})
}

// bootstrapRefresh восстанавливает access токен по оставшемуся refresh
// токену. При неудаче оставшийся токен удаляется.
func (c *Controller) bootstrapRefresh(ctx context.Context) string {
	refresh, err := c.creds.RefreshToken(ctx)
	if err != nil || refresh == "" {
		return ""
	}

	token, err := c.RefreshAccessToken(ctx)
	if err != nil {
		c.logger.Warn("не удалось обновить токен при запуске", logger.Error(err))
		c.clearLocal(ctx)
		return ""
	}
	return token
}

// SignIn выполняет вход. При ошибке токены не трогаются,
// ошибка сохраняется в состоянии и возвращается вызывающему.
func (c *Controller) SignIn(ctx context.Context, email, password string) (*api.User, error) {
	c.dispatch(LoginStarted{})

	resp, err := c.api.Login(ctx, email, password)
	if err == nil {
		err = c.saveTokens(ctx, resp.Tokens)
	}
	if err != nil {
		msg := failureMessage(err, msgLoginFailed)
		c.dispatch(LoginFailed{Message: msg})
		c.notifier.Error(msg)
		return nil, err
	}

	state := c.dispatch(LoginSucceeded{User: resp.User})
	c.notifier.Success(msgLoginOK)
	return state.User, nil
}

// SignUp регистрирует пользователя, контракт как у SignIn
func (c *Controller) SignUp(ctx context.Context, req api.RegisterRequest) (*api.User, error) {
	c.dispatch(RegisterStarted{})

	resp, err := c.api.Register(ctx, req)
	if err == nil {
		err = c.saveTokens(ctx, resp.Tokens)
	}
	if err != nil {
		msg := failureMessage(err, msgRegisterFailed)
		c.dispatch(RegisterFailed{Message: msg})
		c.notifier.Error(msg)
		return nil, err
	}

	state := c.dispatch(RegisterSucceeded{User: resp.User})
	c.notifier.Success(msgRegisterOK)
	return state.User, nil
}

func (c *Controller) saveTokens(ctx context.Context, tokens store.Tokens) error {
	if err := c.creds.SaveTokens(ctx, tokens); err != nil {
		c.logger.Error("ошибка сохранения токенов", logger.Error(err))
		return apperrors.Wrap(err, apperrors.ErrInternal, "не удалось сохранить сессию")
	}
	return nil
}

// SignOut завершает сессию. Отзыв refresh токена на сервере
// выполняется по возможности, локальная очистка выполняется всегда.
func (c *Controller) SignOut(ctx context.Context) {
	c.signOut(ctx, false)
}

// OnUnauthorized принудительный выход после отказа сервера в авторизации
func (c *Controller) OnUnauthorized(ctx context.Context) {
	c.signOut(ctx, true)
}

func (c *Controller) signOut(ctx context.Context, forced bool) {
	wasSignedIn := c.State().IsAuthenticated

	refresh, err := c.creds.RefreshToken(ctx)
	if err != nil {
		c.logger.Warn("не удалось прочитать refresh токен", logger.Error(err))
	}
	if refresh != "" {
		wasSignedIn = true
		if err := c.api.Logout(ctx, refresh); err != nil {
			c.logger.Warn("отзыв токена на сервере не удался", logger.Error(err))
		}
	}

	c.clearLocal(ctx)
	c.dispatch(LoggedOut{})

	switch {
	case !wasSignedIn:
	case forced:
		c.notifier.Error(msgSessionExpired)
	default:
		c.notifier.Success(msgLogoutOK)
	}
}

func (c *Controller) clearLocal(ctx context.Context) {
	if err := c.creds.ClearTokens(ctx); err != nil {
		c.logger.Error("ошибка удаления токенов", logger.Error(err))
	}
}

// UpdateUser локально применяет изменения профиля без запроса к серверу
func (c *Controller) UpdateUser(patch UserPatch) {
	c.dispatch(UserUpdated{Patch: patch})
}

// RefreshUserFromServer перечитывает профиль целиком.
// При 401 сессия завершается, ошибка возвращается вызывающему.
func (c *Controller) RefreshUserFromServer(ctx context.Context) (*api.User, error) {
	user, err := c.api.Me(ctx)
	if err != nil {
		return nil, c.handleFailure(ctx, err, true)
	}
	return c.dispatch(UserReplaced{User: user}).User, nil
}

// RefreshSubscriptionStatus обновляет только статус подписки
func (c *Controller) RefreshSubscriptionStatus(ctx context.Context) (api.SubscriptionStatus, error) {
	summary, err := c.api.SubscriptionStatus(ctx)
	if err != nil {
		return "", c.handleFailure(ctx, err, true)
	}
	c.dispatch(SubscriptionStatusChanged{Status: summary.Status})
	return summary.Status, nil
}

// SyncSubscriptionAfterPayment просит сервер сверить подписку с платежной
// сессией и заменяет профиль ответом. Уведомления оставлены вызывающему.
func (c *Controller) SyncSubscriptionAfterPayment(ctx context.Context, paymentSessionID string) (*api.User, error) {
	user, err := c.api.SyncFromStripe(ctx, paymentSessionID)
	if err != nil {
		return nil, c.handleFailure(ctx, err, false)
	}
	return c.dispatch(UserReplaced{User: user}).User, nil
}

// handleFailure разбирает ошибку сетевой операции: 401 завершает сессию,
// остальное показывается пользователю, состояние не меняется.
func (c *Controller) handleFailure(ctx context.Context, err error, notify bool) error {
	if apperrors.IsUnauthorized(err) {
		c.OnUnauthorized(ctx)
		return err
	}
	if notify {
		c.notifier.Error(failureMessage(err, ""))
	}
	return err
}

// RefreshAccessToken обменивает refresh токен на новую пару.
// Параллельные вызовы объединяются в один запрос.
func (c *Controller) RefreshAccessToken(ctx context.Context) (string, error) {
	// Общий запрос не отменяется вместе с контекстом первого вызвавшего;
	// его ограничивает таймаут HTTP клиента.
	shared := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan("refresh", func() (interface{}, error) {
		return c.refresh(shared)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (c *Controller) refresh(ctx context.Context) (string, error) {
	refresh, err := c.creds.RefreshToken(ctx)
	if err != nil {
		return "", err
	}
	if refresh == "" {
		return "", apperrors.New(apperrors.ErrUnauthorized, "refresh токен отсутствует")
	}

	tokens, err := c.api.Refresh(ctx, refresh)
	if err != nil {
		return "", err
	}
	if err := c.creds.SaveTokens(ctx, tokens); err != nil {
		return "", err
	}
	c.logger.Debug("access токен обновлен")
	return tokens.AccessToken, nil
}

// failureMessage текст ошибки для пользователя: сообщение сервера для
// ошибок запроса, общий текст для сетевых и серверных сбоев
func failureMessage(err error, fallback string) string {
	if appErr, ok := apperrors.As(err); ok && !apperrors.IsTransient(err) && appErr.Message != "" {
		return appErr.Message
	}
	if fallback != "" && !apperrors.IsTransient(err) {
		return fallback
	}
	return apperrors.UserMessage(err)
}
