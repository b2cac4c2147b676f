package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"PronosticsPlatform/internal/admin"
	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/checkout"
	"PronosticsPlatform/internal/config"
	"PronosticsPlatform/internal/guard"
	"PronosticsPlatform/internal/output"
	"PronosticsPlatform/internal/profile"
	"PronosticsPlatform/internal/pronostics"
	"PronosticsPlatform/internal/retry"
	"PronosticsPlatform/internal/session"
	"PronosticsPlatform/internal/store"
	"PronosticsPlatform/pkg/logger"
	"PronosticsPlatform/pkg/metrics"
	pkgredis "PronosticsPlatform/pkg/redis"
)

// Version версия клиента
const Version = "1.0.0"

const serviceName = "pronoctl"

// Уровень подготовки окружения для команды
const (
	annotationSetup = "setup"
	setupNone       = "none"
	setupConfig     = "config"
	setupClient     = "client"
)

// Options зависимости ввода-вывода и подмены для тестов
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Store подменяет хранилище токенов из конфигурации
	Store store.KeyValue
	// Clock задает часы ожидания подтверждения оплаты
	Clock retry.Clock
	// Now источник текущего времени
	Now func() time.Time
}

// App собранный клиент: конфигурация, сессия и сервисы
type App struct {
	opts  Options
	v     *viper.Viper
	input *bufio.Reader

	cfg      *config.Config
	log      logger.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	printer  *output.Printer
	notifier session.Notifier

	redis   *pkgredis.Client
	creds   *store.CredentialStore
	client  *api.Client
	session *session.Controller
	router  *guard.Router

	pronostics *pronostics.Service
	checkout   *checkout.Service
	profile    *profile.Service
	admin      *admin.Service

	closers []func() error
}

// New создает приложение; окружение собирается перед запуском команды
func New(opts Options) *App {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Clock == nil {
		opts.Clock = retry.RealClock()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &App{
		opts:  opts,
		v:     viper.New(),
		input: bufio.NewReader(opts.Stdin),
		log:   logger.NewNop(),
	}
}

// Execute запускает команду с аргументами args
func (a *App) Execute(ctx context.Context, args []string) error {
	root := a.Command()
	root.SetArgs(args)
	root.SetIn(a.opts.Stdin)
	root.SetOut(a.opts.Stdout)
	root.SetErr(a.opts.Stderr)
	defer a.close()
	return root.ExecuteContext(ctx)
}

func setupLevel(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if level, ok := c.Annotations[annotationSetup]; ok {
			return level
		}
	}
	return ""
}

// setup загружает конфигурацию и, если команде нужен API,
// собирает клиент и восстанавливает сессию
func (a *App) setup(cmd *cobra.Command) error {
	level := setupLevel(cmd)
	if level == setupNone {
		return nil
	}

	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.setupLogging(); err != nil {
		return err
	}
	a.printer = output.NewPrinter(a.opts.Stdout, output.FormatType(a.cfg.Output.Format))
	if level == setupConfig {
		return nil
	}

	if err := a.setupSession(cmd.Context()); err != nil {
		return err
	}
	if level != setupClient {
		a.session.Bootstrap(cmd.Context())
		a.log.Debug("сессия восстановлена", logger.String("phase", string(a.session.State().Phase)))
	}
	return nil
}

func (a *App) configPath() (string, error) {
	if path := a.v.GetString("config"); path != "" {
		return path, nil
	}
	return config.GetConfigPath()
}

func (a *App) loadConfig() error {
	path, err := a.configPath()
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}

	// Флаги имеют приоритет над файлом и окружением
	a.v.SetDefault("output", cfg.Output.Format)
	a.v.SetDefault("api-url", cfg.API.BaseURL)
	cfg.Output.Format = a.v.GetString("output")
	cfg.API.BaseURL = a.v.GetString("api-url")
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("некорректные параметры: %w", err)
	}

	a.cfg = cfg
	return nil
}

func (a *App) setupLogging() error {
	level := a.cfg.Logger.Level
	switch {
	case a.v.GetBool("debug"):
		level = "debug"
	case a.v.GetBool("verbose"):
		level = "info"
	}

	log, err := logger.NewLoggerWithWriter(a.cfg.Logger.Environment, level, serviceName, a.opts.Stderr)
	if err != nil {
		return fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	a.log = log
	a.closers = append(a.closers, func() error {
		_ = log.Sync()
		return nil
	})

	if a.v.GetBool("debug") {
		shutdown := metrics.InitializeOpenTelemetry(serviceName, Version)
		a.closers = append(a.closers, func() error {
			return shutdown(context.Background())
		})
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (store.KeyValue, error) {
	if a.opts.Store != nil {
		return a.opts.Store, nil
	}

	switch a.cfg.Store.Backend {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	case config.StoreRedis:
		rc := pkgredis.NewConfig()
		rc.Addr = a.cfg.Store.Redis.Addr
		rc.Password = a.cfg.Store.Redis.Password
		rc.DB = a.cfg.Store.Redis.DB
		client, err := pkgredis.Connect(ctx, rc)
		if err != nil {
			return nil, fmt.Errorf("хранилище токенов недоступно: %w", err)
		}
		a.redis = client
		a.closers = append(a.closers, client.Close)
		return store.NewRedisStore(client.Client, a.cfg.Store.Redis.Prefix), nil
	default:
		return store.NewFileStore(a.cfg.Store.Path)
	}
}

func (a *App) setupSession(ctx context.Context) error {
	kv, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.creds = store.NewCredentialStore(kv)

	a.registry = prometheus.NewRegistry()
	a.metrics = metrics.NewMetrics(serviceName, metrics.WithRegistry(a.registry))

	client, err := api.NewClient(a.cfg.API.BaseURL, a.creds,
		api.WithTimeout(a.cfg.API.Timeout),
		api.WithLogger(a.log),
		api.WithMetrics(a.metrics),
		api.WithUserAgent(serviceName+"/"+Version),
	)
	if err != nil {
		return err
	}
	a.client = client

	a.notifier = newNotifier(a.opts.Stderr)
	a.session = session.NewController(client, a.creds,
		session.WithNotifier(a.notifier),
		session.WithLogger(a.log),
		session.WithMetrics(a.metrics),
	)
	client.SetSessionHooks(a.session)
	a.router = guard.NewRouter(a.session, guard.DefaultRoutes(a.cfg.Routes.LoginPath, a.cfg.Routes.PricingPath))

	poller := retry.NewManager(retry.Config{
		MaxAttempts: a.cfg.Checkout.MaxAttempts,
		Delay:       a.cfg.Checkout.Delay,
	}, a.opts.Clock, a.log)

	a.pronostics = pronostics.NewService(client, a.session,
		pronostics.WithClock(a.opts.Now),
		pronostics.WithLogger(a.log),
	)
	a.checkout = checkout.NewService(client, a.session, poller, a.notifier, a.log)
	a.profile = profile.NewService(client, a.session, a.notifier, a.log)
	a.admin = admin.NewService(client, a.session, a.log)
	return nil
}

func (a *App) close() {
	if a.metrics != nil && a.v.GetBool("debug") {
		a.logRequestMetrics()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn("ошибка освобождения ресурса", logger.Error(err))
		}
	}
	a.closers = nil
}

// logRequestMetrics выводит счетчики запросов в журнал отладки
func (a *App) logRequestMetrics() {
	counts, err := a.metrics.RequestCounts()
	if err != nil {
		a.log.Warn("ошибка чтения метрик", logger.Error(err))
		return
	}
	for _, c := range counts {
		a.log.Debug("запросы к API",
			logger.Float64("count", c.Count),
			logger.String("method", c.Labels["method"]),
			logger.String("endpoint", c.Labels["endpoint"]),
			logger.String("status", c.Labels["status"]))
	}
}

// prompt запрашивает значение, если оно не передано флагом
func (a *App) prompt(value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprintf(a.opts.Stderr, "%s: ", label)
	line, err := a.input.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("ошибка чтения ввода: %w", err)
	}
	return strings.TrimSpace(line), nil
}
