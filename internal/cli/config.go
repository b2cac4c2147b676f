package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"PronosticsPlatform/internal/config"
	"PronosticsPlatform/internal/output"
	apperrors "PronosticsPlatform/pkg/errors"
)

func (a *App) configCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Управление конфигурацией",
		Long:        `Просмотр и изменение файла конфигурации клиента.`,
		Annotations: map[string]string{annotationSetup: setupConfig},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Показать текущую конфигурацию",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.printer.Print(configView{cfg: a.cfg}), cmd)
		},
	}

	initCmd := &cobra.Command{
		Use:         "init",
		Short:       "Создать файл конфигурации по умолчанию",
		Annotations: map[string]string{annotationSetup: setupNone},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleConfigInit(cmd), cmd)
		},
	}
	initCmd.Flags().Bool("force", false, "перезаписать существующий файл")

	setCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Изменить параметр",
		Long: `Изменяет параметр и сохраняет файл конфигурации.
Ключи: api.base_url, api.timeout, store.backend, store.redis.addr,
logger.level, output.format, pronostics.page_size.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleConfigSet(args[0], args[1]), cmd)
		},
	}

	configCmd.AddCommand(showCmd, initCmd, setCmd)
	return configCmd
}

func (a *App) handleConfigInit(cmd *cobra.Command) error {
	path, err := a.configPath()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return apperrors.New(apperrors.ErrConflict, "файл конфигурации уже существует: "+path+" (используйте --force)")
	}

	cfg := config.DefaultConfig()
	cfg.Path = path
	if err := cfg.Save(); err != nil {
		return err
	}
	output.NewPrinter(a.opts.Stdout, output.FormatTable).Line("Конфигурация создана: %s", path)
	return nil
}

func (a *App) handleConfigSet(key, value string) error {
	// Флаги командной строки в файл не попадают
	cfg, err := config.LoadConfig(a.cfg.Path)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return apperrors.New(apperrors.ErrValidation, err.Error())
	}
	if err := cfg.Save(); err != nil {
		return err
	}
	a.printer.Line("%s = %s", key, value)
	return nil
}

// configView конфигурация для вывода; пароль Redis не выводится
type configView struct {
	cfg *config.Config
}

func (v configView) Raw() interface{} { return v.cfg }

func (v configView) Table() *output.TableData {
	c := v.cfg
	td := output.NewTableData("Ключ", "Значение")
	td.Title = "Файл: " + c.Path
	td.AddRow("api.base_url", c.API.BaseURL)
	td.AddRow("api.timeout", c.API.Timeout.String())
	td.AddRow("store.backend", c.Store.Backend)
	switch c.Store.Backend {
	case config.StoreFile:
		td.AddRow("store.path", c.Store.Path)
	case config.StoreRedis:
		td.AddRow("store.redis.addr", c.Store.Redis.Addr)
		td.AddRow("store.redis.db", strconv.Itoa(c.Store.Redis.DB))
		td.AddRow("store.redis.prefix", c.Store.Redis.Prefix)
	}
	td.AddRow("logger.level", c.Logger.Level)
	td.AddRow("logger.environment", c.Logger.Environment)
	td.AddRow("checkout.max_attempts", strconv.Itoa(c.Checkout.MaxAttempts))
	td.AddRow("checkout.delay", c.Checkout.Delay.String())
	td.AddRow("routes.login_path", c.Routes.LoginPath)
	td.AddRow("routes.pricing_path", c.Routes.PricingPath)
	td.AddRow("output.format", c.Output.Format)
	td.AddRow("pronostics.page_size", strconv.Itoa(c.Pronostics.PageSize))
	return td
}
