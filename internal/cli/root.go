package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"PronosticsPlatform/internal/guard"
	"PronosticsPlatform/internal/output"
	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/logger"
)

// Command собирает дерево команд клиента
func (a *App) Command() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   serviceName,
		Short: "Pronostics CLI - спортивные прогнозы и подписка",
		Long: `Pronostics CLI - клиент платформы спортивных прогнозов.

Поддерживает вход и регистрацию, просмотр прогнозов, оформление
подписки, управление профилем и панель администратора.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.setup(cmd), cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "файл конфигурации (по умолчанию ~/.prono/config.yaml)")
	flags.StringP("output", "o", "", "формат вывода ("+strings.Join(output.Formats, ", ")+")")
	flags.String("api-url", "", "адрес API")
	flags.BoolP("verbose", "v", false, "подробный вывод")
	flags.Bool("debug", false, "режим отладки")

	for _, name := range []string{"config", "output", "api-url", "verbose", "debug"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		a.authCmd(),
		a.pronosticsCmd(),
		a.plansCmd(),
		a.checkoutCmd(),
		a.profileCmd(),
		a.adminCmd(),
		a.configCmd(),
		a.doctorCmd(),
		a.versionCmd(),
	)
	return rootCmd
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Показать версию",
		Annotations: map[string]string{annotationSetup: setupNone},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Pronostics CLI v%s\n", Version)
		},
	}
}

// navigate проверяет доступ к разделу перед выполнением команды
func (a *App) navigate(location string) error {
	decision, _ := a.router.Navigate(location)
	a.log.Debug("проверка доступа",
		logger.String("location", location),
		logger.String("decision", decision.Kind.String()))

	switch decision.Kind {
	case guard.Allow:
		return nil
	case guard.Redirect:
		if decision.To == a.cfg.Routes.PricingPath {
			return &guardError{
				decision: decision,
				code:     apperrors.ErrForbidden,
				message:  "нужна активная подписка, тарифы: pronoctl plans",
			}
		}
		return &guardError{
			decision: decision,
			code:     apperrors.ErrUnauthorized,
			message:  "требуется вход, выполните pronoctl auth login",
		}
	case guard.Forbidden:
		return &guardError{
			decision: decision,
			code:     apperrors.ErrForbidden,
			message:  decision.Reason + ", доступный раздел: " + decision.Escape,
		}
	case guard.NotFound:
		return &guardError{decision: decision, code: apperrors.ErrNotFound, message: decision.Reason}
	default:
		return &guardError{decision: decision, code: apperrors.ErrUnavailable, message: "сессия еще загружается"}
	}
}

// guardError отказ в переходе
type guardError struct {
	decision guard.Decision
	code     apperrors.ErrorCode
	message  string
}

func (e *guardError) Error() string {
	if url := e.decision.URL(); url != "" {
		return e.message + " (" + url + ")"
	}
	return e.message
}

func (e *guardError) Unwrap() error {
	return apperrors.New(e.code, e.message)
}

// commandError ошибка команды с сообщением для пользователя
type commandError struct {
	command string
	message string
	err     error
}

func (e *commandError) Error() string {
	return e.command + ": " + e.message
}

func (e *commandError) Unwrap() error {
	return e.err
}

// handleError приводит ошибки команд к единому виду
func (a *App) handleError(err error, cmd *cobra.Command) error {
	if err == nil {
		return nil
	}

	var ge *guardError
	if errors.As(err, &ge) {
		return &commandError{command: cmd.Name(), message: ge.Error(), err: err}
	}

	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Wrap(err, apperrors.ErrInternal, err.Error())
		a.log.Error("Command failed", logger.String("command", cmd.Name()), logger.Error(err))
		return &commandError{command: cmd.Name(), message: err.Error(), err: appErr}
	}

	a.log.Error("Command failed",
		logger.String("command", cmd.Name()),
		logger.String("code", string(appErr.Code)),
		logger.Error(appErr))

	message := appErr.GetUserMessage()
	if len(appErr.Fields) > 0 {
		keys := make([]string, 0, len(appErr.Fields))
		for k := range appErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			message += "\n  " + k + ": " + appErr.Fields[k]
		}
	}
	return &commandError{command: cmd.Name(), message: message, err: err}
}

// ExitCode код завершения процесса для ошибки
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch apperrors.CodeOf(err) {
	case apperrors.ErrValidation:
		return 2
	case apperrors.ErrUnauthorized:
		return 3
	case apperrors.ErrForbidden:
		return 4
	case apperrors.ErrNotFound:
		return 5
	case apperrors.ErrUnavailable:
		return 6
	default:
		return 1
	}
}
