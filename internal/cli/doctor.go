package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"PronosticsPlatform/internal/output"
	"PronosticsPlatform/internal/store"
	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/health"
)

const probeTimeout = 5 * time.Second

func (a *App) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "doctor",
		Short:       "Проверить доступность API и хранилища токенов",
		Long:        `Проверяет зависимости клиента. Сохраненная сессия не изменяется.`,
		Annotations: map[string]string{annotationSetup: setupClient},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleDoctor(cmd), cmd)
		},
	}
}

func (a *App) handleDoctor(cmd *cobra.Command) error {
	checker := health.NewChecker(Version, probeTimeout)
	checker.Register("api", a.client.Ping)
	checker.Register("store", func(ctx context.Context) error {
		_, err := a.creds.Tokens(ctx)
		return err
	})
	if a.redis != nil {
		checker.Register("redis", a.redis.HealthCheck)
	}
	checker.Register("token", func(ctx context.Context) error {
		token, err := a.creds.AccessToken(ctx)
		if err != nil || token == "" {
			return nil
		}
		if exp, ok := store.TokenExpiry(token); ok && !exp.After(a.opts.Now()) {
			return apperrors.New(apperrors.ErrUnauthorized, "access токен истек, он будет обновлен при следующем запросе")
		}
		return nil
	})

	status := checker.Check(cmd.Context())
	if err := a.printer.Print(healthView{status: status}); err != nil {
		return err
	}
	if !status.Healthy() {
		return apperrors.New(apperrors.ErrUnavailable, "есть недоступные зависимости")
	}
	return nil
}

type healthView struct {
	status *health.HealthStatus
}

func (v healthView) Raw() interface{} { return v.status }

func (v healthView) Table() *output.TableData {
	td := output.NewTableData("Проверка", "Статус", "Время", "Подробности")
	td.Title = "Pronostics CLI v" + v.status.Version
	for _, name := range v.status.Names() {
		s := v.status.Services[name]
		td.AddRow(name, s.Status, s.Duration.Round(time.Millisecond).String(), s.Details)
	}
	return td
}
