package cli

import (
	"time"

	"github.com/spf13/cobra"

	"PronosticsPlatform/internal/admin"
	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/output"
	"PronosticsPlatform/internal/pronostics"
)

const adminPath = "/admin"

func (a *App) adminCmd() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Панель администратора",
		Long:  `Статистика платформы, пользователи и публикация прогнозов.`,
	}

	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Сводка платформы",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleDashboard(cmd), cmd)
		},
	}

	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Список пользователей",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleUsers(cmd), cmd)
		},
	}
	usersCmd.Flags().Int("page", 1, "номер страницы")
	usersCmd.Flags().Int("limit", 20, "пользователей на странице")

	createCmd := &cobra.Command{
		Use:   "create-pronostic",
		Short: "Опубликовать прогноз",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleCreatePronostic(cmd), cmd)
		},
	}
	createCmd.Flags().String("sport", "", "вид спорта")
	createCmd.Flags().String("competition", "", "турнир")
	createCmd.Flags().String("home", "", "хозяева")
	createCmd.Flags().String("away", "", "гости")
	createCmd.Flags().String("prediction", "", "прогноз")
	createCmd.Flags().Float64("odds", 0, "коэффициент")
	createCmd.Flags().Int("confidence", 50, "уверенность, %")
	createCmd.Flags().String("date", "", `дата матча (RFC3339 или "2006-01-02 15:04")`)
	createCmd.Flags().Bool("premium", false, "только для подписчиков")
	createCmd.Flags().String("analysis", "", "анализ")

	deleteCmd := &cobra.Command{
		Use:   "delete-pronostic [id]",
		Short: "Удалить прогноз",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleDeletePronostic(cmd, args[0]), cmd)
		},
	}

	adminCmd.AddCommand(dashboardCmd, usersCmd, createCmd, deleteCmd)
	return adminCmd
}

func (a *App) handleDashboard(cmd *cobra.Command) error {
	if err := a.navigate(adminPath); err != nil {
		return err
	}

	dashboard, err := a.admin.Dashboard(cmd.Context())
	if err != nil {
		return err
	}
	return a.printer.Print(output.DashboardView{Dashboard: dashboard})
}

func (a *App) handleUsers(cmd *cobra.Command) error {
	if err := a.navigate(adminPath); err != nil {
		return err
	}

	page, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	users, err := a.admin.Users(cmd.Context(), page, limit)
	if err != nil {
		return err
	}
	return a.printer.Print(output.UsersView{Page: users})
}

func (a *App) handleCreatePronostic(cmd *cobra.Command) error {
	if err := a.navigate(adminPath); err != nil {
		return err
	}

	flags := cmd.Flags()
	var input api.PronosticInput
	input.Sport, _ = flags.GetString("sport")
	input.Competition, _ = flags.GetString("competition")
	input.HomeTeam, _ = flags.GetString("home")
	input.AwayTeam, _ = flags.GetString("away")
	input.Prediction, _ = flags.GetString("prediction")
	input.Odds, _ = flags.GetFloat64("odds")
	input.Confidence, _ = flags.GetInt("confidence")
	input.IsPremium, _ = flags.GetBool("premium")
	input.Analysis, _ = flags.GetString("analysis")

	if date, _ := flags.GetString("date"); date != "" {
		matchDate, err := admin.ParseMatchDate(date, time.Local)
		if err != nil {
			return err
		}
		input.MatchDate = matchDate
	}

	created, err := a.admin.CreatePronostic(cmd.Context(), input)
	if err != nil {
		return err
	}
	return a.printer.Print(output.DetailView{Detail: &pronostics.Detail{Pronostic: *created}})
}

func (a *App) handleDeletePronostic(cmd *cobra.Command, id string) error {
	if err := a.navigate(adminPath); err != nil {
		return err
	}

	if err := a.admin.DeletePronostic(cmd.Context(), id); err != nil {
		return err
	}
	a.notifier.Success("Прогноз удален")
	return nil
}
