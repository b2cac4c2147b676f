package cli

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/output"
	"PronosticsPlatform/internal/pronostics"
)

func (a *App) pronosticsCmd() *cobra.Command {
	pronosticsCmd := &cobra.Command{
		Use:     "pronostics",
		Aliases: []string{"p"},
		Short:   "Прогнозы",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Список прогнозов",
		Long: `Показывает прогнозы за выбранный период, сгруппированные по дням.
Периоды: ` + strings.Join(pronostics.Periods, ", ") + `.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleList(cmd), cmd)
		},
	}
	listCmd.Flags().String("period", string(pronostics.PeriodUpcoming), "период")
	listCmd.Flags().String("sport", "", "вид спорта")
	listCmd.Flags().String("status", "", "статус (pending, won, lost, void)")
	listCmd.Flags().Int("page", 1, "номер страницы")
	listCmd.Flags().Int("page-size", 0, "размер страницы (по умолчанию из конфигурации)")

	showCmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Карточка прогноза",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleShow(cmd, args[0]), cmd)
		},
	}

	pronosticsCmd.AddCommand(listCmd, showCmd)
	return pronosticsCmd
}

func (a *App) handleList(cmd *cobra.Command) error {
	if err := a.navigate("/pronostics"); err != nil {
		return err
	}

	period, _ := cmd.Flags().GetString("period")
	sport, _ := cmd.Flags().GetString("sport")
	status, _ := cmd.Flags().GetString("status")
	page, _ := cmd.Flags().GetInt("page")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	if pageSize <= 0 {
		pageSize = a.cfg.Pronostics.PageSize
	}

	result, err := a.pronostics.List(cmd.Context(), pronostics.Filter{
		Period:   pronostics.Period(period),
		Sport:    sport,
		Status:   api.PronosticStatus(status),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}
	return a.printer.Print(output.PronosticsView{Page: result})
}

func (a *App) handleShow(cmd *cobra.Command, id string) error {
	if err := a.navigate("/pronostics/" + url.PathEscape(id)); err != nil {
		return err
	}

	detail, err := a.pronostics.Detail(cmd.Context(), id)
	if err != nil {
		return err
	}
	return a.printer.Print(output.DetailView{Detail: detail})
}
