package cli

import (
	"net/url"

	"github.com/spf13/cobra"

	"PronosticsPlatform/internal/output"
)

func (a *App) plansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "Тарифы подписки",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.navigate(a.cfg.Routes.PricingPath); err != nil {
				return a.handleError(err, cmd)
			}
			plans, err := a.checkout.Plans(cmd.Context())
			if err != nil {
				return a.handleError(err, cmd)
			}
			return a.handleError(a.printer.Print(output.PlansView{Plans: plans}), cmd)
		},
	}
}

func (a *App) checkoutCmd() *cobra.Command {
	checkoutCmd := &cobra.Command{
		Use:   "checkout",
		Short: "Оформление подписки",
	}

	startCmd := &cobra.Command{
		Use:   "start [plan-id]",
		Short: "Начать оплату тарифа",
		Long: `Создает сессию оплаты и выводит ссылку на страницу провайдера.
После оплаты выполните checkout confirm с идентификатором сессии.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleCheckoutStart(cmd, args[0]), cmd)
		},
	}

	confirmCmd := &cobra.Command{
		Use:   "confirm [session-id]",
		Short: "Подтвердить оплату",
		Long: `Опрашивает статус сессии оплаты и синхронизирует подписку.
Если провайдер не подтвердил оплату за отведенные попытки,
подписка синхронизируется принудительно.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleCheckoutConfirm(cmd, args[0]), cmd)
		},
	}

	cancelCmd := &cobra.Command{
		Use:   "cancel",
		Short: "Отменить продление подписки",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleCheckoutCancel(cmd), cmd)
		},
	}

	checkoutCmd.AddCommand(startCmd, confirmCmd, cancelCmd)
	return checkoutCmd
}

func (a *App) handleCheckoutStart(cmd *cobra.Command, planID string) error {
	if err := a.navigate("/checkout"); err != nil {
		return err
	}

	start, err := a.checkout.Start(cmd.Context(), planID)
	if err != nil {
		return err
	}

	td := output.NewTableData("Поле", "Значение")
	td.AddRow("Сессия оплаты", start.SessionID)
	td.AddRow("Ссылка", start.URL)
	if err := a.printer.Print(tableView{table: td, raw: start}); err != nil {
		return err
	}
	if start.SessionID != "" {
		a.printer.Line("После оплаты: %s checkout confirm %s", serviceName, start.SessionID)
	}
	return nil
}

func (a *App) handleCheckoutConfirm(cmd *cobra.Command, sessionID string) error {
	if err := a.navigate("/checkout/success?" + url.Values{"session_id": {sessionID}}.Encode()); err != nil {
		return err
	}

	confirmation, err := a.checkout.Confirm(cmd.Context(), sessionID)
	if err != nil {
		return err
	}
	return a.printer.Print(output.ConfirmationView{Confirmation: confirmation})
}

func (a *App) handleCheckoutCancel(cmd *cobra.Command) error {
	if err := a.navigate("/profile"); err != nil {
		return err
	}

	status, err := a.checkout.Cancel(cmd.Context())
	if err != nil {
		return err
	}

	td := output.NewTableData("Поле", "Значение")
	td.AddRow("Подписка", string(status))
	return a.printer.Print(tableView{table: td, raw: map[string]string{"subscriptionStatus": string(status)}})
}

// tableView готовая таблица с исходными данными для json и yaml
type tableView struct {
	table *output.TableData
	raw   interface{}
}

func (v tableView) Table() *output.TableData { return v.table }
func (v tableView) Raw() interface{}         { return v.raw }
