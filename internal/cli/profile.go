package cli

import (
	"github.com/spf13/cobra"

	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/output"
)

func (a *App) profileCmd() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Профиль пользователя",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Показать профиль",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleProfileShow(cmd), cmd)
		},
	}
	showCmd.Flags().Bool("fresh", false, "перечитать профиль с сервера")

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Изменить профиль",
		Long:  `Изменяет только переданные поля профиля.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleProfileUpdate(cmd), cmd)
		},
	}
	updateCmd.Flags().StringP("username", "u", "", "имя пользователя")
	updateCmd.Flags().StringP("email", "e", "", "email адрес")
	updateCmd.Flags().String("first-name", "", "имя")
	updateCmd.Flags().String("last-name", "", "фамилия")

	passwordCmd := &cobra.Command{
		Use:   "password",
		Short: "Сменить пароль",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handlePassword(cmd), cmd)
		},
	}
	passwordCmd.Flags().String("current", "", "текущий пароль")
	passwordCmd.Flags().String("new", "", "новый пароль")
	passwordCmd.Flags().String("confirm", "", "подтверждение нового пароля")

	profileCmd.AddCommand(showCmd, updateCmd, passwordCmd)
	return profileCmd
}

func (a *App) handleProfileShow(cmd *cobra.Command) error {
	if err := a.navigate("/profile"); err != nil {
		return err
	}

	fresh, _ := cmd.Flags().GetBool("fresh")
	user, err := a.profile.Show(cmd.Context(), fresh)
	if err != nil {
		return err
	}
	return a.printer.Print(output.UserView{User: user})
}

func (a *App) handleProfileUpdate(cmd *cobra.Command) error {
	if err := a.navigate("/profile"); err != nil {
		return err
	}

	var update api.ProfileUpdate
	changed := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		value, _ := cmd.Flags().GetString(name)
		return &value
	}
	update.Username = changed("username")
	update.Email = changed("email")
	update.FirstName = changed("first-name")
	update.LastName = changed("last-name")

	user, err := a.profile.Update(cmd.Context(), update)
	if err != nil {
		return err
	}
	return a.printer.Print(output.UserView{User: user})
}

func (a *App) handlePassword(cmd *cobra.Command) error {
	if err := a.navigate("/profile"); err != nil {
		return err
	}

	current, _ := cmd.Flags().GetString("current")
	next, _ := cmd.Flags().GetString("new")
	confirm, _ := cmd.Flags().GetString("confirm")

	var err error
	if current, err = a.prompt(current, "Текущий пароль"); err != nil {
		return err
	}
	if next, err = a.prompt(next, "Новый пароль"); err != nil {
		return err
	}
	if confirm, err = a.prompt(confirm, "Повторите новый пароль"); err != nil {
		return err
	}

	return a.profile.ChangePassword(cmd.Context(), current, next, confirm)
}
