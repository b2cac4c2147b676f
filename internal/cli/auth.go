package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"PronosticsPlatform/internal/api"
	"PronosticsPlatform/internal/output"
	"PronosticsPlatform/internal/session"
	"PronosticsPlatform/internal/store"
	apperrors "PronosticsPlatform/pkg/errors"
	"PronosticsPlatform/pkg/validation"
)

func (a *App) authCmd() *cobra.Command {
	authCmd := &cobra.Command{
		Use:   "auth",
		Short: "Управление аутентификацией",
		Long:  `Команды входа, регистрации, выхода и проверки статуса сессии.`,
	}

	loginCmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Войти в систему",
		Long: `Выполняет вход по email и паролю.
Токены сохраняются в хранилище для последующих команд.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleLogin(cmd, args), cmd)
		},
	}
	loginCmd.Flags().StringP("email", "e", "", "email адрес")
	loginCmd.Flags().StringP("password", "p", "", "пароль")

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Зарегистрировать нового пользователя",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleRegister(cmd), cmd)
		},
	}
	registerCmd.Flags().StringP("username", "u", "", "имя пользователя")
	registerCmd.Flags().StringP("email", "e", "", "email адрес")
	registerCmd.Flags().StringP("password", "p", "", "пароль")
	registerCmd.Flags().String("first-name", "", "имя")
	registerCmd.Flags().String("last-name", "", "фамилия")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Выйти из системы",
		Long:  `Отзывает refresh токен на сервере и удаляет сохраненные токены.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.SignOut(cmd.Context())
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Проверить статус аутентификации",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.handleError(a.handleStatus(cmd), cmd)
		},
	}

	authCmd.AddCommand(loginCmd, registerCmd, logoutCmd, statusCmd)
	return authCmd
}

func (a *App) handleLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	if len(args) > 0 {
		email = args[0]
	}
	password, _ := cmd.Flags().GetString("password")

	email, err := a.prompt(strings.TrimSpace(email), "Email")
	if err != nil {
		return err
	}
	if err := validation.NewValidator().ValidateEmail(email); err != nil {
		return apperrors.New(apperrors.ErrValidation, err.Error()).WithField("email", err.Error())
	}
	password, err = a.prompt(password, "Пароль")
	if err != nil {
		return err
	}

	user, err := a.session.SignIn(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	return a.printer.Print(output.UserView{User: user})
}

func (a *App) handleRegister(cmd *cobra.Command) error {
	var req api.RegisterRequest
	req.Username, _ = cmd.Flags().GetString("username")
	req.Email, _ = cmd.Flags().GetString("email")
	req.Password, _ = cmd.Flags().GetString("password")
	req.FirstName, _ = cmd.Flags().GetString("first-name")
	req.LastName, _ = cmd.Flags().GetString("last-name")

	var err error
	if req.Username, err = a.prompt(strings.TrimSpace(req.Username), "Имя пользователя"); err != nil {
		return err
	}
	if req.Email, err = a.prompt(strings.TrimSpace(req.Email), "Email"); err != nil {
		return err
	}
	if req.Password, err = a.prompt(req.Password, "Пароль"); err != nil {
		return err
	}

	if err := validateRegistration(req); err != nil {
		return err
	}

	user, err := a.session.SignUp(cmd.Context(), req)
	if err != nil {
		return err
	}
	return a.printer.Print(output.UserView{User: user})
}

func validateRegistration(req api.RegisterRequest) error {
	v := validation.NewValidator()
	if err := v.ValidateRequiredFields(map[string]string{
		"username": req.Username,
		"email":    req.Email,
		"password": req.Password,
	}, map[string]string{
		"username": "username",
		"email":    "email",
		"password": "password",
	}); err != nil {
		return apperrors.New(apperrors.ErrValidation, err.Error())
	}

	appErr := apperrors.New(apperrors.ErrValidation, "некорректные данные регистрации")
	invalid := false
	if err := v.ValidateStringLength(req.Username, "username", 3, 30); err != nil {
		appErr = appErr.WithField("username", err.Error())
		invalid = true
	}
	if err := v.ValidateEmail(req.Email); err != nil {
		appErr = appErr.WithField("email", err.Error())
		invalid = true
	}
	if err := v.ValidateStringLength(req.Password, "password", 8, 128); err != nil {
		appErr = appErr.WithField("password", err.Error())
		invalid = true
	}
	if invalid {
		return appErr
	}
	return nil
}

// sessionView состояние сессии для auth status
type sessionView struct {
	State         session.State `json:"-"`
	Phase         string        `json:"phase"`
	Authenticated bool          `json:"authenticated"`
	User          *api.User     `json:"user,omitempty"`
	Subscription  bool          `json:"activeSubscription"`
	Admin         bool          `json:"admin"`
	TokenExpiry   string        `json:"tokenExpiry,omitempty"`
}

func (v sessionView) Raw() interface{} { return v }

func (v sessionView) Table() *output.TableData {
	td := output.NewTableData("Поле", "Значение")
	td.AddRow("Сессия", v.Phase)
	if !v.Authenticated {
		td.AddRow("Вход", "не выполнен")
		return td
	}
	td.AddRow("Пользователь", v.User.Username+" <"+v.User.Email+">")
	td.AddRow("Роль", string(v.User.Role))
	td.AddRow("Подписка", string(v.User.SubscriptionStatus))
	if v.TokenExpiry != "" {
		td.AddRow("Токен действует до", v.TokenExpiry)
	}
	return td
}

func (a *App) handleStatus(cmd *cobra.Command) error {
	state := a.session.State()
	view := sessionView{
		State:         state,
		Phase:         string(state.Phase),
		Authenticated: state.IsAuthenticated,
		User:          state.User,
		Subscription:  state.HasActiveSubscription(),
		Admin:         state.IsAdmin(),
	}

	if state.IsAuthenticated {
		if token, err := a.creds.AccessToken(cmd.Context()); err == nil && token != "" {
			exp, ok := store.TokenExpiry(token)
			view.TokenExpiry = output.FormatExpiry(exp, ok, a.opts.Now())
		}
	}
	return a.printer.Print(view)
}
