package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"hunter/internal/bootstrap"
	"hunter/internal/clientcfg"
	"hunter/internal/identity"
	"hunter/internal/session"
	"hunter/internal/settings"
	"hunter/internal/theme"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the client-side pieces a command needs. The caller must
// defer app.Close().
type app struct {
	cfg      *clientcfg.Config
	store    *settings.SQLiteStore
	client   *identity.Client
	sessions *session.Manager
	themes   *theme.Manager
	logger   *zap.Logger
}

func newApp() (*app, error) {
	cfg, err := clientcfg.ReadFromFile(clientcfg.DefaultPath())
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SettingsPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating settings dir: %w", err)
	}
	store, err := settings.OpenSQLiteStore(cfg.SettingsPath)
	if err != nil {
		return nil, fmt.Errorf("opening settings: %w", err)
	}

	logger, _ := zap.NewDevelopment()
	client := identity.NewClient(cfg.APIBaseURL)
	sessions := session.NewManager(logger, store, client, session.RealClock{}, cfg.OAuthClientID)
	themes := theme.NewManager(logger, store, func() theme.Mode {
		if cfg.Theme == "dark" {
			return theme.Dark
		}
		return theme.Light
	})

	return &app{
		cfg:      cfg,
		store:    store,
		client:   client,
		sessions: sessions,
		themes:   themes,
		logger:   logger,
	}, nil
}

func (a *app) Close() {
	a.logger.Sync()
	a.store.Close()
}

// token returns a live access token or an error telling the user to sign in.
func (a *app) token(ctx context.Context) (string, error) {
	token, err := a.sessions.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("not signed in, run `hunter signin` first")
	}
	return token, nil
}

var rootCmd = &cobra.Command{
	Use:   "hunter",
	Short: "Job application tracker",
}

var signUpCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		username, _ := cmd.Flags().GetString("username")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.sessions.SignUp(cmd.Context(), email, password, username)
		if err != nil {
			return err
		}
		fmt.Printf("Account created (sub %s). Check your email for the confirmation code,\n", result.UserSub)
		fmt.Println("then run `hunter confirm`.")
		return nil
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm",
	Short: "Confirm a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		code, _ := cmd.Flags().GetString("code")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.sessions.ConfirmSignUp(cmd.Context(), email, code); err != nil {
			return err
		}
		fmt.Println("Account confirmed. You can sign in now.")
		return nil
	},
}

var resendCodeCmd = &cobra.Command{
	Use:   "resend-code",
	Short: "Resend the account confirmation code",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.client.ResendConfirmationCode(cmd.Context(), email); err != nil {
			return err
		}
		fmt.Println("Confirmation code sent. Run `hunter confirm` with the new code.")
		return nil
	},
}

var signInCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		state, err := a.sessions.SignIn(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		fmt.Printf("Signed in as %s", state.Email)
		if state.Username != "" {
			fmt.Printf(" (%s)", state.Username)
		}
		fmt.Println()
		return nil
	},
}

var signInGoogleCmd = &cobra.Command{
	Use:   "signin-google",
	Short: "Sign in with Google",
	Long: `Without --code, prints the URL to visit and grant access.
Run again with --code to finish signing in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		code, _ := cmd.Flags().GetString("code")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.cfg.OAuthClientID == "" {
			return fmt.Errorf("oauth_client_id is not set in %s", clientcfg.DefaultPath())
		}
		federated := identity.NewFederated(identity.FederatedConfig{
			ClientID:     a.cfg.OAuthClientID,
			ClientSecret: a.cfg.OAuthClientSecret,
			RedirectURL:  a.cfg.OAuthRedirectURL,
		})

		if code == "" {
			fmt.Println("Visit the URL below, grant access, then rerun with --code:")
			fmt.Println(federated.AuthURL("hunter-cli"))
			return nil
		}

		fs, err := federated.Exchange(cmd.Context(), code)
		if err != nil {
			return err
		}
		if err := a.sessions.SignInFederated(cmd.Context(), fs); err != nil {
			return err
		}
		if fs.Email != "" {
			fmt.Printf("Signed in with Google as %s\n", fs.Email)
		} else {
			fmt.Println("Signed in with Google.")
		}
		return nil
	},
}

var signOutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out everywhere and clear the local session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.sessions.SignOut(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result := bootstrap.Run(cmd.Context(), a.sessions, a.themes)
		if !result.Session.SignedIn {
			fmt.Println("Not signed in.")
			return nil
		}
		fmt.Printf("Signed in as %s", result.Session.Email)
		if result.Session.Username != "" {
			fmt.Printf(" (%s)", result.Session.Username)
		}
		fmt.Printf("\nTheme: %s\n", result.Theme)
		return nil
	},
}

var usernameCmd = &cobra.Command{
	Use:   "username <new-username>",
	Short: "Change the preferred username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.sessions.UpdateUsername(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Username updated to %s\n", args[0])
		return nil
	},
}

var themeCmd = &cobra.Command{
	Use:   "theme [toggle]",
	Short: "Show or toggle the theme",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		current := a.themes.InitialMode(cmd.Context())
		if len(args) == 1 && args[0] == "toggle" {
			current = a.themes.Toggle(cmd.Context())
		}
		fmt.Println(current)
		return nil
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a password reset code",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.sessions.ForgotPassword(cmd.Context(), email); err != nil {
			return err
		}
		fmt.Println("Reset code sent. Run `hunter reset-password` with the code.")
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Set a new password with a reset code",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		code, _ := cmd.Flags().GetString("code")
		password, _ := cmd.Flags().GetString("password")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.sessions.ResetPassword(cmd.Context(), email, code, password); err != nil {
			return err
		}
		fmt.Println("Password updated.")
		return nil
	},
}

var entriesCmd = &cobra.Command{
	Use:   "entries",
	Short: "Manage job entries",
}

var entriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List job entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.token(cmd.Context())
		if err != nil {
			return err
		}
		entries, err := a.client.ListEntries(cmd.Context(), token, status)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No entries yet.")
			return nil
		}
		for _, entry := range entries {
			fmt.Printf("%s  %-28s %-20s %s\n", entry.ID, entry.Title, entry.Employer, entry.Status)
		}
		return nil
	},
}

var entriesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a job entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		entry := identity.NewEntry{}
		entry.Title, _ = cmd.Flags().GetString("title")
		entry.Employer, _ = cmd.Flags().GetString("employer")
		entry.Status, _ = cmd.Flags().GetString("status")
		entry.FoundWhere, _ = cmd.Flags().GetString("found-where")
		entry.Location, _ = cmd.Flags().GetString("location")
		entry.Notes, _ = cmd.Flags().GetString("notes")
		entry.Description, _ = cmd.Flags().GetString("description")
		entry.Contact, _ = cmd.Flags().GetString("contact")
		submitted, _ := cmd.Flags().GetString("submitted")
		if submitted == "" {
			submitted = time.Now().UTC().Format(time.RFC3339)
		}
		entry.SubmissionDate = submitted

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.token(cmd.Context())
		if err != nil {
			return err
		}
		created, err := a.client.CreateEntry(cmd.Context(), token, entry)
		if err != nil {
			return err
		}
		fmt.Printf("Created entry %s\n", created.ID)
		return nil
	},
}

var entriesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a job entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.token(cmd.Context())
		if err != nil {
			return err
		}
		if err := a.client.DeleteEntry(cmd.Context(), token, args[0]); err != nil {
			return err
		}
		fmt.Println("Entry deleted.")
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Request presigned upload URLs for screenshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.token(cmd.Context())
		if err != nil {
			return err
		}

		images := make([]identity.ImageUpload, 0, len(args))
		for _, name := range args {
			images = append(images, identity.ImageUpload{
				FileName: filepath.Base(name),
				MimeType: mimeTypeFor(name),
			})
		}
		uploads, err := a.client.PresignUploads(cmd.Context(), token, images)
		if err != nil {
			return err
		}
		for _, upload := range uploads {
			fmt.Printf("%s\n  %s\n", upload.Key, upload.UploadURL)
		}
		return nil
	},
}

func mimeTypeFor(name string) string {
	switch filepath.Ext(name) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

func init() {
	signUpCmd.Flags().String("email", "", "account email")
	signUpCmd.Flags().String("password", "", "account password")
	signUpCmd.Flags().String("username", "", "preferred username")
	signUpCmd.MarkFlagRequired("email")
	signUpCmd.MarkFlagRequired("password")

	confirmCmd.Flags().String("email", "", "account email")
	confirmCmd.Flags().String("code", "", "confirmation code")
	confirmCmd.MarkFlagRequired("email")
	confirmCmd.MarkFlagRequired("code")

	resendCodeCmd.Flags().String("email", "", "account email")
	resendCodeCmd.MarkFlagRequired("email")

	signInCmd.Flags().String("email", "", "account email")
	signInCmd.Flags().String("password", "", "account password")
	signInCmd.MarkFlagRequired("email")
	signInCmd.MarkFlagRequired("password")

	signInGoogleCmd.Flags().String("code", "", "authorization code from the provider")

	forgotPasswordCmd.Flags().String("email", "", "account email")
	forgotPasswordCmd.MarkFlagRequired("email")

	resetPasswordCmd.Flags().String("email", "", "account email")
	resetPasswordCmd.Flags().String("code", "", "reset code")
	resetPasswordCmd.Flags().String("password", "", "new password")
	resetPasswordCmd.MarkFlagRequired("email")
	resetPasswordCmd.MarkFlagRequired("code")
	resetPasswordCmd.MarkFlagRequired("password")

	entriesListCmd.Flags().String("status", "", "filter by status")

	entriesAddCmd.Flags().String("title", "", "job title")
	entriesAddCmd.Flags().String("employer", "", "employer name")
	entriesAddCmd.Flags().String("status", "Applied", "application status")
	entriesAddCmd.Flags().String("found-where", "", "where the posting was found")
	entriesAddCmd.Flags().String("location", "", "job location")
	entriesAddCmd.Flags().String("notes", "", "notes")
	entriesAddCmd.Flags().String("description", "", "job description")
	entriesAddCmd.Flags().String("contact", "", "contact")
	entriesAddCmd.Flags().String("submitted", "", "submission date (RFC 3339, default now)")
	entriesAddCmd.MarkFlagRequired("title")
	entriesAddCmd.MarkFlagRequired("employer")
	entriesAddCmd.MarkFlagRequired("found-where")

	entriesCmd.AddCommand(entriesListCmd, entriesAddCmd, entriesDeleteCmd)
	rootCmd.AddCommand(
		signUpCmd, confirmCmd, resendCodeCmd, signInCmd, signInGoogleCmd, signOutCmd, whoamiCmd,
		usernameCmd, themeCmd, forgotPasswordCmd, resetPasswordCmd,
		entriesCmd, uploadCmd,
	)
}
