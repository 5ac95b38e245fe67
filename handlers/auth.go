package handlers

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sethvargo/go-password/password"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"cloudshare/models"
)

const (
	minPasswordLength       = 6
	generatedPasswordLength = 16
)

var (
	ErrPasswordMismatch  = errors.New("new passwords do not match")
	ErrPasswordTooShort  = fmt.Errorf("new password must be at least %d characters long", minPasswordLength)
	ErrPasswordUnchanged = errors.New("new password must be different from current password")
)

func authCommand(app *App) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Account and session commands",
		Subcommands: []*cli.Command{
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Prompted when omitted"},
					&cli.BoolFlag{Name: "generate-password", Usage: "Generate a random password and print it once"},
				},
				Action: app.register,
			},
			{
				Name:  "login",
				Usage: "Sign in and store the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Prompted when omitted"},
				},
				Action: app.login,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: app.logout,
			},
			{
				Name:  "whoami",
				Usage: "Show the current session",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "verify", Usage: "Confirm the session with the server"},
				},
				Action: app.whoami,
			},
			{
				Name:      "verify-email",
				Usage:     "Activate an account with the emailed token",
				ArgsUsage: "TOKEN",
				Action:    app.verifyEmail,
			},
			{
				Name:  "forgot-password",
				Usage: "Email a password reset link",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
				},
				Action: app.forgotPassword,
			},
			{
				Name:  "reset-password",
				Usage: "Set a new password with the emailed token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "token", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Prompted when omitted"},
				},
				Action: app.resetPassword,
			},
			{
				Name:  "change-password",
				Usage: "Change the password of the logged-in account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "current", Usage: "Prompted when omitted"},
					&cli.StringFlag{Name: "new", Usage: "Prompted when omitted"},
				},
				Action: app.changePassword,
			},
		},
	}
}

func (a *App) register(c *cli.Context) error {
	var (
		secret string
		err    error
	)
	if c.Bool("generate-password") {
		secret, err = password.Generate(generatedPasswordLength, 4, 2, false, false)
		if err != nil {
			return fmt.Errorf("generate password: %w", err)
		}
	} else {
		secret, err = a.flagOrPrompt(c, "password", "Password: ")
		if err != nil {
			return err
		}
	}
	resp, err := a.Client.Register(c.Context, models.RegisterRequest{
		Name:     c.String("name"),
		Email:    c.String("email"),
		Password: secret,
	})
	if err != nil {
		return err
	}
	a.success("%s. Check %s for a verification link.", resp.Message, c.String("email"))
	if c.Bool("generate-password") {
		a.printf("Generated password: %s\n", secret)
	}
	return nil
}

func (a *App) login(c *cli.Context) error {
	password, err := a.flagOrPrompt(c, "password", "Password: ")
	if err != nil {
		return err
	}
	resp, err := a.Client.Login(c.Context, c.String("email"), password)
	if err != nil {
		return err
	}
	if err := a.Store.Login(resp.Token, resp.Identity()); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	name := resp.Identity().Username()
	if name == "" {
		name = c.String("email")
	}
	a.success("Logged in as %s", name)
	return nil
}

func (a *App) logout(c *cli.Context) error {
	if err := a.Store.Logout(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	a.success("Logged out")
	return nil
}

func (a *App) whoami(c *cli.Context) error {
	if a.Store.CurrentToken() == "" {
		a.printf("Not logged in\n")
		return nil
	}
	if !c.Bool("verify") {
		session := a.Store.Session()
		if name := session.Identity.Username(); name != "" {
			a.printf("Logged in as %s\n", name)
		} else {
			a.printf("Logged in\n")
		}
		if !session.ExpiresAt.IsZero() {
			a.printf("Session expires %s\n", session.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	}

	profile, err := a.Client.Profile(c.Context)
	if err != nil {
		return err
	}
	a.printf("Logged in as %s <%s>\n", profile.Name, profile.Email)
	if profile.Status != nil && !profile.Status.IsActive {
		a.printf("Account is not verified yet\n")
	}
	return nil
}

func (a *App) verifyEmail(c *cli.Context) error {
	token := strings.TrimSpace(c.Args().First())
	if token == "" {
		return errors.New("verification token is required")
	}
	resp, err := a.Client.VerifyEmail(c.Context, token)
	if err != nil {
		return err
	}
	a.success("%s", messageOr(resp.Message, "Email verified"))
	return nil
}

func (a *App) forgotPassword(c *cli.Context) error {
	if _, err := a.Client.ForgotPassword(c.Context, c.String("email")); err != nil {
		return err
	}
	a.success("Password reset link sent to your email!")
	return nil
}

func (a *App) resetPassword(c *cli.Context) error {
	password, err := a.flagOrPrompt(c, "password", "New password: ")
	if err != nil {
		return err
	}
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	resp, err := a.Client.ResetPassword(c.Context, c.String("token"), password)
	if err != nil {
		return err
	}
	a.success("%s", messageOr(resp.Message, "Password reset"))
	return nil
}

func (a *App) changePassword(c *cli.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	current, err := a.flagOrPrompt(c, "current", "Current password: ")
	if err != nil {
		return err
	}
	next, err := a.flagOrPrompt(c, "new", "New password: ")
	if err != nil {
		return err
	}
	if !c.IsSet("new") {
		confirm, err := a.prompt("Confirm new password: ")
		if err != nil {
			return err
		}
		if confirm != next {
			return ErrPasswordMismatch
		}
	}
	if err := validateNewPassword(current, next); err != nil {
		return err
	}

	if _, err := a.Client.ChangePassword(c.Context, current, next); err != nil {
		return err
	}
	a.success("Password changed successfully!")
	return nil
}

func validateNewPassword(current, next string) error {
	if len(next) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if next == current {
		return ErrPasswordUnchanged
	}
	return nil
}

func messageOr(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

func (a *App) flagOrPrompt(c *cli.Context, flag, label string) (string, error) {
	if c.IsSet(flag) {
		return c.String(flag), nil
	}
	return a.prompt(label)
}

// prompt reads one line without echo when stdin is a terminal, and a plain
// line otherwise so passwords can be piped.
func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.stderr, label)
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	if a.lines == nil {
		a.lines = bufio.NewReader(a.stdin)
	}
	line, err := a.lines.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
