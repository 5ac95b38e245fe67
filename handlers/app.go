// Package handlers implements the cloudshare command line: one command group
// per backend area, all sharing a single session store and request pipeline.
package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"cloudshare/api"
	"cloudshare/internal/config"
	"cloudshare/internal/database"
	"cloudshare/internal/logging"
	"cloudshare/services/cloudshare"
	"cloudshare/services/sessions"
)

// ErrNotLoggedIn is returned by commands that need a session when none is stored.
var ErrNotLoggedIn = errors.New("not logged in: run `cloudshare auth login`")

// App is the state shared by every command for one invocation.
type App struct {
	Config   *config.Config
	Store    *sessions.Store
	Client   *cloudshare.Client
	Notifier *TerminalNotifier
	Fs       afero.Fs

	stdin   io.Reader
	lines   *bufio.Reader
	stdout  io.Writer
	stderr  io.Writer
	closers []io.Closer
}

// Options wires the CLI to its environment. Zero values use the process's.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Fs     afero.Fs
	// Transport overrides the HTTP transport under the pipeline.
	Transport http.RoundTripper
}

// NewCLI builds the cloudshare command tree.
func NewCLI(opts Options) *cli.App {
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}

	app := &App{
		Fs:     opts.Fs,
		stdin:  opts.Stdin,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
	}

	return &cli.App{
		Name:      "cloudshare",
		Usage:     "Upload, share and manage files on a CloudShare server",
		Version:   Version(),
		Reader:    opts.Stdin,
		Writer:    opts.Stdout,
		ErrWriter: opts.Stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Configuration file path",
			},
			&cli.StringFlag{
				Name:  "config-dir",
				Usage: "Directory holding config.yaml, the session and logs",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Backend origin, overrides base_url",
			},
			&cli.StringFlag{
				Name:  "session-backend",
				Usage: "Session storage: file, sqlite or memory",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Mirror diagnostic logs to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			return app.setup(c, opts.Transport)
		},
		After: func(c *cli.Context) error {
			return app.close()
		},
		Commands: []*cli.Command{
			authCommand(app),
			filesCommand(app),
			creditsCommand(app),
			versionCommand(),
		},
	}
}

func (a *App) setup(c *cli.Context, transport http.RoundTripper) error {
	cfg, err := config.Load(config.Options{
		ConfigFile: c.String("config"),
		ConfigDir:  c.String("config-dir"),
	})
	if err != nil {
		return err
	}
	if v := strings.TrimRight(c.String("base-url"), "/"); v != "" {
		if cfg.WebURL == cfg.BaseURL {
			cfg.WebURL = v
		}
		cfg.BaseURL = v
	}
	if v := c.String("session-backend"); v != "" {
		cfg.SessionBackend = strings.ToLower(v)
	}
	a.Config = cfg

	logCloser, err := logging.Setup(logging.Options{
		Path:       cfg.LogPath(),
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		Verbose:    c.Bool("verbose"),
		Stderr:     a.stderr,
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, logCloser)

	jar, err := a.openJar()
	if err != nil {
		return err
	}

	store, err := sessions.NewStore(jar, sessions.DefaultRetention)
	if err != nil {
		return err
	}
	a.Store = store
	a.Notifier = NewTerminalNotifier(a.stderr)

	pipeline := api.New(store, api.Options{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
		Notifier:  a.Notifier,
		Navigator: NewLoginNavigator(a.stderr),
		Throttle:  api.NewThrottle(cfg.RequestsPerSecond, 1),
	})
	a.Client = cloudshare.NewClient(pipeline, cloudshare.Options{
		BaseURL:       cfg.BaseURL,
		APIPrefix:     cfg.APIPrefix,
		WebURL:        cfg.WebURL,
		UploadTimeout: cfg.UploadTimeout,
	})

	var verifier sessions.Verifier
	if cfg.VerifyOnStart {
		verifier = a.Client.Verifier()
	}
	ctx, cancel := context.WithTimeout(c.Context, cfg.RequestTimeout)
	defer cancel()
	state := store.Initialize(ctx, verifier)
	log.Printf("[cli] started (backend %s, session %s, state %s)", cfg.BaseURL, cfg.SessionBackend, state)
	return nil
}

func (a *App) openJar() (sessions.Jar, error) {
	switch a.Config.SessionBackend {
	case config.SessionBackendMemory:
		return sessions.NewMemoryJar(), nil
	case config.SessionBackendSQLite:
		db, err := database.NewDB(database.Config{DatabasePath: a.Config.DatabasePath()})
		if err != nil {
			return nil, fmt.Errorf("open session database: %w", err)
		}
		a.closers = append(a.closers, db)
		return database.NewTokenJar(db), nil
	case config.SessionBackendFile:
		return sessions.NewFileJar(a.Fs, a.Config.ConfigDir)
	default:
		return nil, fmt.Errorf("unknown session backend %q", a.Config.SessionBackend)
	}
}

func (a *App) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// requireLogin fails fast when no token is stored, as protected pages
// redirect before issuing any request.
func (a *App) requireLogin() error {
	if a.Store.CurrentToken() == "" {
		return ErrNotLoggedIn
	}
	return nil
}

func (a *App) success(format string, args ...any) {
	a.Notifier.Notify(api.Notice{Level: api.LevelSuccess, Message: fmt.Sprintf(format, args...)})
}

// report shows message as the single notice for err and marks err as
// reported.
func (a *App) report(err error, message string) error {
	a.Notifier.Notify(api.Notice{Level: api.LevelError, Message: message})
	return &reportedError{err: err}
}

type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// Reported reports whether err was already shown to the user as a notice,
// either by the request pipeline or by a command.
func Reported(err error) bool {
	var reported *reportedError
	if errors.As(err, &reported) {
		return true
	}
	var apiErr *api.Error
	return errors.As(err, &apiErr)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}

// commandTimeout bounds commands that issue several requests.
const commandTimeout = 5 * time.Minute
