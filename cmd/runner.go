package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/hypertrack/internal/gate"
	"github.com/desertthunder/hypertrack/internal/repositories"
	"github.com/desertthunder/hypertrack/internal/services"
	"github.com/desertthunder/hypertrack/internal/session"
	"github.com/desertthunder/hypertrack/internal/shared"
	"github.com/desertthunder/hypertrack/internal/tasks"
	"github.com/desertthunder/hypertrack/internal/transport"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	openURL    func(string) error

	db      *sql.DB
	store   repositories.Store
	client  *transport.Client
	tokens  *repositories.TokenStore
	themes  *repositories.ThemeStore
	session *session.Manager
	api     services.API
}

// RunnerOpts contains configuration options for creating a Runner.
//
// When both Client and Store are set the runner is wired immediately and [Runner.Init] only
// applies flags; otherwise Init loads the config file and opens the database.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Client     *transport.Client
	Store      repositories.Store
	OpenURL    func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		openURL:    opts.OpenURL,
		client:     opts.Client,
		store:      opts.Store,
	}

	if r.client != nil && r.store != nil {
		r.wire()
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authCommand, artistsCommand, providerCommand, themeCommand, apiCommand, setupCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Init loads configuration and builds the transport, stores and session manager.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	if r.session != nil {
		return ctx, nil
	}

	r.configPath = cmd.String("config")
	config, err := shared.Load(r.configPath)
	if err != nil {
		return ctx, err
	}
	r.config = config

	if !cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(config.Log.Level))
	}

	if r.store == nil && cmd.Bool("ephemeral") {
		r.store = repositories.NewMemoryStore()
	}

	if r.store == nil {
		db, err := shared.OpenStore(config.Database.Path)
		if err != nil {
			return ctx, fmt.Errorf("failed to open local store: %w", err)
		}
		if config.Database.Path != ":memory:" {
			shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		}
		r.db = db
		r.store = repositories.NewPreferenceRepository(db)
	}

	if r.client == nil {
		opts := transport.OptionsFromConfig(config.API)
		opts.Logger = r.logger
		r.client = transport.New(opts)
	}

	r.wire()
	r.logger.Debug("runner initialized", "base_url", r.client.BaseURL(), "database", config.Database.Path)
	return ctx, nil
}

func (r *Runner) wire() {
	r.tokens = repositories.NewTokenStore(r.store)
	fallback, err := repositories.ParseTheme(r.config.UI.Theme)
	if err != nil {
		fallback = repositories.ThemeDark
	}
	r.themes = repositories.NewThemeStore(r.store, fallback)
	r.session = session.NewManager(session.NewAuthClient(r.client), r.tokens, r.logger)

	var api services.API = services.NewHypertrackService(r.client, r.session, r.logger)
	if b := r.config.API.Breaker; b.Enabled {
		api = services.NewBreakerService(api, b.MaxFailures, b.OpenTimeout(), r.logger)
	}
	r.api = api
}

// Close releases the local database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the runner's logger.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// RequireSession restores the stored session and refuses to continue without one.
func (r *Runner) RequireSession(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if _, err := r.session.Restore(ctx); err != nil {
		r.logger.Debug("stored session not restored", "error", err)
		if !transport.IsUnauthorized(err) {
			return ctx, err
		}
	}

	if err := gate.Require(r.session.Current(), cmd.FullName()); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// newDashboard builds a dashboard over the runner's API.
func (r *Runner) newDashboard() *tasks.Dashboard {
	return tasks.NewDashboard(r.api, r.describe, r.logger)
}

// describe renders err for the user, falling back to err.Error().
func (r *Runner) describe(err error) string {
	if r.client == nil {
		return err.Error()
	}
	return r.client.Describe(err)
}

// prompt reads one line from the runner's input.
func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s: ", label)
	line, err := r.input.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// artistID parses the "id" argument.
func artistID(cmd *cli.Command) (int, error) {
	raw := cmd.StringArg("id")
	if raw == "" {
		return 0, fmt.Errorf("%w: artist id", shared.ErrMissingArgument)
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: artist id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

// artistError reports a 404 for id as [shared.ErrArtistNotFound] and passes other errors through.
func artistError(err error, id int) error {
	if transport.Status(err) == http.StatusNotFound {
		return fmt.Errorf("%w: no tracked artist with id %d", shared.ErrArtistNotFound, id)
	}
	return err
}
