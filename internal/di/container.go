package di

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/gorilla/sessions"
	"golang.org/x/oauth2"

	"github.com/goliatone/go-cms-admin/internal/apiclient"
	"github.com/goliatone/go-cms-admin/internal/commands"
	"github.com/goliatone/go-cms-admin/internal/commands/records"
	adminhttp "github.com/goliatone/go-cms-admin/internal/http"
	"github.com/goliatone/go-cms-admin/internal/logging"
	"github.com/goliatone/go-cms-admin/internal/logging/console"
	"github.com/goliatone/go-cms-admin/internal/logging/gologger"
	"github.com/goliatone/go-cms-admin/internal/markdown"
	"github.com/goliatone/go-cms-admin/internal/resources"
	"github.com/goliatone/go-cms-admin/internal/runtimeconfig"
	"github.com/goliatone/go-cms-admin/internal/submission"
	"github.com/goliatone/go-cms-admin/internal/uploads"
	"github.com/goliatone/go-cms-admin/pkg/interfaces"
)

// Container wires the admin runtime from configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	notifier       interfaces.Notifier
	httpClient     *http.Client
	tokenSource    oauth2.TokenSource
	cache          interfaces.TaggedCache
	markdown       interfaces.MarkdownParser
	sessionStore   sessions.Store

	client       *apiclient.Client
	registry     *resources.Registry
	orchestrator *submission.Orchestrator

	deleteHandler     *records.DeleteRecordHandler
	visibilityHandler *records.SetVisibilityHandler

	dashboard *adminhttp.Dashboard
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithNotifier receives toasts raised outside a dashboard request, such as
// CLI imports.
func WithNotifier(n interfaces.Notifier) Option {
	return func(c *Container) {
		c.notifier = n
	}
}

// WithHTTPClient overrides the transport used to reach the backend.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithTokenSource authenticates backend calls with an OAuth2 token source
// instead of the static token from configuration.
func WithTokenSource(source oauth2.TokenSource) Option {
	return func(c *Container) {
		c.tokenSource = source
	}
}

// WithCache overrides the response cache.
func WithCache(cache interfaces.TaggedCache) Option {
	return func(c *Container) {
		c.cache = cache
	}
}

// WithMarkdownParser overrides the parser used to render markdown fields.
func WithMarkdownParser(parser interfaces.MarkdownParser) Option {
	return func(c *Container) {
		c.markdown = parser
	}
}

// WithSessionStore overrides the dashboard session store.
func WithSessionStore(store sessions.Store) Option {
	return func(c *Container) {
		c.sessionStore = store
	}
}

// NewContainer validates cfg and builds every service it enables.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.configureMarkdown()
	if err := c.configureClient(); err != nil {
		return nil, err
	}
	c.configureResources()
	c.configureCommands()
	if err := c.configureDashboard(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	if !c.Config.Features.Logger {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(c.Config.Logging.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     c.Config.Logging.Level,
			Format:    c.Config.Logging.Format,
			AddSource: c.Config.Logging.AddSource,
			Focus:     c.Config.Logging.Focus,
		})
		if err != nil {
			return fmt.Errorf("di: configure go-logger: %w", err)
		}
		c.loggerProvider = provider
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(c.Config.Logging.Level); ok {
			opts.MinLevel = &level
		}
		c.loggerProvider = console.NewProvider(opts)
	}
	return nil
}

func (c *Container) configureMarkdown() {
	if c.markdown != nil || !c.Config.Features.Markdown {
		return
	}
	c.markdown = markdown.NewGoldmarkParser(interfaces.ParseOptions{
		Extensions: c.Config.Markdown.Extensions,
		Sanitize:   c.Config.Markdown.Sanitize,
		HardWraps:  c.Config.Markdown.HardWraps,
	})
}

func (c *Container) configureClient() error {
	cfg := c.Config
	opts := []apiclient.Option{
		apiclient.WithLogger(logging.APILogger(c.loggerProvider)),
		apiclient.WithFallbackMessage(cfg.Submission.FallbackMessage),
	}
	if c.httpClient != nil {
		opts = append(opts, apiclient.WithHTTPClient(c.httpClient))
	}
	if cfg.API.Timeout > 0 {
		opts = append(opts, apiclient.WithTimeout(cfg.API.Timeout))
	}
	if cfg.API.UserAgent != "" {
		opts = append(opts, apiclient.WithUserAgent(cfg.API.UserAgent))
	}
	switch {
	case c.tokenSource != nil:
		opts = append(opts, apiclient.WithTokenSource(c.tokenSource))
	case strings.TrimSpace(cfg.API.Token) != "":
		opts = append(opts, apiclient.WithToken(cfg.API.Token))
	}
	if c.cache == nil && cfg.Cache.Enabled {
		c.cache = apiclient.NewTagCache(cfg.Cache.Size, cfg.Cache.DefaultTTL)
	}
	if c.cache != nil {
		opts = append(opts, apiclient.WithCache(c.cache, cfg.Cache.DefaultTTL))
	}

	client, err := apiclient.New(cfg.API.BaseURL, opts...)
	if err != nil {
		return fmt.Errorf("di: configure api client: %w", err)
	}
	c.client = client
	return nil
}

func (c *Container) configureResources() {
	cfg := c.Config
	c.registry = resources.NewRegistry(c.client, resources.Deps{
		Markdown: c.markdown,
		Policy: uploads.Policy{
			MaxSize:      cfg.Uploads.MaxSize,
			AllowedTypes: cfg.Uploads.AllowedTypes,
		},
		Logger: logging.FormsLogger(c.loggerProvider),
	})

	submissionLogger := logging.SubmissionLogger(c.loggerProvider)
	next := c.notifier
	if next == nil {
		next = logNotifier{logger: submissionLogger}
	}
	c.orchestrator = submission.New(
		submission.WithWorkers(cfg.Submission.Workers),
		submission.WithTimeout(cfg.Submission.Timeout),
		submission.WithFallbackMessage(cfg.Submission.FallbackMessage),
		submission.WithLogger(submissionLogger),
		submission.WithNotifier(adminhttp.FlashNotifier{Next: next}),
	)
}

func (c *Container) configureCommands() {
	logger := commands.CommandLogger(c.loggerProvider, "records")
	c.deleteHandler = records.NewDeleteRecordHandler(c.registry, logger,
		commands.WithTelemetry(commands.DefaultTelemetry[records.DeleteRecordCommand](logger)),
	)
	c.visibilityHandler = records.NewSetVisibilityHandler(c.registry, logger,
		commands.WithTelemetry(commands.DefaultTelemetry[records.SetVisibilityCommand](logger)),
	)
}

func (c *Container) configureDashboard() error {
	if !c.Config.Features.Dashboard {
		return nil
	}
	cfg := c.Config.Dashboard
	store := c.sessionStore
	if store == nil {
		cookies := sessions.NewCookieStore([]byte(cfg.SessionSecret))
		cookies.Options = &sessions.Options{
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		store = cookies
	}
	dashboard, err := adminhttp.NewDashboard(
		adminhttp.WithBasePath(cfg.BasePath),
		adminhttp.WithRegistry(c.registry),
		adminhttp.WithOrchestrator(c.orchestrator),
		adminhttp.WithSessionStore(store),
		adminhttp.WithSessionName(cfg.SessionName),
		adminhttp.WithDeleteHandler(c.deleteHandler),
		adminhttp.WithVisibilityHandler(c.visibilityHandler),
		adminhttp.WithUploadPolicy(uploads.Policy{
			MaxSize:      c.Config.Uploads.MaxSize,
			AllowedTypes: c.Config.Uploads.AllowedTypes,
		}),
		adminhttp.WithLogger(logging.DashboardLogger(c.loggerProvider)),
		adminhttp.WithViewsLogger(logging.ViewsLogger(c.loggerProvider)),
		adminhttp.WithPageLimits(cfg.PageLimit, cfg.MaxPageLimit),
		adminhttp.WithFallbackMessage(c.Config.Submission.FallbackMessage),
	)
	if err != nil {
		return fmt.Errorf("di: configure dashboard: %w", err)
	}
	c.dashboard = dashboard
	return nil
}

// SubscribeCommands registers the record handlers with the go-command
// dispatcher. Call the returned function to unsubscribe.
func (c *Container) SubscribeCommands(maxRetries int) func() {
	subs := []interface{ Unsubscribe() }{
		dispatcher.SubscribeCommand(c.deleteHandler, runner.WithMaxRetries(maxRetries)),
		dispatcher.SubscribeCommand(c.visibilityHandler, runner.WithMaxRetries(maxRetries)),
	}
	return func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}
}

// LoggerProvider returns the configured provider, nil when logging is off.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns a module scoped logger.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

func (c *Container) Client() *apiclient.Client {
	return c.client
}

func (c *Container) Registry() *resources.Registry {
	return c.registry
}

func (c *Container) Orchestrator() *submission.Orchestrator {
	return c.orchestrator
}

func (c *Container) MarkdownParser() interfaces.MarkdownParser {
	return c.markdown
}

func (c *Container) DeleteHandler() *records.DeleteRecordHandler {
	return c.deleteHandler
}

func (c *Container) VisibilityHandler() *records.SetVisibilityHandler {
	return c.visibilityHandler
}

// Dashboard returns the dashboard, nil when the feature is disabled.
func (c *Container) Dashboard() *adminhttp.Dashboard {
	return c.dashboard
}

// logNotifier writes toasts to the log when no dashboard request is around
// to show them.
type logNotifier struct {
	logger interfaces.Logger
}

func (n logNotifier) Notify(_ context.Context, toast interfaces.Toast) {
	switch toast.Level {
	case interfaces.ToastError:
		n.logger.Warn("toast", "level", toast.Level, "message", toast.Message)
	default:
		n.logger.Info("toast", "level", toast.Level, "message", toast.Message)
	}
}
