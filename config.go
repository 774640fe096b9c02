package spacetravelling

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// FallbackMode decides how posts unknown at start-up are served.
type FallbackMode string

const (
	// FallbackPlaceholder serves a loading page that fetches the post.
	FallbackPlaceholder FallbackMode = "true"
	// FallbackBlocking fetches the post before responding.
	FallbackBlocking FallbackMode = "blocking"
)

// MinSessionSecretLength is the minimum length of SESSION_SECRET.
const MinSessionSecretLength = 32

// SiteConfig holds all configuration for the site.
type SiteConfig struct {
	Name        string `env:"SITE_NAME" envDefault:"spacetravelling"`
	URL         string `env:"SITE_URL" envDefault:"http://localhost:3000"`
	Description string `env:"SITE_DESCRIPTION"`
	Locale      string `env:"SITE_LOCALE" envDefault:"pt-BR"`
	Addr        string `env:"ADDR" envDefault:":3000"`

	PrismicEndpoint    string        `env:"PRISMIC_API_ENDPOINT,required"`
	PrismicAccessToken string        `env:"PRISMIC_ACCESS_TOKEN"`
	PrismicTimeout     time.Duration `env:"PRISMIC_TIMEOUT" envDefault:"10s"`

	PageSize         int          `env:"POSTS_PAGE_SIZE" envDefault:"2"`
	FallbackMode     FallbackMode `env:"FALLBACK_MODE" envDefault:"true"`
	LoadMoreRate     float64      `env:"LOAD_MORE_RATE" envDefault:"10"` // requests per second per IP
	SanitizeRichText bool         `env:"SANITIZE_RICH_TEXT"`
	HTMXURL          string       `env:"HTMX_URL" envDefault:"https://unpkg.com/htmx.org@2.0.4/dist/htmx.min.js"`

	SessionSecret string `env:"SESSION_SECRET"` // enables preview mode
	CookieSecure  bool   `env:"COOKIE_SECURE"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads .env (if present) and the environment.
func LoadConfig() (SiteConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return SiteConfig{}, fmt.Errorf("spacetravelling: load .env: %w", err)
	}
	var cfg SiteConfig
	if err := env.Parse(&cfg); err != nil {
		return SiteConfig{}, fmt.Errorf("spacetravelling: parse config: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return SiteConfig{}, err
	}
	return cfg, nil
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "spacetravelling"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	c.URL = strings.TrimSuffix(c.URL, "/")
	if c.Locale == "" {
		c.Locale = "pt-BR"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.PrismicTimeout == 0 {
		c.PrismicTimeout = 10 * time.Second
	}
	if c.PageSize == 0 {
		c.PageSize = 2
	}
	if c.FallbackMode == "" {
		c.FallbackMode = FallbackPlaceholder
	}
	if c.LoadMoreRate == 0 {
		c.LoadMoreRate = 10
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports the first invalid setting.
func (c SiteConfig) Validate() error {
	if c.PrismicEndpoint == "" {
		return errors.New("spacetravelling: PRISMIC_API_ENDPOINT is required")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("spacetravelling: POSTS_PAGE_SIZE must be between 1 and 100, got %d", c.PageSize)
	}
	if c.LoadMoreRate <= 0 {
		return fmt.Errorf("spacetravelling: LOAD_MORE_RATE must be positive, got %g", c.LoadMoreRate)
	}
	switch c.FallbackMode {
	case FallbackPlaceholder, FallbackBlocking:
	default:
		return fmt.Errorf("spacetravelling: FALLBACK_MODE must be %q or %q, got %q", FallbackPlaceholder, FallbackBlocking, c.FallbackMode)
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("spacetravelling: SITE_LOCALE: %w", err)
	}
	if c.SessionSecret != "" && len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("spacetravelling: SESSION_SECRET must be at least %d bytes long, got %d bytes", MinSessionSecretLength, len(c.SessionSecret))
	}
	return nil
}

// PreviewEnabled reports whether preview sessions are configured.
func (c SiteConfig) PreviewEnabled() bool {
	return c.SessionSecret != ""
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithHTTPClient sets the HTTP client used to reach the content service.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}

// NewLogger returns a text logger for the given level name
// ("debug", "info", "warn", "error"; anything else means info).
func NewLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
