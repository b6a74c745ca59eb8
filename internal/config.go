package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/quire/internal/renderer"
	"github.com/starford/quire/internal/syntax"
	"github.com/starford/quire/internal/transpile"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Blog     BlogConfig        `yaml:"blog"`
	Identity IdentityConfig    `yaml:"identity"`
	CORS     CORSConfig        `yaml:"cors"`
	Index    IndexConfig       `yaml:"index"`
	Watch    WatchConfig       `yaml:"watch"`
	Build    BuildConfig       `yaml:"build"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Blog.Validate(); err != nil {
		return err
	}
	if err := c.CORS.Validate(); err != nil {
		return err
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := c.Watch.Validate(); err != nil {
		return err
	}
	return c.Build.Validate()
}

// RendererConfig returns the renderer settings derived from the blog and
// identity sections.
func (c *Config) RendererConfig() renderer.Config {
	return renderer.Config{
		ContentRoot:      c.Blog.ContentRoot,
		Template:         c.Blog.Template,
		RoutePrefix:      c.Blog.RoutePrefix,
		IndexDocument:    c.Blog.IndexDocument,
		DefaultTitle:     c.Blog.DefaultTitle,
		Flavor:           c.Blog.Flavor,
		RequiredMetadata: c.Blog.RequiredMetadata,
		Identity:         c.Identity.Identity(),
	}
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// BlogConfig describes the content root and how documents are rendered.
type BlogConfig struct {
	ContentRoot      string   `yaml:"content_root"`
	Template         string   `yaml:"template"`
	RoutePrefix      string   `yaml:"route_prefix"`
	IndexDocument    string   `yaml:"index_document"`
	DefaultTitle     string   `yaml:"default_title"`
	Flavor           string   `yaml:"flavor"`
	RequiredMetadata []string `yaml:"required_metadata"`
}

// Validate validates the blog configuration.
func (c *BlogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ContentRoot, validation.Required),
		validation.Field(&c.Template, validation.Required),
		validation.Field(&c.Flavor, validation.In("", syntax.FlavorCommonMark, syntax.FlavorGFM)),
	)
}

// IdentityConfig holds the profile links shown in the bio header.
type IdentityConfig struct {
	GitHub   string `yaml:"github"`
	LinkedIn string `yaml:"linkedin"`
	Twitter  string `yaml:"twitter"`
}

// Identity converts the section to the transpiler's identity.
func (c *IdentityConfig) Identity() transpile.Identity {
	return transpile.Identity{
		GitHub:   c.GitHub,
		LinkedIn: c.LinkedIn,
		Twitter:  c.Twitter,
	}
}

// CORSConfig controls the cross-origin headers sent by the HTTP server.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	MaxAge         int      `yaml:"max_age"`
}

// Validate validates the CORS configuration.
func (c *CORSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxAge, validation.Min(0)),
	)
}

// IndexConfig holds the SQLite post index configuration.
type IndexConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// WatchConfig controls the content-root watcher.
type WatchConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// BuildConfig holds static site build settings.
type BuildConfig struct {
	Output  string `yaml:"output"`
	Workers int    `yaml:"workers"`
}

// Validate validates the build configuration.
func (c *BuildConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Output, validation.Required),
		validation.Field(&c.Workers, validation.Min(1), validation.Max(64)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	id := transpile.DefaultIdentity()
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Host: "localhost",
				Port: 8080,
			},
		},
		Blog: BlogConfig{
			ContentRoot:   "./blog",
			Template:      "./template.html",
			RoutePrefix:   "blog",
			IndexDocument: "index",
			DefaultTitle:  renderer.DefaultTitle,
			Flavor:        syntax.FlavorCommonMark,
		},
		Identity: IdentityConfig{
			GitHub:   id.GitHub,
			LinkedIn: id.LinkedIn,
			Twitter:  id.Twitter,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			MaxAge:         3600,
		},
		Index: IndexConfig{
			Enabled: true,
			Path:    "./quire.db",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 200 * time.Millisecond,
		},
		Build: BuildConfig{
			Output:  "./public",
			Workers: 4,
		},
	}
}
