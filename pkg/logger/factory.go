package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format is the record encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Deployment environments recognized by WithEnvironment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config lets operators override the environment preset.
// Empty fields keep the preset's choice.
type Config struct {
	Level  string `env:"LOG_LEVEL"`  // debug, info, warn, error
	Format string `env:"LOG_FORMAT"` // json or text
}

// Option configures New.
type Option func(*options)

type options struct {
	level      slog.Level
	format     Format
	output     io.Writer
	attrs      []slog.Attr
	extractors []ContextExtractor
}

func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// WithFormat sets the encoding. Unknown formats are ignored.
func WithFormat(f Format) Option {
	return func(o *options) {
		if f == FormatJSON || f == FormatText {
			o.format = f
		}
	}
}

// WithOutput redirects records to w. Nil is ignored.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithAttr adds static attributes to every record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(o *options) { o.attrs = append(o.attrs, attrs...) }
}

// WithContextExtractors registers extractors run on every record. Nil
// entries are dropped.
func WithContextExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		for _, ex := range extractors {
			if ex != nil {
				o.extractors = append(o.extractors, ex)
			}
		}
	}
}

// WithEnvironment applies the preset for env and tags records with service
// and env. Development logs text at debug level; staging and production log
// JSON at info. Unknown names fall back to development.
func WithEnvironment(env, service string) Option {
	return func(o *options) {
		switch strings.ToLower(env) {
		case EnvProduction, "prod":
			env, o.level, o.format = EnvProduction, slog.LevelInfo, FormatJSON
		case EnvStaging, "stage":
			env, o.level, o.format = EnvStaging, slog.LevelInfo, FormatJSON
		default:
			env, o.level, o.format = EnvDevelopment, slog.LevelDebug, FormatText
		}
		if service != "" {
			o.attrs = append(o.attrs, slog.String("service", service))
		}
		o.attrs = append(o.attrs, slog.String("env", env))
	}
}

// WithConfig applies operator overrides. Place it after WithEnvironment.
// An unparsable level is ignored.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		if cfg.Level != "" {
			var l slog.Level
			if err := l.UnmarshalText([]byte(cfg.Level)); err == nil {
				o.level = l
			}
		}
		WithFormat(Format(strings.ToLower(cfg.Format)))(o)
	}
}

// New builds a logger that writes JSON at info level to stdout unless
// options say otherwise.
func New(opts ...Option) *slog.Logger {
	o := &options{
		level:  slog.LevelInfo,
		format: FormatJSON,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}
	var h slog.Handler
	if o.format == FormatText {
		h = slog.NewTextHandler(o.output, handlerOpts)
	} else {
		h = slog.NewJSONHandler(o.output, handlerOpts)
	}
	if len(o.attrs) > 0 {
		h = h.WithAttrs(o.attrs)
	}
	return slog.New(&contextHandler{Handler: h, extractors: o.extractors})
}

func SetAsDefault(l *slog.Logger) {
	slog.SetDefault(l)
}
