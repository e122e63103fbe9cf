package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Options tunes the JSON handler built by New.
type Options struct {
	Service string
	Env     string
	Level   slog.Level
}

// Setup configures the standard library logger to emit structured JSON and returns
// the underlying slog.Logger for richer logging within the service. All log lines
// include the service name and environment when provided.
func Setup(service, env string) *slog.Logger {
	return Install(os.Stdout, Options{Service: service, Env: env, Level: LevelFromEnv("STAKELEDGER_LOG_LEVEL")})
}

// Install builds a logger writing to w, makes it the slog default and bridges
// the standard library logger onto it.
func Install(w io.Writer, opts Options) *slog.Logger {
	handler, attrs := newHandler(w, opts)
	base := slog.New(handler).With(attrArgs(attrs)...)
	slog.SetDefault(base)

	stdBridge := slog.NewLogLogger(handler.WithAttrs(attrs), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}

// New builds a logger writing to w without touching process-wide defaults.
func New(w io.Writer, opts Options) *slog.Logger {
	handler, attrs := newHandler(w, opts)
	return slog.New(handler).With(attrArgs(attrs)...)
}

// LevelFromEnv parses the named environment variable as a slog level,
// defaulting to info.
func LevelFromEnv(name string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(os.Getenv(name)))); err != nil {
		return slog.LevelInfo
	}
	return level
}

func newHandler(w io.Writer, opts Options) (slog.Handler, []slog.Attr) {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: opts.Level,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == slog.TimeKey {
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			}
			if attr.Key == slog.LevelKey {
				level := strings.ToUpper(attr.Value.String())
				return slog.String("severity", level)
			}
			if attr.Key == slog.MessageKey {
				return slog.Attr{Key: "message", Value: attr.Value}
			}
			return attr
		},
	})

	attrs := []slog.Attr{
		slog.String("service", strings.TrimSpace(opts.Service)),
	}
	if env := strings.TrimSpace(opts.Env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	return handler, attrs
}

func attrArgs(attrs []slog.Attr) []any {
	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	return args
}
