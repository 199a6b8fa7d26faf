package stargaze

import (
	"context"
	"log/slog"
)

// slogAdapter bridges a caller-supplied Logger into the slog.Handler the
// internal packages log through. Groups are flattened into dotted attribute
// keys.
type slogAdapter struct {
	logger Logger
	attrs  []slog.Attr
	prefix string
}

func (a slogAdapter) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

func (a slogAdapter) Handle(_ context.Context, record slog.Record) error {
	args := make([]any, 0, (len(a.attrs)+record.NumAttrs())*2)
	for _, attr := range a.attrs {
		args = append(args, a.prefix+attr.Key, attr.Value.Any())
	}
	record.Attrs(func(attr slog.Attr) bool {
		args = append(args, a.prefix+attr.Key, attr.Value.Any())
		return true
	})

	switch {
	case record.Level >= slog.LevelError:
		a.logger.Error(record.Message, args...)
	case record.Level >= slog.LevelWarn:
		a.logger.Warn(record.Message, args...)
	case record.Level >= slog.LevelInfo:
		a.logger.Info(record.Message, args...)
	default:
		a.logger.Debug(record.Message, args...)
	}
	return nil
}

func (a slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	combined := make([]slog.Attr, 0, len(a.attrs)+len(attrs))
	combined = append(combined, a.attrs...)
	combined = append(combined, attrs...)
	return slogAdapter{logger: a.logger, attrs: combined, prefix: a.prefix}
}

func (a slogAdapter) WithGroup(name string) slog.Handler {
	if name == "" {
		return a
	}
	return slogAdapter{logger: a.logger, attrs: a.attrs, prefix: a.prefix + name + "."}
}
