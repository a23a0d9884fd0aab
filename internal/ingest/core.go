package ingest

import (
	"go.uber.org/zap/zapcore"

	"github.com/dshills/lookout/internal/scrollback"
)

// Core is a zapcore.Core that writes log entries into the transcript. The
// message is the first value; structured fields follow as one map.
type Core struct {
	zapcore.LevelEnabler
	l      *Logger
	fields []zapcore.Field
}

// NewCore creates a core logging entries at or above enab.
func NewCore(l *Logger, enab zapcore.LevelEnabler) *Core {
	return &Core{LevelEnabler: enab, l: l}
}

// With adds structured context.
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

// Check adds c to ce when the entry's level is enabled.
func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write dispatches the entry.
func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	values := []any{ent.Message}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	if len(enc.Fields) > 0 {
		values = append(values, enc.Fields)
	}

	opts := scrollback.DispatchOptions{Annotation: ent.LoggerName}
	if c.l.caller && ent.Caller.Defined {
		ci := c.l.callerInfo(ent.Caller.File, ent.Caller.Line)
		ci.Time = ent.Time
		opts.Caller = ci
	}
	c.l.dispatch(LevelKind(ent.Level), values, opts)
	return nil
}

// Sync is a no-op; entries are posted as they are written.
func (c *Core) Sync() error { return nil }

// LevelKind maps a log level to a line kind.
func LevelKind(lvl zapcore.Level) scrollback.Kind {
	switch {
	case lvl >= zapcore.ErrorLevel:
		return scrollback.KindError
	case lvl == zapcore.WarnLevel:
		return scrollback.KindWarning
	case lvl == zapcore.InfoLevel:
		return scrollback.KindInfo
	}
	return scrollback.KindArgs
}
