package eval

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/dshills/lookout/internal/sandbox"
	"github.com/dshills/lookout/internal/scrollback"
)

// LoadProgram runs a whole program, announcing it with an Info line. A
// failure is reported as an Error line and returned.
//
// Programs that end in a top-level return are repaired: the trailing return
// statement is dropped and the program loaded again. If that fails too the
// program is loaded as a module body, and if that fails the first error is
// final.
func (b *Bridge) LoadProgram(ctx context.Context, name, source string) (any, error) {
	b.buf.Dispatch([]any{"Loading main file", strconv.Quote(name)}, scrollback.KindInfo, scrollback.DispatchOptions{})

	v, err := b.load(ctx, name, source)
	if err != nil {
		b.logger.Warn("program failed", zap.String("name", name), zap.Error(err))
		b.buf.Dispatch([]any{"Error loading main file:", err}, scrollback.KindError, scrollback.DispatchOptions{})
		return nil, err
	}
	return v, nil
}

func (b *Bridge) load(ctx context.Context, name, source string) (any, error) {
	v, err := b.sb.Load(ctx, name, source)
	if err == nil || !errors.Is(err, sandbox.ErrIllegalReturn) {
		return v, err
	}

	if repaired, ok := StripTrailingReturn(source); ok {
		b.logger.Debug("retrying without trailing return", zap.String("name", name))
		if v, rerr := b.sb.Load(ctx, name, repaired); rerr == nil {
			return v, nil
		}
	}
	if v, merr := b.sb.Load(ctx, name, b.sb.Module(source)); merr == nil {
		return v, nil
	}
	return nil, err
}
