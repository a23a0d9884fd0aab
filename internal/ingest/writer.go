package ingest

import (
	"bytes"
	"sync"

	"github.com/dshills/lookout/internal/scrollback"
)

// Writer turns written text into one entry per line. A trailing partial
// line is held until it is completed or Flush is called.
type Writer struct {
	l    *Logger
	kind scrollback.Kind

	mu      sync.Mutex
	partial []byte
}

// Writer returns an io.Writer that logs each line as an entry of kind.
func (l *Logger) Writer(kind scrollback.Kind) *Writer {
	return &Writer{l: l, kind: kind}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data := append(w.partial, p...)
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		w.emit(bytes.TrimSuffix(data[:i], []byte{'\r'}))
		data = data[i+1:]
	}
	w.partial = append([]byte(nil), data...)
	return len(p), nil
}

// Flush emits a pending partial line.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.partial) > 0 {
		w.emit(w.partial)
		w.partial = nil
	}
}

func (w *Writer) emit(line []byte) {
	w.l.dispatch(w.kind, []any{string(line)}, scrollback.DispatchOptions{})
}
