package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// FanoutWriter writes every message to all of its writers. A failing writer
// does not stop the others, all errors are reported together.
type FanoutWriter struct {
	writers []io.Writer
}

func NewFanoutWriter(writers ...io.Writer) *FanoutWriter {
	return &FanoutWriter{
		writers: writers,
	}
}

func (fw *FanoutWriter) Write(p []byte) (int, error) {
	var err error
	written := 0
	for _, w := range fw.writers {
		n, werr := w.Write(p)
		if werr == nil && n < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		written++
	}

	if written == 0 && len(fw.writers) > 0 {
		return 0, err
	}
	return len(p), err
}
