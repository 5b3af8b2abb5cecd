package dqk

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Sink is where records which survive a quality run end up.
type Sink interface {
	Add(record interface{}) error
	Close() error
}

// JSONSink writes each record as one line of JSON.
type JSONSink struct {
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONSink returns a JSONSink writing to w. If w is also an io.Closer it
// will be closed by Close.
func NewJSONSink(w io.Writer) *JSONSink {
	s := &JSONSink{enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// NewFileSink returns a JSONSink writing to the file at path, which is
// truncated if it exists. An empty path means stdout.
func NewFileSink(path string) (*JSONSink, error) {
	if path == "" {
		return NewJSONSink(os.Stdout), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "creating '%s'", path)
	}
	return NewJSONSink(f), nil
}

// Add writes the record.
func (s *JSONSink) Add(record interface{}) error {
	return errors.Wrap(s.enc.Encode(record), "encoding record")
}

// Close closes the underlying writer if it can be closed. Closing a sink
// over stdout is a no-op.
func (s *JSONSink) Close() error {
	if s.closer == nil || s.closer == os.Stdout {
		return nil
	}
	return errors.Wrap(s.closer.Close(), "closing sink")
}

// DiscardSink throws records away.
type DiscardSink struct{}

// Add does nothing.
func (DiscardSink) Add(record interface{}) error { return nil }

// Close does nothing.
func (DiscardSink) Close() error { return nil }

// CountingSink counts records and keeps them in memory. It is mostly useful
// in tests.
type CountingSink struct {
	Records []interface{}
}

// Add appends the record.
func (s *CountingSink) Add(record interface{}) error {
	s.Records = append(s.Records, record)
	return nil
}

// Close does nothing.
func (s *CountingSink) Close() error { return nil }
