package dqk

import (
	"io"
)

// Source is the interface for getting records one at a time. Record returns
// io.EOF after the last record. Implementations of Source should be thread
// safe.
type Source interface {
	Record() (interface{}, error)
}

// SchemaSource is an optional interface a Source may implement to describe
// the fields of the records it produces. The schema is only ever used to make
// error messages and reports more readable - evaluation never consults it.
type SchemaSource interface {
	Schema() []Field
}

// Field describes a single field of a record for diagnostic purposes.
type Field struct {
	Name string
	Type string
}

// NamedReadCloser is a ReadCloser which also knows the name of the resource
// being read (e.g. a file name or object key).
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource is an interface for getting raw data as a series of readers, one
// per underlying resource. NextReader returns io.EOF when the resources are
// exhausted.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}
