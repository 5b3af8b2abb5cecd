package mock

import (
	"io"
)

// Source is a dqk.Source over an in-memory slice of records. Used for
// testing.
type Source struct {
	Records []interface{}
	i       int
}

// NewSource returns a Source which will produce the given records in order.
func NewSource(records ...interface{}) *Source {
	return &Source{Records: records}
}

// Record returns the next record, or io.EOF.
func (s *Source) Record() (interface{}, error) {
	if s.i >= len(s.Records) {
		return nil, io.EOF
	}
	rec := s.Records[s.i]
	s.i++
	return rec, nil
}

// Result is one outcome of a ResultSource's Record call.
type Result struct {
	Rec interface{}
	Err error
}

// ResultSource is a dqk.Source which replays a scripted sequence of records
// and errors. Used for testing how callers handle mid-stream source errors.
type ResultSource struct {
	Results []Result
	i       int
}

// Record returns the next scripted result, or io.EOF once the script is
// exhausted.
func (s *ResultSource) Record() (interface{}, error) {
	if s.i >= len(s.Results) {
		return nil, io.EOF
	}
	res := s.Results[s.i]
	s.i++
	return res.Rec, res.Err
}
