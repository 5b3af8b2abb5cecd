package file

import (
	"github.com/lakeward/dqk"
	"github.com/pkg/errors"
)

// Main contains the configuration for a quality check with a file Source.
type Main struct {
	Path     string `help:"File or directory path to read json records from."`
	RecordAt string `help:"Add a key to each record whose value is the filename + record number. Empty disables."`
	dqk.CheckConfig
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		CheckConfig: dqk.NewCheckConfig(),
	}
}

// Run runs the check.
func (m *Main) Run() error {
	src, err := NewSource(
		OptSrcPath(m.Path),
		OptSrcRecordAt(m.RecordAt),
	)
	if err != nil {
		return errors.Wrap(err, "getting file source")
	}
	_, err = m.Check(src)
	return err
}
