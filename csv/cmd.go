package csv

import (
	"github.com/lakeward/dqk"
)

// Main holds the configuration for a quality check over CSV data.
type Main struct {
	Files       []string `help:"Comma separated list of files or URLs holding headered CSV data."`
	MaxRetries  int      `help:"Max number of retries per file."`
	Concurrency int      `help:"Number of goroutines fetching files simultaneously."`
	dqk.CheckConfig
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		MaxRetries:  3,
		Concurrency: 1,
		CheckConfig: dqk.NewCheckConfig(),
	}
}

// Run runs the check.
func (m *Main) Run() error {
	src := NewSource(
		WithURLs(m.Files),
		WithMaxRetries(m.MaxRetries),
		WithConcurrency(m.Concurrency),
	)
	_, err := m.Check(src)
	return err
}
