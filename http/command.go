package http

import (
	"log"

	"github.com/lakeward/dqk"
	"github.com/pkg/errors"
)

// Main holds the config for the http check command.
type Main struct {
	Bind string `help:"Listen for post requests on this address."`
	dqk.CheckConfig
}

// NewMain gets a new Main with default values.
func NewMain() *Main {
	return &Main{
		Bind:        ":12121",
		CheckConfig: dqk.NewCheckConfig(),
	}
}

// Run runs the http check command. It blocks until the listener fails; every
// record posted in the meantime flows through the configured rules.
func (m *Main) Run() error {
	src, err := NewJSONSource(WithAddr(m.Bind))
	if err != nil {
		return errors.Wrap(err, "getting json source")
	}

	log.Println("listening on", src.Addr())

	_, err = m.Check(src)
	return err
}
