package kafka

import (
	"github.com/lakeward/dqk"
	"github.com/pkg/errors"
)

// Main holds the options for running a quality check over a Kafka topic.
type Main struct {
	Hosts       []string `help:"Comma separated list of Kafka hosts and ports."`
	Topics      []string `help:"Comma separated list of Kafka topics."`
	Group       string   `help:"Kafka group."`
	RegistryURL string   `help:"URL of the confluent schema registry. Pass an empty string to use JSON instead of Avro."`
	MaxMsgs     int      `help:"Stop after this many messages. 0 means run until interrupted."`
	dqk.CheckConfig
}

// NewMain returns a new Main.
func NewMain() *Main {
	return &Main{
		Hosts:       []string{"localhost:9092"},
		Topics:      []string{"test"},
		Group:       "group0",
		CheckConfig: dqk.NewCheckConfig(),
	}
}

// Run begins checking records from Kafka.
func (m *Main) Run() error {
	var src dqk.Source
	if m.RegistryURL == "" {
		isrc := NewSource()
		isrc.Hosts = m.Hosts
		isrc.Topics = m.Topics
		isrc.Group = m.Group
		isrc.MaxMsgs = m.MaxMsgs
		if err := isrc.Open(); err != nil {
			return errors.Wrap(err, "opening kafka source")
		}
		defer isrc.Close()
		src = isrc
	} else {
		isrc := NewConfluentSource()
		isrc.Hosts = m.Hosts
		isrc.Topics = m.Topics
		isrc.Group = m.Group
		isrc.MaxMsgs = m.MaxMsgs
		isrc.RegistryURL = m.RegistryURL
		if err := isrc.Open(); err != nil {
			return errors.Wrap(err, "opening kafka source")
		}
		defer isrc.Close()
		src = isrc
	}

	_, err := m.Check(src)
	return err
}
