package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/lakeward/dqk/kafka"
	"github.com/spf13/cobra"
)

// KafkaMain is wrapped by NewKafkaCommand and only exported for testing
// purposes.
var KafkaMain *kafka.Main

// NewKafkaCommand returns a new cobra command wrapping KafkaMain.
func NewKafkaCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	KafkaMain = kafka.NewMain()
	kafkaCommand := &cobra.Command{
		Use:   "kafka",
		Short: "check records consumed from Kafka topics",
		Long: `Consumes messages from the given Kafka topics (json, or avro via
the Confluent schema registry), evaluates the configured expectations against
each record, writes the surviving records, and prints a violation report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return KafkaMain.Run()
		},
	}
	flags := kafkaCommand.Flags()
	err := commandeer.Flags(flags, KafkaMain)
	if err != nil {
		panic(err)
	}
	return kafkaCommand
}

func init() {
	subcommandFns["kafka"] = NewKafkaCommand
}
