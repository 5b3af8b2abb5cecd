package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/lakeward/dqk/kafka/datagen"
	"github.com/spf13/cobra"
)

// DatagenMain is wrapped by NewDatagenCommand and only exported for testing
// purposes.
var DatagenMain *datagen.Main

// NewDatagenCommand returns a new cobra command wrapping DatagenMain.
func NewDatagenCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	DatagenMain = datagen.NewMain()
	datagenCommand := &cobra.Command{
		Use:   "datagen",
		Short: "produce sample records with deliberate quality problems to Kafka",
		Long: `Produces generated records to a Kafka topic, a configurable
fraction of them with quality problems (negative quantities, missing fields,
impossible coordinates, unparseable timestamps), for exercising the kafka
check command.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return DatagenMain.Run()
		},
	}
	flags := datagenCommand.Flags()
	err := commandeer.Flags(flags, DatagenMain)
	if err != nil {
		panic(err)
	}
	return datagenCommand
}

func init() {
	subcommandFns["datagen"] = NewDatagenCommand
}
