package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/lakeward/dqk/csv"
	"github.com/spf13/cobra"
)

// CSVMain is wrapped by NewCSVCommand and only exported for testing purposes.
var CSVMain *csv.Main

// NewCSVCommand returns a new cobra command wrapping CSVMain.
func NewCSVCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	CSVMain = csv.NewMain()
	csvCommand := &cobra.Command{
		Use:   "csv",
		Short: "check headered CSV data from files or URLs",
		Long: `Reads headered CSV data from local files or HTTP URLs, evaluates
the configured expectations against each row, writes the surviving rows as
json, and prints a violation report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return CSVMain.Run()
		},
	}
	flags := csvCommand.Flags()
	err := commandeer.Flags(flags, CSVMain)
	if err != nil {
		panic(err)
	}
	return csvCommand
}

func init() {
	subcommandFns["csv"] = NewCSVCommand
}
