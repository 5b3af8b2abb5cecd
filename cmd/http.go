package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/lakeward/dqk/http"
	"github.com/spf13/cobra"
)

// HTTPMain is wrapped by NewHTTPCommand and only exported for testing
// purposes.
var HTTPMain *http.Main

// NewHTTPCommand returns a new cobra command wrapping HTTPMain.
func NewHTTPCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	HTTPMain = http.NewMain()
	httpCommand := &cobra.Command{
		Use:   "http",
		Short: "check json records posted over HTTP",
		Long: `Listens for HTTP POST requests, decodes json records from their
bodies, evaluates the configured expectations against each one, and writes
the surviving records.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return HTTPMain.Run()
		},
	}
	flags := httpCommand.Flags()
	err := commandeer.Flags(flags, HTTPMain)
	if err != nil {
		panic(err)
	}
	return httpCommand
}

func init() {
	subcommandFns["http"] = NewHTTPCommand
}
