package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/lakeward/dqk/file"
	"github.com/spf13/cobra"
)

// FileMain is wrapped by NewFileCommand and only exported for testing
// purposes.
var FileMain *file.Main

// NewFileCommand returns a new cobra command wrapping FileMain.
func NewFileCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	FileMain = file.NewMain()
	fileCommand := &cobra.Command{
		Use:   "file",
		Short: "check line separated json objects from a file or all files in a directory",
		Long: `Reads json records from a file (or every file in a directory),
evaluates the configured expectations against each one, writes the surviving
records, and prints a violation report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return FileMain.Run()
		},
	}
	flags := fileCommand.Flags()
	err := commandeer.Flags(flags, FileMain)
	if err != nil {
		panic(err)
	}
	return fileCommand
}

func init() {
	subcommandFns["file"] = NewFileCommand
}
