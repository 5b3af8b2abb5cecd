package cmd

import (
	"io"

	"github.com/jaffee/commandeer"
	"github.com/lakeward/dqk/aws/s3"
	"github.com/spf13/cobra"
)

// S3Main is wrapped by NewS3Command and only exported for testing purposes.
var S3Main *s3.Main

// NewS3Command returns a new cobra command wrapping S3Main.
func NewS3Command(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	S3Main = s3.NewMain()
	s3Command := &cobra.Command{
		Use:   "s3",
		Short: "check line separated json objects under an S3 bucket/prefix",
		Long: `Reads json records from every object under the given S3 bucket
and prefix, evaluates the configured expectations against each one, writes
the surviving records, and prints a violation report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return S3Main.Run()
		},
	}
	flags := s3Command.Flags()
	err := commandeer.Flags(flags, S3Main)
	if err != nil {
		panic(err)
	}
	return s3Command
}

func init() {
	subcommandFns["s3"] = NewS3Command
}
