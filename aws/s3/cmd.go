package s3

import (
	"github.com/lakeward/dqk"
	"github.com/pkg/errors"
)

// Main contains the configuration for a quality check with an S3 Source.
type Main struct {
	Bucket   string `help:"S3 bucket holding line separated json objects."`
	Prefix   string `help:"Only check objects whose keys match this prefix."`
	Region   string `help:"AWS region."`
	RecordAt string `help:"Add a key to each record identifying the bucket, object and record number. Empty disables."`
	dqk.CheckConfig
}

// NewMain gets a new Main with the default configuration.
func NewMain() *Main {
	return &Main{
		Region:      "us-east-1",
		CheckConfig: dqk.NewCheckConfig(),
	}
}

// Run runs the check.
func (m *Main) Run() error {
	src, err := NewSource(
		OptSrcBucket(m.Bucket),
		OptSrcRegion(m.Region),
		OptSrcPrefix(m.Prefix),
		OptSrcRecordAt(m.RecordAt),
	)
	if err != nil {
		return errors.Wrap(err, "getting s3 source")
	}
	_, err = m.Check(src)
	return err
}
