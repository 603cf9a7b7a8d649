package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/ready4exam/platform/core"
	"github.com/ready4exam/platform/core/curriculum"
	publishsvc "github.com/ready4exam/platform/services/publish"
)

var newS3ClientFunc = func(ctx context.Context) (publishsvc.PutObjectAPI, error) { // mockable
	return publishsvc.NewS3Client(ctx)
}

type generateOptions struct {
	root    string
	out     string
	xlsx    bool
	date    string
	bucket  string
	prefix  string
	logger  core.Logger
	nowFunc func() time.Time
	printf  func(format string, a ...interface{})
}

func newRootCmd(logger core.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "report",
		Short:         "Ready4Exam curriculum reports",
		Long:          `Counts the chapters of every curriculum file per board, class and subject.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newGenerateCmd(logger))
	return rootCmd
}

func newGenerateCmd(logger core.Logger) *cobra.Command {
	opts := &generateOptions{logger: logger, nowFunc: time.Now}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the full and core chapter-count reports of every board",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.printf = func(format string, a ...interface{}) {
				fmt.Fprintf(cmd.OutOrStdout(), format, a...)
			}
			return opts.run(cmd.Context())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.root, "root", ".", "directory scanned for curriculum.js/curriculum.json files")
	flags.StringVar(&opts.out, "out", "data", "output directory")
	flags.BoolVar(&opts.xlsx, "xlsx", false, "also write .xlsx workbooks")
	flags.StringVar(&opts.date, "date", "", "report date (YYYY-MM-DD), defaults to today")
	flags.StringVar(&opts.bucket, "s3-bucket", "", "upload the reports to this S3 bucket")
	flags.StringVar(&opts.prefix, "s3-prefix", "reports", "key prefix of the uploaded reports")
	return cmd
}

func (opts *generateOptions) run(ctx context.Context) error {
	today := opts.nowFunc()
	if opts.date != "" {
		d, err := time.Parse("2006-01-02", opts.date)
		if err != nil {
			return errors.Wrap(err, "invalid --date")
		}
		today = d
	}

	rep, err := curriculum.GenerateReport(opts.root, today, opts.logger)
	if err != nil {
		return err
	}
	files, err := rep.Write(opts.out, opts.xlsx)
	if err != nil {
		return err
	}
	for _, f := range files {
		opts.printf("wrote %s\n", f)
	}
	if len(files) == 0 {
		opts.printf("no curriculum found under %s\n", opts.root)
		return nil
	}

	if opts.bucket == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := newS3ClientFunc(ctx)
	if err != nil {
		return err
	}
	keys, err := publishsvc.NewUploader(client, opts.bucket, opts.prefix).UploadFiles(ctx, opts.out, files...)
	for _, k := range keys {
		opts.printf("uploaded s3://%s/%s\n", opts.bucket, k)
	}
	return err
}
