package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justapithecus/forage/forage"
	"github.com/justapithecus/forage/internal/extract"
	"github.com/justapithecus/forage/internal/mirror"
	"github.com/justapithecus/forage/internal/report"
)

func reportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the full pipeline and print a dataset summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := forage.New(basePaths(), pipelineOptions()...)
			summary := pipeline.Summary()

			if asJSON {
				return report.RenderJSON(os.Stdout, summary)
			}
			return report.Render(os.Stdout, summary)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the summary as JSON")
	return cmd
}

func discoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "List every file reachable under the configured dataset roots",
		RunE: func(cmd *cobra.Command, args []string) error {
			disc := forage.NewDiscoverer(forage.WithLogger(logger()))
			for dataset, descs := range disc.Discover(basePaths()) {
				fmt.Printf("%s: %d files\n", dataset, len(descs))
				for _, d := range descs {
					fmt.Printf("  %s (%d bytes)\n", d.Name, d.SizeBytes)
				}
			}
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "extract [folder...]",
		Short: "Extract top-level .zip archives into per-archive subdirectories",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ex := extract.New(output, logger())
			n := ex.Run(args)
			fmt.Printf("extracted %d archives into %s\n", n, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", ".", "extraction output directory")
	return cmd
}

func mirrorCmd() *cobra.Command {
	var (
		bucket   string
		prefix   string
		region   string
		endpoint string
		dest     string
	)

	cmd := &cobra.Command{
		Use:   "mirror",
		Short: "Pull a remote dataset prefix from an S3 bucket into a local root",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if bucket == "" {
				bucket = viper.GetString("mirror.bucket")
			}
			if bucket == "" {
				return fmt.Errorf("mirror: --bucket is required")
			}

			client, err := mirror.NewClient(ctx, mirror.ClientConfig{
				Region:       region,
				Endpoint:     endpoint,
				UsePathStyle: endpoint != "",
			})
			if err != nil {
				return err
			}

			m, err := mirror.New(client, mirror.Config{Bucket: bucket, Prefix: prefix}, logger())
			if err != nil {
				return err
			}

			n, err := m.Pull(ctx, dest)
			if err != nil {
				return err
			}
			fmt.Printf("downloaded %d objects into %s\n", n, dest)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "S3 bucket holding the dataset")
	cmd.Flags().StringVar(&prefix, "prefix", "", "object key prefix")
	cmd.Flags().StringVar(&region, "region", "us-east-1", "AWS region")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "custom endpoint for S3-compatible stores")
	cmd.Flags().StringVarP(&dest, "dest", "d", ".", "local destination directory")
	return cmd
}
