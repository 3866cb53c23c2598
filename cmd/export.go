package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/formweave/formweave/internal/archive"
)

var (
	exportOutput string
	exportS3     bool
)

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a schema to canonical YAML",
	Long:  `Serialize a registered schema to its canonical YAML form, to stdout, a file, or the configured S3 archive.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		eng, _, err := setup(ctx)
		if err != nil {
			return err
		}
		defer eng.Close(ctx)

		if exportS3 {
			entry, err := eng.Schema(ctx, args[0])
			if err != nil {
				return err
			}
			bucket := eng.Config.Archive.S3Bucket
			if bucket == "" {
				return fmt.Errorf("no archive bucket configured")
			}
			client, err := archive.NewS3Client(ctx, eng.Config.Archive.Region)
			if err != nil {
				return fmt.Errorf("creating S3 client: %w", err)
			}
			res, err := archive.New(client, bucket, eng.Config.Archive.Prefix).Archive(ctx, entry)
			if err != nil {
				return err
			}
			fmt.Printf("Exported to %s\n", res.DocumentURI)
			return nil
		}

		data, err := eng.ExportSchema(ctx, args[0])
		if err != nil {
			return err
		}

		if exportOutput == "" {
			fmt.Print(string(data))
			return nil
		}
		if err := os.WriteFile(exportOutput, data, 0o644); err != nil {
			return fmt.Errorf("writing schema file: %w", err)
		}
		fmt.Printf("Exported to %s\n", exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportS3, "s3", false, "upload the bundle to the configured S3 archive")
	rootCmd.AddCommand(exportCmd)
}
