package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/formweave/formweave/internal/archive"
)

var activateArchive bool

var activateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Activate a draft schema",
	Long: `Promote a draft to active. The previously active schema of the same
entity and variant is deprecated in the same step, so clients never see
two active versions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		eng, logger, err := setup(ctx)
		if err != nil {
			return err
		}
		defer eng.Close(ctx)

		entry, err := eng.ActivateSchema(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Activated %s %s (%s)\n", entry.Entity, entry.Version, entry.ID)

		if activateArchive {
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
				return fmt.Errorf("archiving: %w", err)
			}
			logger.Info("schema archived", "uri", res.DocumentURI)
			fmt.Printf("Archived to %s\n", res.DocumentURI)
		}
		return nil
	},
}

func init() {
	activateCmd.Flags().BoolVar(&activateArchive, "archive", false, "upload the activated schema bundle to S3")
	rootCmd.AddCommand(activateCmd)
}
