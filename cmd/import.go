package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/formweave/formweave/internal/registry"
)

var importCmd = &cobra.Command{
	Use:   "import <schema.yaml>",
	Short: "Import a schema file as a draft",
	Long:  `Parse a canonical schema file, validate it, and register it as a new draft.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading schema file: %w", err)
		}

		ctx := context.Background()
		eng, _, err := setup(ctx)
		if err != nil {
			return err
		}
		defer eng.Close(ctx)

		entry, err := eng.ImportSchema(ctx, data)
		if err != nil {
			var structural *registry.StructuralError
			if errors.As(err, &structural) {
				fmt.Printf("INVALID: %d issue(s)\n", len(structural.Issues))
				for _, issue := range structural.Issues {
					fmt.Printf("  [%s] %s: %s\n", issue.Check, issue.Field, issue.Message)
				}
			}
			return err
		}

		fmt.Printf("Imported %s %s as draft %s\n", entry.Entity, entry.Version, entry.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
