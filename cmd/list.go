package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/formweave/formweave/internal/registry"
)

var (
	listStatus string
	listEntity string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered schemas",
	Long:  `List schemas in the registry, filtered by status and optionally by entity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		eng, _, err := setup(ctx)
		if err != nil {
			return err
		}
		defer eng.Close(ctx)

		status := registry.Status(listStatus)
		switch status {
		case registry.StatusDraft, registry.StatusActive, registry.StatusDeprecated:
		default:
			return fmt.Errorf("unknown status %q", listStatus)
		}

		entries, err := eng.SchemasByStatus(ctx, listEntity, status)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Printf("No %s schemas\n", status)
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-10s  %-8s  %s\n", "ID", "ENTITY", "VARIANT", "VERSION", "UPDATED")
		for _, e := range entries {
			variant := e.Variant
			if variant == "" {
				variant = "(common)"
			}
			fmt.Printf("%-36s  %-16s  %-10s  %-8s  %s\n",
				e.ID, e.Entity, variant, e.Version, e.UpdatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "draft", "status to list (draft, active, deprecated)")
	listCmd.Flags().StringVar(&listEntity, "entity", "", "filter by entity")
	rootCmd.AddCommand(listCmd)
}
