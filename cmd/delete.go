package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a draft schema",
	Long:  `Remove a draft from the registry. Active and deprecated schemas are the version history and cannot be deleted.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		eng, _, err := setup(ctx)
		if err != nil {
			return err
		}
		defer eng.Close(ctx)

		if err := eng.DeleteSchema(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted draft %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
