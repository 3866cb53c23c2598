package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/formweave/formweave/internal/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schema.yaml>",
	Short: "Validate a schema document",
	Long:  `Run the structural validator against a schema file and report every issue found.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := schema.LoadYAML(args[0])
		if err != nil {
			return fmt.Errorf("loading schema: %w", err)
		}

		res := schema.Validate(doc)
		if res.Valid {
			fmt.Printf("OK: %s\n", doc.Summary())
			return nil
		}

		fmt.Printf("INVALID: %d issue(s)\n", len(res.Errors))
		for _, issue := range res.Errors {
			if issue.Field != "" {
				fmt.Printf("  [%s] %s: %s\n", issue.Check, issue.Field, issue.Message)
			} else {
				fmt.Printf("  [%s] %s\n", issue.Check, issue.Message)
			}
		}
		return fmt.Errorf("schema is invalid")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
