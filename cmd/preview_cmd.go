package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/formweave/formweave/internal/mockdata"
	"github.com/formweave/formweave/internal/preview"
	"github.com/formweave/formweave/internal/schema"
)

var (
	previewFile string
	previewMock bool
)

var previewCmd = &cobra.Command{
	Use:   "preview [id]",
	Short: "Preview a schema as a terminal form",
	Long: `Render a schema as an interactive form in the terminal. Conditions,
validation, and the action chain behave as they would in a client;
actions are traced instead of executed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var doc *schema.Document

		switch {
		case previewFile != "":
			var err error
			doc, err = schema.LoadYAML(previewFile)
			if err != nil {
				return fmt.Errorf("loading schema: %w", err)
			}
		case len(args) == 1:
			ctx := context.Background()
			eng, _, err := setup(ctx)
			if err != nil {
				return err
			}
			defer eng.Close(ctx)
			entry, err := eng.Schema(ctx, args[0])
			if err != nil {
				return err
			}
			doc = entry.Document
		default:
			return fmt.Errorf("provide a schema id or --file")
		}

		if res := schema.Validate(doc); !res.Valid {
			fmt.Fprintf(os.Stderr, "schema has %d structural issue(s); run formweave validate first\n", len(res.Errors))
			return fmt.Errorf("schema is invalid")
		}
		if doc.Kind != schema.DocForm {
			return fmt.Errorf("preview supports form schemas; %s is a %s", doc.Entity, doc.Kind)
		}

		var gen *mockdata.Generator
		if previewMock {
			gen = mockdata.New()
		}
		return preview.Run(doc, gen)
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewFile, "file", "", "preview a schema file instead of a registry entry")
	previewCmd.Flags().BoolVar(&previewMock, "mock", false, "prefill the form with generated mock data")
	rootCmd.AddCommand(previewCmd)
}
