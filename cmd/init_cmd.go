package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/formweave/formweave/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file interactively",
	Long:  `Walk through prompts to create a Formweave configuration file at ~/.formweave/formweave.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		fmt.Println("Formweave Configuration Setup")
		fmt.Println("=============================")
		fmt.Println()

		fmt.Println("Schema Store")
		fmt.Println("------------")
		backend := prompt(reader, "Backend (memory/mongodb/postgresql)", "memory")
		var connStr, database string
		switch backend {
		case "mongodb":
			connStr = prompt(reader, "Connection string", "mongodb://localhost:27017")
			database = prompt(reader, "Database name", "formweave")
		case "postgresql":
			connStr = prompt(reader, "Connection string", "postgres://localhost:5432/formweave")
		}
		fmt.Println()

		fmt.Println("API Server")
		fmt.Println("----------")
		portStr := prompt(reader, "Port", "8750")
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port: %s", portStr)
		}
		baseURL := prompt(reader, "Action base URL (leave empty for relative endpoints)", "")
		fmt.Println()

		fmt.Println("Archive (optional)")
		fmt.Println("------------------")
		bucket := prompt(reader, "S3 bucket (leave empty to disable)", "")
		var region string
		if bucket != "" {
			region = prompt(reader, "AWS region", "eu-north-1")
		}

		cfg := &config.Config{
			Version: config.CurrentVersion,
			Store: config.StoreConfig{
				Backend:          backend,
				ConnectionString: connStr,
				Database:         database,
			},
			API: config.APIConfig{
				Port:    port,
				BaseURL: baseURL,
			},
			Archive: config.ArchiveConfig{
				S3Bucket: bucket,
				Region:   region,
			},
		}

		cfgPath := config.ExpandHome(config.DefaultPath)
		if cfgFile != "" {
			cfgPath = cfgFile
		}

		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Printf("Config written to %s\n", cfgPath)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  formweave import <schema.yaml>   - Register a draft schema")
		fmt.Println("  formweave preview <id>           - Try a schema in the terminal")
		fmt.Println("  formweave serve                  - Start the HTTP API")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}
