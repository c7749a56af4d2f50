package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/snowlift/snowlift/internal/config"
	"github.com/snowlift/snowlift/internal/wizard"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the config file interactively",
	Long: `Walk through a form to create a Snowlift configuration file at
~/.snowlift/snowlift.yaml (or the path given with --config).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath := cfgFile
		if cfgPath == "" {
			cfgPath = config.ExpandHome(config.DefaultPath)
		}

		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("config already exists at %s", cfgPath)
		}

		cfg, err := wizard.RunSetup()
		if err != nil {
			return err
		}

		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Printf("Config written to %s\n", cfgPath)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Printf("  list the tables to migrate in %s\n", cfg.TablesFile)
		fmt.Println("  snowlift plan            preview the generated queries")
		fmt.Println("  snowlift migrate -i      run the migration interactively")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
