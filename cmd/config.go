package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"dwhload/internal/config"
	"dwhload/internal/ui"
	"dwhload/pkg/errors"
)

var configInitFlags struct {
	output      string
	interactive bool
	force       bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the dwhload configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration with secrets masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadUnresolvedConfig()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(config.Redacted(cfg))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "Failed to encode configuration")
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))

		if err := config.Validate(cfg); err != nil {
			ui.ShowWarning(err.Error())
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Write a starter configuration. The file format follows the extension of
--output: .cfg or .ini writes the dwh.cfg INI layout, anything else YAML.`,
	Example: `  dwhload config init
  dwhload config init --output dwh.cfg
  dwhload config init --dialect sqlite --output dwhload.yaml
  dwhload config init --interactive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configInitFlags.output
		if _, err := os.Stat(path); err == nil && !configInitFlags.force {
			return errors.New(errors.ErrCodeValidationFailed, fmt.Sprintf("%s already exists", path)).
				WithSuggestions("Pass --force to overwrite it")
		}

		dialect := rootFlags.dialect
		if dialect == "" {
			dialect = "redshift"
		}
		cfg := config.Default(dialect)

		if configInitFlags.interactive {
			var err error
			cfg, err = ui.NewConfigWizard(nil).Run(cfg)
			if err != nil {
				return err
			}
		}

		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".cfg", ".ini":
			err = config.SaveINI(cfg, path)
		default:
			err = config.Save(cfg, path)
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, fmt.Sprintf("Failed to write %s", path))
		}

		ui.ShowSuccess(fmt.Sprintf("Configuration written to %s", path))
		if cfg.Cluster.DBPassword == config.KeyringMarker {
			ui.ShowInfo("Store the cluster password with: dwhload config set-password")
		}
		return nil
	},
}

var configSetPasswordCmd = &cobra.Command{
	Use:   "set-password",
	Short: "Store the cluster password in the OS keyring",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadUnresolvedConfig()
		if err != nil {
			return err
		}

		var password string
		prompt := &survey.Password{
			Message: fmt.Sprintf("Password for %s:", config.KeyringAccount(cfg)),
		}
		if err := survey.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
			return errors.Wrap(err, errors.ErrCodeUserAborted, "Password prompt failed")
		}
		if err := config.StorePassword(cfg, password); err != nil {
			return err
		}
		ui.ShowSuccess(fmt.Sprintf("Password stored for %s", config.KeyringAccount(cfg)))
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVarP(&configInitFlags.output, "output", "o", "dwhload.yaml", "file to write")
	configInitCmd.Flags().BoolVarP(&configInitFlags.interactive, "interactive", "i", false, "ask for each value")
	configInitCmd.Flags().BoolVar(&configInitFlags.force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(configShowCmd, configInitCmd, configSetPasswordCmd)
	rootCmd.AddCommand(configCmd)
}
