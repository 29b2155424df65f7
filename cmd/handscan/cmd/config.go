package cmd

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/handscan/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create configuration files",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration as YAML",
		Long: `Print the configuration after merging the config file, .env, HANDSCAN_*
environment variables and defaults. The API key is redacted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			data, err := config.MarshalYAML(cfg.Redacted())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if used := a.loader.GetConfigFileUsed(); used != "" {
				_, _ = fmt.Fprintf(out, "# config file: %s\n", used)
			}
			_, err = out.Write(data)
			return err
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := config.ConfigFileName + ".yaml"
			if len(args) == 1 {
				filename = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := config.WriteDefaultConfigFile(filename, force); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", filename)
			return err
		},
	}
	initCmd.Flags().Bool("force", false, "overwrite an existing file")

	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "List the directories searched for handscan.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), strings.Join(config.GetConfigSearchPaths(), "\n"))
			return err
		},
	}

	cmd.AddCommand(showCmd, initCmd, pathsCmd)
	return cmd
}
