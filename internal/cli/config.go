// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/config"
)

func newConfigCommand(appFn func() *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View and modify configuration",
		Long: `View and modify ~/.evo/config.toml.

Keys use dot notation, for example api.base_url or chat.reveal_delay.
Environment variables (EVO_BASE_URL, EVO_LOG_LEVEL, ...) override the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig(cmd.OutOrStdout(), appFn(), opts)
		},
	}

	// configPath is where set and reset write.
	configPath := func() (string, error) {
		if opts.ConfigPath != "" {
			return opts.ConfigPath, nil
		}
		return config.ConfigPath()
	}

	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Reset the configuration file to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := RequireConfirmation(yes, "Reset configuration to defaults", cmd.InOrStdin(), cmd.OutOrStdout(), IsTTY())
			if err != nil || !ok {
				return err
			}
			path, err := configPath()
			if err != nil {
				return err
			}
			if err := config.SaveTOML(config.Default(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Configuration reset\n", SuccessStyle.Render("[OK]"))
			return nil
		},
	}
	reset.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showConfig(cmd.OutOrStdout(), appFn(), opts)
			},
		},
		&cobra.Command{
			Use:       "get <key>",
			Short:     "Print one configuration value",
			Args:      cobra.ExactArgs(1),
			ValidArgs: config.GetAllKeys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := appFn().Config.Get(args[0])
				if err != nil {
					return NewValidationError("key", args[0], err.Error())
				}
				if opts.JSON {
					return printJSON(cmd.OutOrStdout(), "config get", map[string]interface{}{args[0]: v})
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
		&cobra.Command{
			Use:     "set <key> <value>",
			Short:   "Set a configuration value and save it",
			Example: "  evo config set api.base_url https://evo.acme.test\n  evo config set chat.reveal_delay 0s",
			Args:    cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, value := args[0], args[1]
				cfg := appFn().Config.Clone()
				if err := cfg.Set(key, value); err != nil {
					return NewValidationErrorWithExample("key", key, err.Error(), "evo config set chat.markdown false")
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				path, err := configPath()
				if err != nil {
					return err
				}
				if err := config.SaveTOML(cfg, path); err != nil {
					return errors.Wrap(err, "save configuration")
				}
				log.WithFields(log.Fields{"key": key, "path": path}).Info("configuration updated")
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the configuration file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := configPath()
				if err != nil {
					return err
				}
				if opts.JSON {
					return printJSON(cmd.OutOrStdout(), "config path", map[string]string{"path": path})
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
		reset,
	)
	return cmd
}

// showConfig prints every key grouped by section.
func showConfig(out io.Writer, app *App, opts *Options) error {
	cfg := app.Config
	if opts.JSON {
		return printJSON(out, "config show", cfg)
	}

	fmt.Fprintln(out, TitleStyle.Render("evo configuration"))
	section := ""
	for _, key := range config.GetAllKeys() {
		head, name, _ := strings.Cut(key, ".")
		if head != section {
			section = head
			fmt.Fprintln(out)
			fmt.Fprintln(out, SectionStyle.Render("["+section+"]"))
		}
		v, err := cfg.Get(key)
		if err != nil {
			continue
		}
		value := fmt.Sprint(v)
		if value == "" {
			value = DimStyle.Render("(default)")
		}
		fmt.Fprintln(out, RenderField(name, value))
	}

	path := opts.ConfigPath
	if path == "" {
		path, _ = config.ConfigPath()
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, RenderSeparator())
	fmt.Fprintf(out, "Config file: %s\n", path)
	return nil
}
