// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// VersionInfo describes the build.
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string `json:"buildDate" yaml:"buildDate"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
}

// GetVersion returns the build information.
func GetVersion() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// noApp replaces the root pre-run for commands that need no configuration
// or session.
func noApp(cmd *cobra.Command, args []string) error { return nil }

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "version",
		Short:             "Report version information for evo",
		Args:              cobra.NoArgs,
		PersistentPreRunE: noApp,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := GetVersion()
			const flag = "output"
			of, err := cmd.Flags().GetString(flag)
			if err != nil {
				return errors.Wrapf(err, "error accessing flag %s for command %s", flag, cmd.Name())
			}
			out := cmd.OutOrStdout()
			switch of {
			case "":
				fmt.Fprintf(out, "evo %s built from %s (%s)\n", v.Version, v.GitCommit, v.BuildDate)
			case "short":
				fmt.Fprintln(out, v.Version)
			case "yaml":
				y, err := yaml.Marshal(&v)
				if err != nil {
					return err
				}
				fmt.Fprint(out, string(y))
			case "json":
				j, err := json.MarshalIndent(&v, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(j))
			default:
				return NewValidationErrorWithExample("--output", of, "invalid output format", "-o yaml")
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "Output format; available options are 'yaml', 'json' and 'short'")
	return cmd
}
