/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/vaultpub/pkg/buildinfo"
)

type versionInfo struct {
	Version       string `json:"version" yaml:"version"`
	ModuleVersion string `json:"moduleVersion,omitempty" yaml:"moduleVersion,omitempty"`
	GoVersion     string `json:"goVersion" yaml:"goVersion"`
	Platform      string `json:"platform" yaml:"platform"`
	Arch          string `json:"arch" yaml:"arch"`
}

func newVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show vaultpub version information",
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
	cmd.Flags().Bool("extended", false, "Show build details")
	cmd.Flags().String("format", formatPretty, "Output format (pretty|json|yaml)")
	return cmd
}

func runVersion(cmd *cobra.Command, _ []string) error {
	extended, _ := cmd.Flags().GetBool("extended")
	format, _ := cmd.Flags().GetString("format")

	info := versionInfo{
		Version:       buildinfo.Version(),
		ModuleVersion: buildinfo.ModuleVersion(),
		GoVersion:     runtime.Version(),
		Platform:      runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	return writeFormatted(cmd.OutOrStdout(), format, info, func(w io.Writer) error {
		if _, err := fmt.Fprintf(w, "vaultpub %s\n", info.Version); err != nil {
			return err
		}
		if !extended {
			return nil
		}
		if info.ModuleVersion != "" {
			if _, err := fmt.Fprintf(w, "Module: %s\n", info.ModuleVersion); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "Go: %s\nPlatform: %s/%s\n", info.GoVersion, info.Platform, info.Arch)
		return err
	})
}
