/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/vaultpub/internal/gitctx"
	"github.com/fulmenhq/vaultpub/pkg/ascii"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the branch, head and pending changes of the target repository",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().String("format", formatPretty, "Output format (pretty|json|yaml)")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cc, err := gitctx.Inspect(cfg.Publish.Root)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	return writeFormatted(cmd.OutOrStdout(), format, cc, func(w io.Writer) error {
		branch, head := cc.Branch, cc.GitSHA
		if branch == "" {
			branch = "(no commits)"
		}
		if len(head) > 12 {
			head = head[:12]
		}
		lines := []string{
			"Target:  " + cc.Root,
			"Branch:  " + branch,
			"Head:    " + head,
			fmt.Sprintf("Pending: %d", len(cc.ModifiedFiles)),
		}
		for _, f := range cc.ModifiedFiles {
			lines = append(lines, "  "+f)
		}
		_, err := io.WriteString(w, ascii.Box(lines))
		return err
	})
}
