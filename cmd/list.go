/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fulmenhq/vaultpub/internal/assets"
	"github.com/fulmenhq/vaultpub/internal/corpus"
	"github.com/fulmenhq/vaultpub/internal/frontmatter"
	"github.com/fulmenhq/vaultpub/pkg/ascii"
	"github.com/fulmenhq/vaultpub/pkg/logger"
)

// listEntry is one row of `vaultpub list`.
type listEntry struct {
	Path        string   `json:"path" yaml:"path"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Publishable bool     `json:"publishable" yaml:"publishable"`
	Assets      int      `json:"assets" yaml:"assets"`
	Missing     []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

func newListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes marked for publishing and the assets they embed",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	cmd.Flags().String("format", formatPretty, "Output format (pretty|json|yaml)")
	cmd.Flags().Bool("all", false, "Include notes without the publish flag")
	cmd.Flags().Int("width", 48, "Maximum column width in pretty output (0 = unlimited)")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	vault, err := corpus.NewFS(cfg.Vault, corpusOptions(cfg))
	if err != nil {
		return err
	}
	all, _ := cmd.Flags().GetBool("all")

	entries, err := collectEntries(vault, all)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	width, _ := cmd.Flags().GetInt("width")
	return writeFormatted(cmd.OutOrStdout(), format, entries, func(w io.Writer) error {
		return printEntries(w, entries, all, width)
	})
}

func collectEntries(vault corpus.Reader, all bool) ([]listEntry, error) {
	docs, err := vault.Documents()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	files, err := vault.Files()
	if err != nil {
		return nil, fmt.Errorf("list corpus files: %w", err)
	}
	resolver := assets.NewResolver(assets.NewIndex(files))

	entries := make([]listEntry, 0, len(docs))
	for _, d := range docs {
		text, err := vault.ReadDocument(d.Path)
		if err != nil {
			logger.Warn("Skipping unreadable document", logger.String("document", d.Path), logger.Err(err))
			continue
		}
		publishable := frontmatter.IsPublishable(text)
		if !publishable && !all {
			continue
		}

		entry := listEntry{Path: d.Path, Publishable: publishable}
		if meta, err := frontmatter.ParseMetadata(text); err != nil {
			logger.Debug("Frontmatter is not valid YAML", logger.String("document", d.Path), logger.Err(err))
		} else {
			entry.Title = meta.Title
			entry.Tags = []string(meta.Tags)
		}
		resolved, missing := resolver.Resolve(d.Path, text)
		entry.Assets = len(resolved)
		for _, m := range missing {
			entry.Missing = append(entry.Missing, m.Reference.Target)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func printEntries(w io.Writer, entries []listEntry, all bool, width int) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No notes are marked for publishing.")
		return err
	}

	header := []string{"PATH", "TITLE", "TAGS", "ASSETS", "MISSING"}
	if all {
		header = append([]string{"PUBLISH"}, header...)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := []string{e.Path, e.Title, strings.Join(e.Tags, ","), strconv.Itoa(e.Assets), strings.Join(e.Missing, ",")}
		if all {
			mark := "no"
			if e.Publishable {
				mark = "yes"
			}
			row = append([]string{mark}, row...)
		}
		rows = append(rows, row)
	}
	_, err := io.WriteString(w, ascii.Table(header, rows, width))
	return err
}
