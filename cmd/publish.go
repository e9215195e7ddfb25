/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fulmenhq/vaultpub/internal/corpus"
	"github.com/fulmenhq/vaultpub/internal/gitctx"
	"github.com/fulmenhq/vaultpub/internal/publish"
	"github.com/fulmenhq/vaultpub/pkg/config"
	"github.com/fulmenhq/vaultpub/pkg/exitcode"
	"github.com/fulmenhq/vaultpub/pkg/logger"
)

func newPublishCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish every note marked with publish: true",
		Long: `Publish selects every note whose leading frontmatter block contains
"publish: true" (or "publish:true"), copies it into publish.folder under the
target root, copies every embedded asset into publish.assets_folder, and then
commits the target working tree once.

Missing assets are reported but never stop a note from being published.
Files already present in the target are overwritten and never deleted.`,
		Args: cobra.NoArgs,
		RunE: runPublishAll,
	}
	addPublishFlags(cmd)
	cmd.AddCommand(newPublishOneCommand())
	return cmd
}

func newPublishOneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "one <note>",
		Short: "Publish a single note, offering to add the publish flag",
		Long: `Publish one note given by its path relative to the vault. When the note
is not flagged yet, vaultpub asks before adding "publish: true" to its
frontmatter; declining leaves both the vault and the target untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: runPublishOne,
	}
	addPublishFlags(cmd)
	cmd.Flags().BoolP("yes", "y", false, "Add the publish flag without asking")
	return cmd
}

func addPublishFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", formatPretty, "Report format (pretty|json|yaml)")
	cmd.Flags().Int("workers", 0, "Notes mirrored concurrently (overrides publish.workers)")
	cmd.Flags().Bool("no-commit", false, "Mirror files but do not commit")
	cmd.Flags().String("message", "", "Commit message template (overrides publish.commit_message)")
}

func runPublishAll(cmd *cobra.Command, _ []string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	res, err := p.PublishAll(cmd.Context())
	if err != nil {
		return err
	}
	return reportPublish(cmd, res)
}

func runPublishOne(cmd *cobra.Command, args []string) error {
	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}

	var confirmer publish.Confirmer
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		confirmer = publish.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	} else {
		confirmer = &promptConfirmer{in: cmd.InOrStdin(), out: cmd.ErrOrStderr()}
	}

	res, err := p.PublishOne(cmd.Context(), args[0], confirmer)
	if err != nil {
		return err
	}
	if res.Aborted {
		return withExitCode(exitcode.Aborted, fmt.Errorf("publishing %s cancelled", args[0]))
	}
	return reportPublish(cmd, res)
}

// newPipeline builds the publish pipeline from the effective configuration.
// Configuration is validated before the vault or target is touched.
func newPipeline(cmd *cobra.Command) (*publish.Pipeline, error) {
	cfg, err := loadConfig(cmd, map[string]*pflag.Flag{
		"publish.workers":        cmd.Flags().Lookup("workers"),
		"publish.commit_message": cmd.Flags().Lookup("message"),
	})
	if err != nil {
		return nil, err
	}
	if noCommit, _ := cmd.Flags().GetBool("no-commit"); noCommit {
		cfg.Publish.AutoCommit = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	vault, err := corpus.NewFS(cfg.Vault, corpusOptions(cfg))
	if err != nil {
		return nil, err
	}

	noOp, _ := cmd.Flags().GetBool("no-op")
	log := logger.Default().With("publish")
	log.Debug("Loaded configuration",
		logger.String("vault", vault.Root()),
		logger.String("root", cfg.Publish.Root),
		logger.Int("workers", cfg.Publish.Workers),
		logger.Bool("auto_commit", cfg.Publish.AutoCommit))

	return publish.New(*cfg, vault, newCommitter(cfg),
		publish.WithLogger(log),
		publish.WithDryRun(noOp),
		publish.WithNotifier(publish.NotifyFunc(func(msg string) {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), msg)
		})),
	), nil
}

// corpusOptions keeps the target tree out of the corpus when it lies inside
// the vault. The folders are listed too for a root equal to the vault.
func corpusOptions(cfg *config.Config) corpus.FSOptions {
	opts := corpus.FSOptions{
		Ignore:  cfg.Ignore,
		Include: cfg.Publish.Include,
		Exclude: cfg.Publish.Exclude,
	}
	if filepath.IsAbs(cfg.Publish.Root) {
		opts.Skip = []string{cfg.Publish.Root, cfg.PublishDir(), cfg.AssetsDir()}
	}
	return opts
}

func newCommitter(cfg *config.Config) publish.Committer {
	if !cfg.Publish.AutoCommit {
		return nil
	}
	return gitctx.NewDeferredCommitter(cfg.Git.Backend, cfg.Publish.Root, cfg.Publish.CommitMessage,
		gitctx.WithAuthor(gitctx.Signature{Name: cfg.Git.AuthorName, Email: cfg.Git.AuthorEmail}))
}

// reportPublish prints the batch report and maps failures to exit codes.
func reportPublish(cmd *cobra.Command, res *publish.Result) error {
	format, _ := cmd.Flags().GetString("format")
	if err := writeFormatted(cmd.OutOrStdout(), format, res, func(w io.Writer) error {
		return printPublishResult(w, res)
	}); err != nil {
		return err
	}

	switch {
	case res.Commit.Outcome == gitctx.Failed:
		return withExitCode(exitcode.CommitError, res.Commit.Err)
	case res.PartialFailure():
		return withExitCode(exitcode.PartialFailure,
			fmt.Errorf("%d notes and %d assets failed to publish", res.Failed, res.AssetsFailed))
	}
	return nil
}

func printPublishResult(w io.Writer, res *publish.Result) error {
	for _, rep := range res.Documents {
		status := "ok"
		if rep.Failed() {
			status = "FAIL"
		}
		if _, err := fmt.Fprintf(w, "%-4s  %s -> %s\n", status, rep.Document, rep.Target); err != nil {
			return err
		}
		for _, a := range rep.Assets {
			mark := "+"
			if a.Err != nil {
				mark = "!"
			}
			if _, err := fmt.Fprintf(w, "      %s %s -> %s\n", mark, a.Source, a.Target); err != nil {
				return err
			}
		}
	}
	for _, d := range res.Diagnostics {
		if _, err := fmt.Fprintf(w, "%s: %s\n", d.Kind, d.Message); err != nil {
			return err
		}
	}
	if res.Commit.Outcome == gitctx.Committed {
		if _, err := fmt.Fprintf(w, "commit %s %q\n", res.Commit.Hash, res.Commit.Message); err != nil {
			return err
		}
	}
	return nil
}

// promptConfirmer asks on out and reads a y/N answer from in.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c *promptConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprintf(c.out, "%s [y/N]: ", prompt); err != nil {
		return false, err
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
