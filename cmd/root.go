/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fulmenhq/vaultpub/internal/corpus"
	"github.com/fulmenhq/vaultpub/internal/ops"
	"github.com/fulmenhq/vaultpub/internal/publish"
	"github.com/fulmenhq/vaultpub/pkg/buildinfo"
	"github.com/fulmenhq/vaultpub/pkg/config"
	"github.com/fulmenhq/vaultpub/pkg/exitcode"
	"github.com/fulmenhq/vaultpub/pkg/logger"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vaultpub",
		Short: "Publish flagged notes from a vault into a git-tracked site",
		Long: `Vaultpub mirrors every note whose frontmatter contains "publish: true",
together with the images and attachments it embeds, into a git working tree
and records the result as a single commit.

Examples:
   vaultpub publish                      # Publish all flagged notes
   vaultpub publish one notes/idea.md    # Publish one note, adding the flag if needed
   vaultpub list                         # Show flagged notes and their assets
   vaultpub status                       # Show the target repository state
   vaultpub config show --format toml    # Show the effective configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Select and resolve only; write, mutate and commit nothing")
	cmd.PersistentFlags().String("config", "", "Config file (default: vaultpub.yaml in ., $HOME or $VAULTPUB_HOME/config)")
	cmd.PersistentFlags().String("vault", "", "Vault directory to publish from (overrides vault)")
	cmd.PersistentFlags().String("root", "", "Absolute path of the target git working tree (overrides publish.root)")

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("vaultpub {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	reg := ops.NewRegistry()
	for _, sub := range []struct {
		group ops.CommandGroup
		cmd   *cobra.Command
	}{
		{ops.GroupPublish, newPublishCommand()},
		{ops.GroupInspect, newListCommand()},
		{ops.GroupInspect, newStatusCommand()},
		{ops.GroupSupport, newConfigCommand()},
		{ops.GroupSupport, newVersionCommand()},
	} {
		cmd.AddCommand(sub.cmd)
		if err := reg.Register(sub.group, sub.cmd); err != nil {
			panic(fmt.Sprintf("Failed to register %s command: %v", sub.cmd.Name(), err))
		}
	}

	// Grouped help on the root; subcommands keep the standard layout.
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		if c.HasParent() {
			if c.Long != "" {
				c.Println(c.Long)
			} else {
				c.Println(c.Short)
			}
			c.Println()
			c.Print(c.UsageString())
			return
		}
		c.Println(c.Long)
		c.Println()
		_ = reg.WriteHelp(c.OutOrStdout())
		c.Print(c.UsageString())
	})
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

func init() {
	registerSubcommands(rootCmd)
}

// Execute runs the root command and exits with the code matching the error.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	code := exitCodeFor(err)
	if code == exitcode.Aborted {
		logger.Info(err.Error())
	} else {
		logger.Error("Command execution failed", logger.Err(err), logger.String("exit", exitcode.String(code)))
	}
	os.Exit(code)
}

// exitError carries a specific exit code through cobra's error return.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

func exitCodeFor(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &ee):
		return ee.code
	case config.IsValidationError(err):
		return exitcode.ConfigError
	case errors.Is(err, publish.ErrDocumentNotFound), errors.Is(err, corpus.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return exitcode.FileSystemError
	default:
		return exitcode.GeneralError
	}
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")

	cfg := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "vaultpub",
		NoOp:      noOp,
	}

	if err := logger.Initialize(cfg); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Failed to initialize logger: "+err.Error())
		os.Exit(exitcode.ConfigError)
	}
	logger.SetOutput(cmd.ErrOrStderr())
}

// loadConfig resolves the effective configuration for cmd. Flags the user
// changed win over env, project and global config files.
func loadConfig(cmd *cobra.Command, extra map[string]*pflag.Flag) (*config.Config, error) {
	file, _ := cmd.Flags().GetString("config")
	flags := map[string]*pflag.Flag{
		"vault":        cmd.Flag("vault"),
		"publish.root": cmd.Flag("root"),
	}
	for key, f := range extra {
		flags[key] = f
	}
	return config.LoadConfig(config.LoadOptions{File: file, Flags: flags})
}
