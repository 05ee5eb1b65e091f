package main

import (
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/markpeek/remotes"
	"github.com/markpeek/remotes/config"
)

func buildRootCommand() *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "markpeek-remotes",
		Short: "Remote repository connector for the MarkPeek viewer",
		Long: `Connects the MarkPeek Markdown viewer to remote Git repositories on
GitHub and Azure DevOps without a local clone.

Repositories are browsed through the provider REST APIs: branch listings,
file trees and file contents are fetched on demand and trees are cached
per branch. Credentials (OAuth device flow tokens or personal access
tokens) are encrypted at rest.

Usage modes:
  markpeek-remotes serve                 Run the local bridge the viewer talks to
  markpeek-remotes connect <url>         Connect a repository from the terminal
  markpeek-remotes login                 Sign in to GitHub via the device flow`,
		Args: cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, _ []string) {
			if verbose, _ := command.Flags().GetBool("verbose"); verbose {
				logger.SetLevel(logger.DebugLevel)
			}
		},
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *remotes.AppContext) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			Run:   controller.Execute,
		}

		controller.AddFlags(subCmd)
		rootCmd.AddCommand(subCmd)
	}
}

// applyConfigFlag pre-scans the arguments for --config/-c and hands the
// path to the container through the environment. Settings are resolved
// while the container is built, before cobra parses any flags.
func applyConfigFlag(args []string) {
	for i, arg := range args {
		switch {
		case arg == "--config" || arg == "-c":
			if i+1 < len(args) {
				_ = os.Setenv(config.ConfigPathEnvVar, args[i+1])
			}
		case strings.HasPrefix(arg, "--config="):
			_ = os.Setenv(config.ConfigPathEnvVar, strings.TrimPrefix(arg, "--config="))
		}
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	applyConfigFlag(os.Args[1:])

	// Inject the wired application via DIG
	appContext := injectAppContext()
	cobraRoot := buildRootCommand()
	addSubcommands(cobraRoot, appContext)

	if err := cobraRoot.Execute(); err != nil {
		logger.Fatalf("Error executing 'markpeek-remotes': %s", err)
	}
}
