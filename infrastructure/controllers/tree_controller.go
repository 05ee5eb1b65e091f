package controllers

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/domain"
)

// TreeController handles the "tree" subcommand.
type TreeController struct {
	connector *application.Connector
}

// NewTreeController creates a new TreeController.
func NewTreeController(connector *application.Connector) *TreeController {
	return &TreeController{connector: connector}
}

// GetBind returns the Cobra command metadata for the tree controller.
func (it *TreeController) GetBind() ControllerBind {
	return ControllerBind{
		Use:   "tree <repository-id>",
		Short: "Print the file tree of a connected repository branch",
		Long: `Fetch the file tree of a branch and print it indented. Trees are
served from the per-branch cache when available; --refresh forces a new
fetch. The repository id is the one printed by connect, for example
github:acme/docs#main.`,
	}
}

// Execute prints the tree of the requested branch.
func (it *TreeController) Execute(cmd *cobra.Command, args []string) {
	if len(args) == 0 {
		logger.Error("a repository id is required")
		return
	}

	branch, _ := cmd.Flags().GetString("branch")
	markdownOnly, _ := cmd.Flags().GetBool("markdown-only")
	refresh, _ := cmd.Flags().GetBool("refresh")

	id := domain.RepositoryID(args[0])
	fetch := it.connector.FetchTree
	if refresh {
		fetch = it.connector.RefreshTree
	}

	result, err := fetch(context.Background(), id, branch, markdownOnly)
	if err != nil {
		logger.Errorf("Tree failed: %v", err)
		return
	}

	files := printNodes(result.Nodes, "")
	if result.FromCache {
		fmt.Printf("\n%d files (cached, fetched %s)\n", files, result.FetchedAt.Format("15:04:05"))
		return
	}
	fmt.Printf("\n%d files\n", files)
}

// printNodes walks the forest depth-first and returns the file count.
func printNodes(nodes []*domain.TreeNode, indent string) int {
	cyan := color.New(color.FgCyan)
	files := 0
	for _, node := range nodes {
		if node.Type == domain.NodeTypeDirectory {
			cyan.Printf("%s%s/\n", indent, node.Name)
			files += printNodes(node.Children, indent+"  ")
			continue
		}
		fmt.Printf("%s%s\n", indent, node.Name)
		files++
	}
	return files
}

// AddFlags adds the tree-specific flags to the given Cobra command.
func (it *TreeController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("branch", "", "Branch to list (default: the branch in the repository id)")
	cmd.Flags().Bool("markdown-only", false, "Only Markdown files and the directories holding them")
	cmd.Flags().Bool("refresh", false, "Drop the cached tree and fetch a fresh one")
}
