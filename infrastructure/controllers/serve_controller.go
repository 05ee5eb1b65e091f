package controllers

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/markpeek/remotes/application"
	"github.com/markpeek/remotes/config"
	"github.com/markpeek/remotes/infrastructure/bridge"
)

// ServeController handles the "serve" subcommand: the long-running bridge
// process the viewer UI talks to.
type ServeController struct {
	settings *config.Settings
	server   *bridge.Server
	monitor  *application.ConnectivityMonitor
}

// NewServeController creates a new ServeController.
func NewServeController(
	settings *config.Settings,
	server *bridge.Server,
	monitor *application.ConnectivityMonitor,
) *ServeController {
	return &ServeController{settings: settings, server: server, monitor: monitor}
}

// GetBind returns the Cobra command metadata for the serve controller.
func (it *ServeController) GetBind() ControllerBind {
	return ControllerBind{
		Use:   "serve",
		Short: "Run the local bridge the viewer UI talks to",
		Long: `Start the HTTP bridge on the configured loopback address and keep it
running until interrupted.

The bridge exposes the repository connector as JSON endpoints: connecting
repositories, browsing branch trees, reading files, and driving the GitHub
device sign-in. A background watcher probes provider reachability on the
configured interval.`,
	}
}

// Execute runs the bridge until SIGINT or SIGTERM.
func (it *ServeController) Execute(_ *cobra.Command, _ []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go it.monitor.Watch(ctx, it.settings.ConnectivityInterval())

	if err := it.server.Run(ctx); err != nil {
		logger.Errorf("Bridge failed: %v", err)
	}
}

// AddFlags adds the serve-specific flags to the given Cobra command.
func (it *ServeController) AddFlags(_ *cobra.Command) {}
