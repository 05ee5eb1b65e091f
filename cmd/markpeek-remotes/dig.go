package main

import (
	"go.uber.org/dig"

	"github.com/markpeek/remotes"
)

func injectAppContext() *remotes.AppContext {
	container := dig.New()

	// Register all providers
	if err := remotes.RegisterProviders(container); err != nil {
		panic(err)
	}

	// Invoke to get the app context
	var appContext *remotes.AppContext
	if err := container.Invoke(func(ac *remotes.AppContext) {
		appContext = ac
	}); err != nil {
		panic(err)
	}

	return appContext
}
