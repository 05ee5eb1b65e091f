package controllers

import (
	"fmt"
	"time"

	"github.com/fatih/color"

	"github.com/markpeek/remotes/domain"
)

// ColorPrompter prints device authorization instructions to the terminal.
// It never blocks; the caller keeps polling while the user works through
// the verification page.
type ColorPrompter struct{}

// NewColorPrompter creates a terminal prompter.
func NewColorPrompter() *ColorPrompter {
	return &ColorPrompter{}
}

func (p *ColorPrompter) PromptDeviceAuthorization(session domain.DeviceFlowSession) {
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan)

	fmt.Println()
	fmt.Print("Open ")
	cyan.Print(session.VerificationURI)
	fmt.Print(" and enter the code ")
	bold.Println(session.UserCode)
	fmt.Printf("The code expires at %s.\n\n", session.ExpiresAt.Format(time.Kitchen))
}
