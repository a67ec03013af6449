package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/refrainhq/refrain-cli/internal/dashboard"
	"github.com/refrainhq/refrain-cli/internal/guard"
	"github.com/refrainhq/refrain-cli/internal/handoff"
	"github.com/refrainhq/refrain-cli/internal/nav"
)

// guardedPath is the canonical dashboard location the handoff handler
// scrubs the URL back to.
const guardedPath = "/dashboard"

type DashboardCmd struct {
	Link string `help:"Deep link to open, as delivered by the invite email." default:"/dashboard"`
}

func (d *DashboardCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals.Config)
	if err != nil {
		return err
	}
	defer app.Close()

	surface, err := nav.NewHistory(d.Link)
	if err != nil {
		return err
	}

	handler := handoff.New(app.store, surface, guardedPath)
	view := dashboard.New(app.api, app.store, dashboard.Config{
		EnableCallInitiation: app.cfg.Features.CallInitiation,
	})

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var lastReason guard.PendingReason

	// Render loop: each pass is a render opportunity. The loop runs until
	// the guard settles on content or a redirect.
	for {
		handler.Detect(ctx)

		_, present := app.store.Current()
		decision, reason := guard.Decide(guard.Inputs{
			Bootstrap:      app.store.Bootstrap(),
			Handoff:        handler.State(),
			TokenInURL:     handoff.TokenInURL(surface.Current()),
			SessionPresent: present,
		})

		switch decision {
		case guard.ShowPending:
			if reason != lastReason {
				fmt.Println(reason.String())
				lastReason = reason
			}

		case guard.RedirectToLogin:
			surface.Replace("/login")
			if handler.Err() != nil {
				fmt.Println("Failed to authenticate. Please sign in manually.")
			}
			fmt.Println("You are signed out. Run `refrain login` to sign in.")
			return nil

		case guard.RenderContent:
			view.Sync(ctx)
			if snap := view.Snapshot(); !snap.Loading {
				dashboard.Render(os.Stdout, snap)
				return nil
			}
		}

		select {
		case <-app.store.Notify():
		case <-handler.Notify():
		case <-view.Notify():
		case <-time.After(250 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
