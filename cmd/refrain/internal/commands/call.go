package commands

import (
	"context"
	"fmt"

	"github.com/refrainhq/refrain-cli/internal/dashboard"
)

type CallCmd struct{}

func (c *CallCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals.Config)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := waitForSession(ctx, app.store); err != nil {
		return err
	}

	view := dashboard.New(app.api, app.store, dashboard.Config{
		EnableCallInitiation: app.cfg.Features.CallInitiation,
	})
	if err := loadView(ctx, view); err != nil {
		return err
	}

	if err := view.InitiateCall(ctx); err != nil {
		return err
	}

	fmt.Println("Call requested. Sia will ring you shortly.")

	return nil
}

type TranscriptsCmd struct {
	CallID string `arg:"" help:"Call id."`
}

func (t *TranscriptsCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals.Config)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := waitForSession(ctx, app.store); err != nil {
		return err
	}

	transcripts, err := app.api.Transcripts(ctx, t.CallID)
	if err != nil {
		return err
	}

	if len(transcripts) == 0 {
		fmt.Println("No transcript for this call.")
		return nil
	}

	for _, tr := range transcripts {
		fmt.Printf("[%s] %s: %s\n", tr.CreatedAt.Format("15:04:05"), tr.Speaker, tr.Content)
	}

	return nil
}
