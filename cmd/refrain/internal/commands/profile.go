package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/refrainhq/refrain-cli/internal/dashboard"
)

type ProfileCmd struct {
	Name     string `help:"Participant name."`
	Email    string `help:"Contact email."`
	Notes    string `help:"Recovery notes."`
	CallTime string `help:"Preferred call time: morning, afternoon or evening."`
}

func (p *ProfileCmd) Run(ctx context.Context, globals *Globals) error {
	if p.CallTime != "" && p.CallTime != "morning" && p.CallTime != "afternoon" && p.CallTime != "evening" {
		return fmt.Errorf("invalid call time %q", p.CallTime)
	}

	app, err := newApp(globals.Config)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := waitForSession(ctx, app.store); err != nil {
		return err
	}

	view := dashboard.New(app.api, app.store, dashboard.Config{})
	if err := loadView(ctx, view); err != nil {
		return err
	}

	view.BeginEdit()

	snap := view.Snapshot()
	form := snap.Form
	if p.Name != "" {
		form.ParticipantName = p.Name
	}
	if p.Email != "" {
		form.Email = p.Email
	}
	if p.Notes != "" {
		form.RecoveryNotes = p.Notes
	}
	if p.CallTime != "" {
		form.PreferredCallTime = p.CallTime
	}
	view.SetForm(form)

	if err := view.Save(ctx); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	updated := view.Snapshot().Profile
	fmt.Printf("Profile saved: %s <%s>, preferred call time %s\n",
		updated.ParticipantName, updated.Email, updated.PreferredCallTime)

	return nil
}

// loadView arms the view's one-shot load and waits for it to settle.
func loadView(ctx context.Context, view *dashboard.View) error {
	view.Sync(ctx)

	for {
		snap := view.Snapshot()
		if !snap.Loading {
			if snap.ProfileErr != "" {
				return errors.New(snap.ProfileErr)
			}
			return nil
		}

		select {
		case <-view.Notify():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
