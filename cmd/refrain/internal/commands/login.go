package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

type LoginCmd struct {
	Email    string `arg:"" help:"Account email."`
	Password string `help:"Account password." env:"REFRAIN_PASSWORD" required:""`
}

func (l *LoginCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals.Config)
	if err != nil {
		return err
	}
	defer app.Close()

	sess, err := app.store.SignIn(ctx, l.Email, l.Password)
	if err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}

	log.Debug().Str("user_id", sess.UserID).Msg("session established")

	fmt.Printf("Signed in as %s\n", l.Email)

	return nil
}

type LogoutCmd struct{}

func (l *LogoutCmd) Run(ctx context.Context, globals *Globals) error {
	app, err := newApp(globals.Config)
	if err != nil {
		return err
	}
	defer app.Close()

	// Local state is cleared even when remote revocation fails; the user
	// is signed out either way.
	if err := app.store.SignOut(ctx); err != nil {
		log.Warn().Err(err).Msg("remote sign-out failed")
	}

	fmt.Println("Signed out")

	return nil
}
