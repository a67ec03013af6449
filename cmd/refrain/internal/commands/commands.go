package commands

import (
	"context"
	"errors"

	"github.com/refrainhq/refrain-cli/internal/api"
	"github.com/refrainhq/refrain-cli/internal/config"
	"github.com/refrainhq/refrain-cli/internal/identity"
	"github.com/refrainhq/refrain-cli/internal/session"
)

type Globals struct {
	Debug   bool
	Version string
	Config  string
}

// app wires the client core for a command invocation: config, identity
// provider, session store and REST client.
type app struct {
	cfg      config.Config
	provider *identity.HTTPProvider
	store    *session.Store
	api      *api.Client
}

func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	provider, err := identity.NewHTTPProvider(identity.Config{
		BaseURL:     cfg.Auth.URL,
		SessionFile: cfg.Auth.SessionFile,
	})
	if err != nil {
		return nil, err
	}

	store := session.New(provider)

	client, err := api.New(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Tokens:  store,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &app{cfg: cfg, provider: provider, store: store, api: client}, nil
}

// Close releases the store's provider subscription.
func (a *app) Close() {
	a.store.Close()
}

// waitForSession blocks until the bootstrap resolves, then requires a
// signed-in session.
func waitForSession(ctx context.Context, store *session.Store) error {
	for store.Bootstrap() == session.BootstrapPending {
		select {
		case <-store.Notify():
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if _, ok := store.Current(); !ok {
		return errors.New("not signed in, run `refrain login` first")
	}

	return nil
}
