package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/refrainhq/refrain-cli/cmd/refrain/internal/commands"
	"github.com/refrainhq/refrain-cli/internal/logger"
)

var (
	version = "dev"
	cli     struct {
		Login       commands.LoginCmd       `cmd:"" help:"Sign in with email and password"`
		Logout      commands.LogoutCmd      `cmd:"" help:"Sign out"`
		Dashboard   commands.DashboardCmd   `cmd:"" help:"Show your profile and call history"`
		Profile     commands.ProfileCmd     `cmd:"" help:"Update your profile"`
		Call        commands.CallCmd        `cmd:"" help:"Ask Sia to call you now"`
		Transcripts commands.TranscriptsCmd `cmd:"" help:"Show a call's transcript"`
		Config      string                  `help:"Config file path." env:"REFRAIN_CONFIG" type:"path"`
		Debug       bool                    `help:"Enable debug mode."`
		Version     kong.VersionFlag
	}
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version, Config: cli.Config})
	cmd.FatalIfErrorf(err)
}
