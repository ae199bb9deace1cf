package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"finance-tracker/internal/client"
	"finance-tracker/internal/config"
	"finance-tracker/internal/session"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// app holds what every command needs
type app struct {
	cfg     *config.ClientConfig
	api     *client.Client
	backend session.API
	in      io.Reader
	out     io.Writer
	logger  *slog.Logger
	now     func() time.Time
}

var cli struct {
	API     string `help:"Backend base URL. Defaults to FINANCE_API_URL."`
	Verbose bool   `short:"v" help:"Log session events to stderr."`

	Shell         shellCmd         `cmd:"" help:"Start an interactive session."`
	Register      registerCmd      `cmd:"" help:"Create an account."`
	RequestReset  requestResetCmd  `cmd:"" help:"Ask for a password reset token."`
	ResetPassword resetPasswordCmd `cmd:"" help:"Set a new password with a reset token."`
	Export        exportCmd        `cmd:"" help:"Write the filtered and sorted transactions as CSV."`
	Summary       summaryCmd       `cmd:"" help:"Print totals and the category breakdown."`
}

func main() {
	_ = godotenv.Load()

	ctx := kong.Parse(&cli,
		kong.Name("fintrack"),
		kong.Description("Personal finance tracker client."),
	)

	cfg := config.LoadClient()
	if cli.API != "" {
		cfg.APIBaseURL = cli.API
	}

	level := slog.LevelWarn
	if cli.Verbose {
		level = slog.LevelDebug
	}

	api := client.New(cfg.APIBaseURL, client.WithTimeout(cfg.RequestTimeout))
	a := &app{
		cfg:     cfg,
		api:     api,
		backend: api,
		in:      os.Stdin,
		out:     os.Stdout,
		logger:  slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})),
		now:     time.Now,
	}

	ctx.FatalIfErrorf(ctx.Run(a))
}

func (a *app) newSession(onEnd func(session.Reason)) *session.Session {
	return session.New(a.backend, session.Config{
		IdleTimeout:        a.cfg.IdleTimeout,
		RecurrenceInterval: a.cfg.RecurrenceInterval,
		BudgetThreshold:    a.cfg.BudgetThreshold,
		OnEnd:              onEnd,
		Now:                a.now,
		Logger:             a.logger,
	})
}
