package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/chuck-h/rainbow-go/internal/lib/misc"
	"github.com/chuck-h/rainbow-go/internal/lib/rainbow"
	"github.com/chuck-h/rainbow-go/internal/lib/simhost"
)

var logLevel = new(slog.LevelVar) // Info by default

func initApp() *RainbowApp {
	log.SetFlags(0)
	var logger *slog.Logger
	if term.IsTerminal(int(os.Stdout.Fd())) {
		// Output is a tty - so we're being run as CLI vs as a daemon
		logger = slog.New(misc.NewMinimalHandler(os.Stdout,
			misc.MinimalHandlerOptions{SlogOpts: slog.HandlerOptions{Level: logLevel, AddSource: true}}))
	} else {
		// not on console - output as json, with key names compatible with
		// what google logging expects
		opts := &slog.HandlerOptions{
			AddSource: true,
			Level:     logLevel,
			ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
				if a.Key == slog.MessageKey {
					a.Key = "message"
				} else if a.Key == slog.LevelKey && len(groups) == 0 {
					a.Key = "severity"
				}
				return a
			},
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)
	if os.Getenv("DEBUG") == "1" {
		logLevel.Set(slog.LevelDebug)
	}

	misc.LoadEnvSettings()

	// We initialize our wrapper instance first, so we can call its methods in
	// the 'Before' lambda func in initialization of the cli Command instance.
	appConfig := &RainbowApp{logger: logger}

	appConfig.cliCmd = &cli.Command{
		Name:    "rainbow ledger",
		Usage:   "Configuration tool and background daemon for stake-backed rainbow tokens",
		Version: misc.GetVersionInfo(),
		Before: func(ctx context.Context, cmd *cli.Command) error {
			// Further bootstrap of the 'app' but within context of 'cli'
			// helper as it has access to flags and options already set.
			return appConfig.initLedger(ctx, cmd)
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "envfile",
				Usage:   "env file to load",
				Sources: cli.EnvVars("RAINBOW_ENVFILE"),
				Aliases: []string{"e"},
			},
			&cli.StringFlag{
				Name:    "network",
				Usage:   "named environment to load .env.{network} settings for",
				Value:   "local",
				Aliases: []string{"n"},
				Sources: cli.EnvVars("RAINBOW_NETWORK"),
			},
			&cli.StringFlag{
				Name:    "self",
				Usage:   "account name the ledger contract runs as",
				Value:   "rainbo.token",
				Sources: cli.EnvVars("RAINBOW_SELF"),
			},
			&cli.StringFlag{
				Name:    "fixture",
				Usage:   "chain fixture file describing accounts, signers and collateral balances",
				Sources: cli.EnvVars("RAINBOW_FIXTURE"),
			},
			&cli.StringFlag{
				Name:    "db",
				Usage:   "path to the sqlite ledger database (empty runs in memory)",
				Sources: cli.EnvVars("RAINBOW_DB"),
			},
			&cli.StringSliceFlag{
				Name:    "as",
				Usage:   "account(s) whose authority the action carries; repeatable",
				Sources: cli.EnvVars("RAINBOW_SIGNERS"),
			},
		},
		Commands: []*cli.Command{
			GetDaemonCmdOpts(),
			GetInitCmdOpts(),
			GetTokenCmdOpts(),
			GetStakeCmdOpts(),
			GetAccountCmdOpts(),
		},
	}
	return appConfig
}

// App is the global app instance. The cli action funcs all reference it.
var App *RainbowApp

type RainbowApp struct {
	cliCmd *cli.Command
	logger *slog.Logger
	host   *simhost.SimHost
	store  rainbow.Store
	token  *rainbow.Token
}

// initLedger builds the host environment (from a fixture when given), opens
// the ledger store, and applies the signer set for this invocation.
func (ac *RainbowApp) initLedger(ctx context.Context, cmd *cli.Command) error {
	if envFile := cmd.Value("envfile").(string); envFile != "" {
		if err := loadNamedEnvFile(envFile); err != nil {
			return err
		}
	} else if network := cmd.Value("network").(string); network != "" {
		misc.LoadEnvForNetwork(network)
	}

	var (
		host *simhost.SimHost
		err  error
	)
	if fixture := cmd.Value("fixture").(string); fixture != "" {
		host, err = simhost.LoadFixture(ac.logger, fixture)
		if err != nil {
			return err
		}
	} else {
		self, err := rainbow.NewName(cmd.Value("self").(string))
		if err != nil {
			return fmt.Errorf("invalid self account: %w", err)
		}
		host = simhost.New(ac.logger, self)
	}
	if signers := cmd.StringSlice("as"); len(signers) > 0 {
		names := make([]rainbow.Name, 0, len(signers))
		for _, s := range signers {
			n, err := rainbow.NewName(s)
			if err != nil {
				return fmt.Errorf("invalid signer: %w", err)
			}
			host.AddAccount(n)
			names = append(names, n)
		}
		host.Sign(names...)
	}

	var store rainbow.Store
	if path := cmd.Value("db").(string); path != "" {
		store, err = rainbow.NewSQLStore(path)
		if err != nil {
			return err
		}
	} else {
		store = rainbow.NewMemStore()
	}

	ac.host = host
	ac.store = store
	ac.token = rainbow.New(ac.logger, host, store)
	return nil
}

func loadNamedEnvFile(envFile string) error {
	misc.Infof(App.logger, "loading env file:%s", envFile)
	return godotenv.Load(envFile)
}
