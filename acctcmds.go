package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

func GetAccountCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "account",
		Aliases: []string{"a"},
		Usage:   "Open, close and inspect balance rows",
		Commands: []*cli.Command{
			{
				Name:  "open",
				Usage: "Open a zero balance row (membership) for an owner",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner", Usage: "Account to open the row for", Required: true},
					symbolFlag(),
					&cli.StringFlag{Name: "payer", Usage: "Account paying for the row", Required: true},
				},
				Action: OpenAccount,
			},
			{
				Name:  "close",
				Usage: "Close an empty balance row",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner", Usage: "Account whose row is closed", Required: true},
					symbolFlag(),
				},
				Action: CloseAccount,
			},
			{
				Name:  "balance",
				Usage: "Show one owner's balance, or all their holdings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "owner", Usage: "Account to look up", Required: true},
					&cli.StringFlag{Name: "symbol", Usage: "Token symbol code (all holdings when omitted)", Aliases: []string{"s"}},
				},
				Action: ShowBalance,
			},
			{
				Name:   "list",
				Usage:  "List every balance row for a symbol",
				Flags:  []cli.Flag{symbolFlag()},
				Action: ListAccounts,
			},
		},
	}
}

func OpenAccount(ctx context.Context, cmd *cli.Command) error {
	owner, err := flagName(cmd, "owner")
	if err != nil {
		return err
	}
	code, err := flagSymbol(cmd)
	if err != nil {
		return err
	}
	payer, err := flagName(cmd, "payer")
	if err != nil {
		return err
	}
	if err := App.token.Open(owner, code, payer); err != nil {
		return err
	}
	fmt.Printf("opened %s balance row for %s\n", code, owner)
	return nil
}

func CloseAccount(ctx context.Context, cmd *cli.Command) error {
	owner, err := flagName(cmd, "owner")
	if err != nil {
		return err
	}
	code, err := flagSymbol(cmd)
	if err != nil {
		return err
	}
	if err := App.token.Close(owner, code); err != nil {
		return err
	}
	fmt.Printf("closed %s balance row for %s\n", code, owner)
	return nil
}

func ShowBalance(ctx context.Context, cmd *cli.Command) error {
	owner, err := flagName(cmd, "owner")
	if err != nil {
		return err
	}
	if s := cmd.Value("symbol").(string); s != "" {
		code, err := flagSymbol(cmd)
		if err != nil {
			return err
		}
		bal, ok, err := App.token.GetBalance(owner, code)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s has no %s balance row", owner, code)
		}
		fmt.Println(bal)
		return nil
	}
	holdings, err := App.token.GetHoldings(owner)
	if err != nil {
		return err
	}
	if len(holdings) == 0 {
		fmt.Printf("%s holds no rainbow tokens\n", owner)
		return nil
	}
	for _, h := range holdings {
		fmt.Println(h)
	}
	return nil
}

func ListAccounts(ctx context.Context, cmd *cli.Command) error {
	code, err := flagSymbol(cmd)
	if err != nil {
		return err
	}
	rows, err := App.token.GetAccounts(code)
	if err != nil {
		return err
	}
	for _, r := range rows {
		fmt.Printf("%-13s %s\n", r.Owner, r.Account.Balance)
	}
	return nil
}
