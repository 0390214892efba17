package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/chuck-h/rainbow-go/internal/lib/rainbow"
)

func GetStakeCmdOpts() *cli.Command {
	return &cli.Command{
		Name:  "stake",
		Usage: "Manage the staking relationships backing a token",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Create or retune a staking relationship; spb of zero destakes it",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "issuer",
						Usage:    "Token issuer",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "token-bucket",
						Usage:    "Grouping unit of the token, e.g. '1.00 RBW'; its symbol selects the token",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "stake-per-bucket",
						Usage:    "Collateral per token bucket, e.g. '5.0000 SEED'",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "contract",
						Usage:    "Token contract holding the collateral",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "stake-to",
						Usage: "Escrow account receiving staked collateral, or 'deletestake' to remove the row",
					},
					&cli.BoolFlag{
						Name:  "deferred",
						Usage: "Collateral moves are the issuer's own responsibility, not escrowed on issue",
					},
					&cli.BoolFlag{
						Name:  "proportional",
						Usage: "Redemptions draw down escrow proportionally to the retired fraction",
					},
					memoFlag(),
				},
				Action: SetStakeRow,
			},
			{
				Name:   "list",
				Usage:  "List the stake rows for a symbol",
				Flags:  []cli.Flag{symbolFlag()},
				Action: ListStakeRows,
			},
		},
	}
}

func SetStakeRow(ctx context.Context, cmd *cli.Command) error {
	issuer, err := flagName(cmd, "issuer")
	if err != nil {
		return err
	}
	bucket, err := flagAsset(cmd, "token-bucket")
	if err != nil {
		return err
	}
	spb, err := flagAsset(cmd, "stake-per-bucket")
	if err != nil {
		return err
	}
	contract, err := flagName(cmd, "contract")
	if err != nil {
		return err
	}
	stakeTo, err := flagName(cmd, "stake-to")
	if err != nil {
		return err
	}
	err = App.token.SetStake(rainbow.SetStakeParams{
		Issuer:             issuer,
		TokenBucket:        bucket,
		StakePerBucket:     spb,
		StakeTokenContract: contract,
		StakeTo:            rainbow.StakeTargetFromName(stakeTo),
		Deferred:           cmd.Value("deferred").(bool),
		Proportional:       cmd.Value("proportional").(bool),
		Memo:               cmd.Value("memo").(string),
	})
	if err != nil {
		return err
	}
	fmt.Printf("stake updated for %s: %s per %s\n", bucket.Symbol.Code, spb, bucket)
	return nil
}

func ListStakeRows(ctx context.Context, cmd *cli.Command) error {
	code, err := flagSymbol(cmd)
	if err != nil {
		return err
	}
	rows, err := App.token.GetStakes(code)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Printf("no stake rows for %s\n", code)
		return nil
	}
	for _, r := range rows {
		mode := ""
		if r.Deferred {
			mode += " deferred"
		}
		if r.Proportional {
			mode += " proportional"
		}
		fmt.Printf("[%d] %s per %s -> %s @ %s%s\n",
			r.Index, r.StakePerBucket, r.TokenBucket, r.StakeTo.WireName(), r.StakeTokenContract, mode)
	}
	return nil
}
