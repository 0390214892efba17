package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/chuck-h/rainbow-go/internal/lib/rainbow"
)

func GetTokenCmdOpts() *cli.Command {
	return &cli.Command{
		Name:    "token",
		Aliases: []string{"t"},
		Usage:   "Create and operate rainbow tokens",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a new token, or reconfigure one that is not locked",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "issuer",
						Usage:    "Account that will manage the token and issue supply",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "max-supply",
						Usage:    "Maximum supply, e.g. '1000.00 RBW'; the precision is part of the symbol",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "membership-mgr",
						Usage: "Account gating balance rows, or 'allowallacct' for open membership",
						Value: "allowallacct",
					},
					&cli.StringFlag{
						Name:     "withdrawal-mgr",
						Usage:    "Account allowed to pull holder funds to the withdraw-to account",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "withdraw-to",
						Usage:    "Destination of withdrawal-mgr pulls",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "freeze-mgr",
						Usage:    "Account allowed to freeze and unfreeze transfers",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "redeem-locked-until",
						Usage: "RFC3339 time, or +duration (e.g. +720h), before which only the issuer may retire",
					},
					&cli.StringFlag{
						Name:  "config-locked-until",
						Usage: "RFC3339 time, or +duration, before which the token cannot be reconfigured",
					},
				},
				Action: CreateToken,
			},
			{
				Name:  "approve",
				Usage: "Approve a token for issuance, or reject it and clear its tables",
				Flags: []cli.Flag{
					symbolFlag(),
					&cli.BoolFlag{
						Name:  "reject",
						Usage: "Reject and clear every table for the symbol (supply must be zero)",
					},
				},
				Action: ApproveToken,
			},
			{
				Name:  "issue",
				Usage: "Issue new supply to the issuer, staking collateral per the stake rows",
				Flags: []cli.Flag{
					quantityFlag("Quantity to issue, e.g. '100.00 RBW'"),
					memoFlag(),
				},
				Action: IssueToken,
			},
			{
				Name:  "retire",
				Usage: "Burn tokens from an owner's balance, releasing staked collateral",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "owner",
						Usage:    "Account whose tokens are burned",
						Required: true,
					},
					quantityFlag("Quantity to retire, e.g. '40.00 RBW'"),
					memoFlag(),
				},
				Action: RetireToken,
			},
			{
				Name:  "transfer",
				Usage: "Transfer tokens between accounts",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "from", Usage: "Sending account", Required: true},
					&cli.StringFlag{Name: "to", Usage: "Receiving account", Required: true},
					quantityFlag("Quantity to transfer, e.g. '10.00 RBW'"),
					memoFlag(),
				},
				Action: TransferToken,
			},
			{
				Name:  "freeze",
				Usage: "Freeze or unfreeze all transfers of a symbol",
				Flags: []cli.Flag{
					symbolFlag(),
					&cli.BoolFlag{Name: "off", Usage: "Unfreeze instead of freeze"},
					memoFlag(),
				},
				Action: FreezeToken,
			},
			{
				Name:  "display",
				Usage: "Set the display metadata for a token",
				Flags: []cli.Flag{
					symbolFlag(),
					&cli.StringFlag{Name: "issuer", Usage: "Token issuer", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name"},
					&cli.StringFlag{Name: "logo", Usage: "Logo URL"},
					&cli.StringFlag{Name: "logo-lg", Usage: "Large logo URL"},
					&cli.StringFlag{Name: "web", Usage: "Web link"},
					&cli.StringFlag{Name: "background", Usage: "Background image URL"},
					&cli.StringFlag{Name: "json-meta", Usage: "Free-form JSON metadata"},
				},
				Action: SetTokenDisplay,
			},
			{
				Name:   "info",
				Usage:  "Display the stat, config and display rows for a symbol",
				Flags:  []cli.Flag{symbolFlag()},
				Action: TokenInfo,
			},
		},
	}
}

func symbolFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "symbol",
		Usage:    "Token symbol code, e.g. RBW",
		Required: true,
		Aliases:  []string{"s"},
	}
}

func quantityFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:     "quantity",
		Usage:    usage,
		Required: true,
		Aliases:  []string{"q"},
	}
}

func memoFlag() cli.Flag {
	return &cli.StringFlag{Name: "memo", Usage: "Memo (max 256 bytes)"}
}

func flagName(cmd *cli.Command, flag string) (rainbow.Name, error) {
	n, err := rainbow.NewName(cmd.Value(flag).(string))
	if err != nil {
		return 0, fmt.Errorf("--%s: %w", flag, err)
	}
	return n, nil
}

func flagAsset(cmd *cli.Command, flag string) (rainbow.Asset, error) {
	a, err := rainbow.ParseAsset(cmd.Value(flag).(string))
	if err != nil {
		return rainbow.Asset{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return a, nil
}

func flagSymbol(cmd *cli.Command) (rainbow.SymbolCode, error) {
	sc, err := rainbow.ParseSymbolCode(cmd.Value("symbol").(string))
	if err != nil {
		return 0, fmt.Errorf("--symbol: %w", err)
	}
	return sc, nil
}

// parseLockTime accepts an empty string (no lock), an RFC3339 timestamp, or
// a +duration offset from the current chain time.
func parseLockTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if s[0] == '+' {
		d, err := time.ParseDuration(s[1:])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid lock duration %q: %w", s, err)
		}
		return now.Add(d), nil
	}
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid lock time %q (want RFC3339 or +duration): %w", s, err)
	}
	return tm, nil
}

func CreateToken(ctx context.Context, cmd *cli.Command) error {
	issuer, err := flagName(cmd, "issuer")
	if err != nil {
		return err
	}
	maxSupply, err := flagAsset(cmd, "max-supply")
	if err != nil {
		return err
	}
	membershipMgr, err := flagName(cmd, "membership-mgr")
	if err != nil {
		return err
	}
	withdrawalMgr, err := flagName(cmd, "withdrawal-mgr")
	if err != nil {
		return err
	}
	withdrawTo, err := flagName(cmd, "withdraw-to")
	if err != nil {
		return err
	}
	freezeMgr, err := flagName(cmd, "freeze-mgr")
	if err != nil {
		return err
	}
	now := App.host.Now()
	redeemLock, err := parseLockTime(cmd.Value("redeem-locked-until").(string), now)
	if err != nil {
		return err
	}
	configLock, err := parseLockTime(cmd.Value("config-locked-until").(string), now)
	if err != nil {
		return err
	}
	err = App.token.Create(rainbow.CreateParams{
		Issuer:            issuer,
		MaxSupply:         maxSupply,
		MembershipMgr:     rainbow.MembershipFromName(membershipMgr),
		WithdrawalMgr:     withdrawalMgr,
		WithdrawTo:        withdrawTo,
		FreezeMgr:         freezeMgr,
		RedeemLockedUntil: redeemLock,
		ConfigLockedUntil: configLock,
	})
	if err != nil {
		return err
	}
	fmt.Printf("token %s created, max supply %s\n", maxSupply.Symbol.Code, maxSupply)
	return nil
}

func ApproveToken(ctx context.Context, cmd *cli.Command) error {
	code, err := flagSymbol(cmd)
	if err != nil {
		return err
	}
	reject := cmd.Value("reject").(bool)
	if err := App.token.Approve(code, reject); err != nil {
		return err
	}
	if reject {
		fmt.Printf("token %s rejected and cleared\n", code)
	} else {
		fmt.Printf("token %s approved\n", code)
	}
	return nil
}

func IssueToken(ctx context.Context, cmd *cli.Command) error {
	quantity, err := flagAsset(cmd, "quantity")
	if err != nil {
		return err
	}
	if err := App.token.Issue(quantity, cmd.Value("memo").(string)); err != nil {
		return err
	}
	supply, err := App.token.GetSupply(quantity.Symbol.Code)
	if err != nil {
		return err
	}
	fmt.Printf("issued %s, supply now %s\n", quantity, supply)
	return nil
}

func RetireToken(ctx context.Context, cmd *cli.Command) error {
	owner, err := flagName(cmd, "owner")
	if err != nil {
		return err
	}
	quantity, err := flagAsset(cmd, "quantity")
	if err != nil {
		return err
	}
	if err := App.token.Retire(owner, quantity, cmd.Value("memo").(string)); err != nil {
		return err
	}
	supply, err := App.token.GetSupply(quantity.Symbol.Code)
	if err != nil {
		return err
	}
	fmt.Printf("retired %s from %s, supply now %s\n", quantity, owner, supply)
	return nil
}

func TransferToken(ctx context.Context, cmd *cli.Command) error {
	from, err := flagName(cmd, "from")
	if err != nil {
		return err
	}
	to, err := flagName(cmd, "to")
	if err != nil {
		return err
	}
	quantity, err := flagAsset(cmd, "quantity")
	if err != nil {
		return err
	}
	if err := App.token.Transfer(from, to, quantity, cmd.Value("memo").(string)); err != nil {
		return err
	}
	fmt.Printf("transferred %s from %s to %s\n", quantity, from, to)
	return nil
}

func FreezeToken(ctx context.Context, cmd *cli.Command) error {
	code, err := flagSymbol(cmd)
	if err != nil {
		return err
	}
	freeze := !cmd.Value("off").(bool)
	if err := App.token.Freeze(code, freeze, cmd.Value("memo").(string)); err != nil {
		return err
	}
	fmt.Printf("token %s transfers_frozen set to %v\n", code, freeze)
	return nil
}

func SetTokenDisplay(ctx context.Context, cmd *cli.Command) error {
	code, err := flagSymbol(cmd)
	if err != nil {
		return err
	}
	issuer, err := flagName(cmd, "issuer")
	if err != nil {
		return err
	}
	d := rainbow.CurrencyDisplay{
		Name:       cmd.Value("name").(string),
		Logo:       cmd.Value("logo").(string),
		LogoLarge:  cmd.Value("logo-lg").(string),
		WebLink:    cmd.Value("web").(string),
		Background: cmd.Value("background").(string),
		JSONMeta:   cmd.Value("json-meta").(string),
	}
	if err := App.token.SetDisplay(issuer, code, d); err != nil {
		return err
	}
	fmt.Printf("display updated for %s\n", code)
	return nil
}

func TokenInfo(ctx context.Context, cmd *cli.Command) error {
	code, err := flagSymbol(cmd)
	if err != nil {
		return err
	}
	st, ok, err := App.token.GetStats(code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("token %s does not exist", code)
	}
	fmt.Printf("symbol:      %s\n", st.Supply.Symbol)
	fmt.Printf("supply:      %s\n", st.Supply)
	fmt.Printf("max supply:  %s\n", st.MaxSupply)
	fmt.Printf("issuer:      %s\n", st.Issuer)
	cfg, ok, err := App.token.GetConfig(code)
	if err != nil {
		return err
	}
	if ok {
		fmt.Printf("membership:  %s\n", cfg.MembershipMgr.WireName())
		fmt.Printf("withdrawal:  %s -> %s\n", cfg.WithdrawalMgr, cfg.WithdrawTo)
		fmt.Printf("freeze mgr:  %s\n", cfg.FreezeMgr)
		fmt.Printf("approved:    %v\n", cfg.Approved)
		fmt.Printf("frozen:      %v\n", cfg.TransfersFrozen)
		if !cfg.RedeemLockedUntil.IsZero() {
			fmt.Printf("redeem lock: %s\n", cfg.RedeemLockedUntil.Format(time.RFC3339))
		}
		if !cfg.ConfigLockedUntil.IsZero() {
			fmt.Printf("config lock: %s\n", cfg.ConfigLockedUntil.Format(time.RFC3339))
		}
	}
	d, ok, err := App.token.GetDisplay(code)
	if err != nil {
		return err
	}
	if ok && d.Name != "" {
		fmt.Printf("name:        %s\n", d.Name)
	}
	return nil
}
