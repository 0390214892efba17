package main

import (
	"context"
	"fmt"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/urfave/cli/v3"

	"github.com/chuck-h/rainbow-go/internal/lib/rainbow"
)

func GetInitCmdOpts() *cli.Command {
	return &cli.Command{
		Name:   "init",
		Usage:  "Interactively define and create a new token",
		Action: InitToken,
	}
}

func InitToken(ctx context.Context, cmd *cli.Command) error {
	maxSupply, err := getAsset("Enter the maximum supply with precision and symbol (e.g. '1000.00 RBW')", "")
	if err != nil {
		return err
	}
	if st, ok, err := App.token.GetStats(maxSupply.Symbol.Code); err != nil {
		return err
	} else if ok {
		result, _ := yesNo(fmt.Sprintf("Token %s already exists (issuer %s), do you REALLY want to reconfigure it", st.Code(), st.Issuer))
		if result != "y" {
			return nil
		}
	}

	issuer, err := getName("Enter the issuer account", "")
	if err != nil {
		return err
	}
	membershipMgr := rainbow.OpenMembership()
	if y, _ := yesNo("Do you want to gate membership through a manager account"); y == "y" {
		mgr, err := getName("Enter the membership manager account", issuer.String())
		if err != nil {
			return err
		}
		membershipMgr = rainbow.ManagedMembership(mgr)
	}
	withdrawalMgr, err := getName("Enter the withdrawal manager account", issuer.String())
	if err != nil {
		return err
	}
	withdrawTo, err := getName("Enter the account withdrawals are pulled to", issuer.String())
	if err != nil {
		return err
	}
	freezeMgr, err := getName("Enter the freeze manager account", issuer.String())
	if err != nil {
		return err
	}
	now := App.host.Now()
	redeemLock, err := getLockTime("Bearer redemption locked until (empty for unlocked, RFC3339 or +duration)", now)
	if err != nil {
		return err
	}
	configLock, err := getLockTime("Configuration locked until (empty for unlocked, RFC3339 or +duration)", now)
	if err != nil {
		return err
	}

	err = App.token.Create(rainbow.CreateParams{
		Issuer:            issuer,
		MaxSupply:         maxSupply,
		MembershipMgr:     membershipMgr,
		WithdrawalMgr:     withdrawalMgr,
		WithdrawTo:        withdrawTo,
		FreezeMgr:         freezeMgr,
		RedeemLockedUntil: redeemLock,
		ConfigLockedUntil: configLock,
	})
	if err != nil {
		return err
	}
	fmt.Printf("token %s created\n", maxSupply.Symbol.Code)

	if y, _ := yesNo("Approve the token for issuance now (requires the contract owner's authority)"); y == "y" {
		if err := App.token.Approve(maxSupply.Symbol.Code, false); err != nil {
			return err
		}
		fmt.Printf("token %s approved\n", maxSupply.Symbol.Code)
	}
	return nil
}

func getName(prompt string, defVal string) (rainbow.Name, error) {
	result, err := (&promptui.Prompt{
		Label:   prompt,
		Default: defVal,
		Validate: func(s string) error {
			if s == "" {
				return fmt.Errorf("account name required")
			}
			_, err := rainbow.NewName(s)
			return err
		},
	}).Run()
	if err != nil {
		return 0, err
	}
	return rainbow.NewName(result)
}

func getAsset(prompt string, defVal string) (rainbow.Asset, error) {
	result, err := (&promptui.Prompt{
		Label:   prompt,
		Default: defVal,
		Validate: func(s string) error {
			_, err := rainbow.ParseAsset(s)
			return err
		},
	}).Run()
	if err != nil {
		return rainbow.Asset{}, err
	}
	return rainbow.ParseAsset(result)
}

func getLockTime(prompt string, now time.Time) (time.Time, error) {
	result, err := (&promptui.Prompt{
		Label: prompt,
		Validate: func(s string) error {
			_, err := parseLockTime(s, now)
			return err
		},
	}).Run()
	if err != nil {
		return time.Time{}, err
	}
	return parseLockTime(result, now)
}

func yesNo(prompt string) (string, error) {
	return (&promptui.Prompt{
		Label:     prompt,
		IsConfirm: true,
	}).Run()
}
