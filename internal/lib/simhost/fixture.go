package simhost

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chuck-h/rainbow-go/internal/lib/rainbow"
)

// Fixture is the YAML description of a simulated chain environment: the
// contract's own account, the clock, the accounts that exist, the
// signatures on the current action, and collateral balances held on
// foreign token contracts.
type Fixture struct {
	Self     string            `yaml:"self"`
	Now      time.Time         `yaml:"now,omitempty"`
	Accounts []string          `yaml:"accounts"`
	Signers  []string          `yaml:"signers,omitempty"`
	Tokens   []CollateralToken `yaml:"tokens,omitempty"`
}

// CollateralToken seeds balance rows on one foreign token contract.
type CollateralToken struct {
	Contract string            `yaml:"contract"`
	Balances map[string]string `yaml:"balances"`
}

// LoadFixture reads a fixture file and builds the host it describes.
func LoadFixture(logger *slog.Logger, path string) (*SimHost, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fix Fixture
	if err := yaml.Unmarshal(raw, &fix); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return FromFixture(logger, fix)
}

func FromFixture(logger *slog.Logger, fix Fixture) (*SimHost, error) {
	self, err := rainbow.NewName(fix.Self)
	if err != nil {
		return nil, fmt.Errorf("fixture self: %w", err)
	}
	h := New(logger, self)
	if !fix.Now.IsZero() {
		h.SetNow(fix.Now.UTC())
	}
	for _, a := range fix.Accounts {
		n, err := rainbow.NewName(a)
		if err != nil {
			return nil, fmt.Errorf("fixture account %q: %w", a, err)
		}
		h.AddAccount(n)
	}
	signers := make([]rainbow.Name, 0, len(fix.Signers))
	for _, s := range fix.Signers {
		n, err := rainbow.NewName(s)
		if err != nil {
			return nil, fmt.Errorf("fixture signer %q: %w", s, err)
		}
		signers = append(signers, n)
	}
	h.Sign(signers...)
	for _, tok := range fix.Tokens {
		contract, err := rainbow.NewName(tok.Contract)
		if err != nil {
			return nil, fmt.Errorf("fixture token contract %q: %w", tok.Contract, err)
		}
		for owner, bal := range tok.Balances {
			n, err := rainbow.NewName(owner)
			if err != nil {
				return nil, fmt.Errorf("fixture balance owner %q: %w", owner, err)
			}
			quantity, err := rainbow.ParseAsset(bal)
			if err != nil {
				return nil, fmt.Errorf("fixture balance %q: %w", bal, err)
			}
			h.FundCollateral(contract, n, quantity)
		}
	}
	return h, nil
}
