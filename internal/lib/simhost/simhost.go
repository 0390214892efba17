// Package simhost provides a deterministic, in-process stand-in for the
// chain runtime the token ledger runs against. It tracks accounts, the
// signatures present on the current action, and balances held on foreign
// token contracts, and it executes collateral transfers synchronously.
package simhost

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chuck-h/rainbow-go/internal/lib/misc"
	"github.com/chuck-h/rainbow-go/internal/lib/rainbow"
)

type balanceKey struct {
	Contract rainbow.Name
	Owner    rainbow.Name
	Code     rainbow.SymbolCode
}

// Dispatch records one executed inline transfer together with the id
// assigned to it.
type Dispatch struct {
	TxID   string
	Intent rainbow.TransferIntent
}

// SimHost implements rainbow.Host.
type SimHost struct {
	mu         sync.Mutex
	logger     *slog.Logger
	self       rainbow.Name
	now        time.Time
	accounts   map[rainbow.Name]bool
	signers    map[rainbow.Name]bool
	balances   map[balanceKey]rainbow.Asset
	dispatched []Dispatch
	notified   []rainbow.Name
}

func New(logger *slog.Logger, self rainbow.Name) *SimHost {
	h := &SimHost{
		logger:   logger,
		self:     self,
		now:      time.Now().UTC().Truncate(time.Millisecond),
		accounts: map[rainbow.Name]bool{},
		signers:  map[rainbow.Name]bool{},
		balances: map[balanceKey]rainbow.Asset{},
	}
	h.accounts[self] = true
	return h
}

func (h *SimHost) Now() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.now
}

func (h *SimHost) Self() rainbow.Name { return h.self }

func (h *SimHost) AccountExists(n rainbow.Name) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.accounts[n]
}

func (h *SimHost) HasAuth(n rainbow.Name) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.signers[n]
}

func (h *SimHost) RequireAuth(n rainbow.Name) error {
	if !h.HasAuth(n) {
		return fmt.Errorf("missing required signature of %s", n)
	}
	return nil
}

// RequireAuth2 models named-permission authority. The simulator keys
// signatures by account only, so the permission is checked for presence
// but not for key material.
func (h *SimHost) RequireAuth2(n rainbow.Name, permission rainbow.Name) error {
	if permission.Empty() {
		return fmt.Errorf("empty permission for %s", n)
	}
	if !h.HasAuth(n) {
		return fmt.Errorf("missing required signature of %s@%s", n, permission)
	}
	return nil
}

func (h *SimHost) RequireRecipient(n rainbow.Name) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.notified = append(h.notified, n)
}

func (h *SimHost) TokenBalance(contract, owner rainbow.Name, code rainbow.SymbolCode) (rainbow.Asset, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	bal, ok := h.balances[balanceKey{Contract: contract, Owner: owner, Code: code}]
	return bal, ok
}

// DispatchInline moves collateral between balance rows on the named
// contract. Failures mirror the errors a live token contract would raise
// so the caller aborts and rolls back its own writes.
func (h *SimHost) DispatchInline(intent rainbow.TransferIntent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.accounts[intent.Contract] {
		return fmt.Errorf("stake token contract %s does not exist", intent.Contract)
	}
	if !h.accounts[intent.From] || !h.accounts[intent.To] {
		return fmt.Errorf("transfer party does not exist")
	}
	fromKey := balanceKey{Contract: intent.Contract, Owner: intent.From, Code: intent.Quantity.Symbol.Code}
	from, ok := h.balances[fromKey]
	if !ok {
		return fmt.Errorf("no balance object found for %s", intent.From)
	}
	if from.Symbol != intent.Quantity.Symbol {
		return fmt.Errorf("symbol precision mismatch")
	}
	if from.Amount < intent.Quantity.Amount {
		return fmt.Errorf("overdrawn balance")
	}
	toKey := balanceKey{Contract: intent.Contract, Owner: intent.To, Code: intent.Quantity.Symbol.Code}
	to, ok := h.balances[toKey]
	if !ok {
		to = rainbow.Asset{Amount: 0, Symbol: intent.Quantity.Symbol}
	}
	from.Amount -= intent.Quantity.Amount
	to.Amount += intent.Quantity.Amount
	h.balances[fromKey] = from
	h.balances[toKey] = to

	d := Dispatch{TxID: uuid.NewString(), Intent: intent}
	h.dispatched = append(h.dispatched, d)
	misc.Debugf(h.logger, "inline transfer %s: %s %s -> %s (%s)",
		d.TxID, intent.Quantity, intent.From, intent.To, intent.Memo)
	return nil
}

// Test and CLI helpers.

func (h *SimHost) SetNow(t time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = t
}

func (h *SimHost) Advance(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.now = h.now.Add(d)
}

func (h *SimHost) AddAccount(names ...rainbow.Name) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, n := range names {
		h.accounts[n] = true
	}
}

// Sign replaces the signature set for subsequent actions.
func (h *SimHost) Sign(names ...rainbow.Name) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.signers = map[rainbow.Name]bool{}
	for _, n := range names {
		h.signers[n] = true
	}
}

// FundCollateral sets owner's balance row on a foreign token contract.
func (h *SimHost) FundCollateral(contract, owner rainbow.Name, quantity rainbow.Asset) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.accounts[contract] = true
	h.accounts[owner] = true
	h.balances[balanceKey{Contract: contract, Owner: owner, Code: quantity.Symbol.Code}] = quantity
}

func (h *SimHost) Dispatched() []Dispatch {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Dispatch, len(h.dispatched))
	copy(out, h.dispatched)
	return out
}

func (h *SimHost) Notified() []rainbow.Name {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]rainbow.Name, len(h.notified))
	copy(out, h.notified)
	return out
}

func (h *SimHost) ClearHistory() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dispatched = nil
	h.notified = nil
}
