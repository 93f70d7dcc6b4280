// Package ledger keeps custody balances for every account the engine touches:
// payers, recipients, the engine's own custody account and pool reserves.
//
// All mutations happen inside Update, which runs its callback in an exclusive
// window against a transaction overlay. The overlay is applied only when the
// callback returns nil, so a failed session leaves no trace.
package ledger

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	"github.com/hxuan190/split-swapper/internal/domain"
)

type balanceKey struct {
	Account solana.PublicKey
	Mint    solana.PublicKey
}

// Change is a committed balance, reported to commit hooks.
type Change struct {
	Account solana.PublicKey
	Mint    solana.PublicKey
	Amount  *uint256.Int
}

// View is read access to balances.
type View interface {
	Balance(account, mint solana.PublicKey) *uint256.Int
}

type Ledger struct {
	mu       sync.RWMutex
	balances map[balanceKey]*uint256.Int
	frozen   map[balanceKey]struct{}

	hookMu sync.RWMutex
	hooks  []func([]Change)
}

func New() *Ledger {
	return &Ledger{
		balances: make(map[balanceKey]*uint256.Int),
		frozen:   make(map[balanceKey]struct{}),
	}
}

// OnCommit registers fn to receive the balances changed by every committed Update.
func (l *Ledger) OnCommit(fn func([]Change)) {
	l.hookMu.Lock()
	l.hooks = append(l.hooks, fn)
	l.hookMu.Unlock()
}

// Restore overwrites balances without running commit hooks. Used when loading
// persisted state at startup.
func (l *Ledger) Restore(changes []Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range changes {
		key := balanceKey{Account: c.Account, Mint: c.Mint}
		if c.Amount == nil || c.Amount.IsZero() {
			delete(l.balances, key)
			continue
		}
		l.balances[key] = c.Amount.Clone()
	}
}

func (l *Ledger) Balance(account, mint solana.PublicKey) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balanceLocked(account, mint)
}

func (l *Ledger) balanceLocked(account, mint solana.PublicKey) *uint256.Int {
	if b, ok := l.balances[balanceKey{Account: account, Mint: mint}]; ok {
		return b.Clone()
	}
	return new(uint256.Int)
}

type committedView struct{ l *Ledger }

func (v committedView) Balance(account, mint solana.PublicKey) *uint256.Int {
	return v.l.balanceLocked(account, mint)
}

// View runs fn against committed balances under a shared lock.
func (l *Ledger) View(fn func(View) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(committedView{l: l})
}

// Freeze makes account reject incoming transfers of mint.
func (l *Ledger) Freeze(account, mint solana.PublicKey) {
	l.mu.Lock()
	l.frozen[balanceKey{Account: account, Mint: mint}] = struct{}{}
	l.mu.Unlock()
}

func (l *Ledger) Thaw(account, mint solana.PublicKey) {
	l.mu.Lock()
	delete(l.frozen, balanceKey{Account: account, Mint: mint})
	l.mu.Unlock()
}

func (l *Ledger) IsFrozen(account, mint solana.PublicKey) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.frozen[balanceKey{Account: account, Mint: mint}]
	return ok
}

// Update runs fn in an exclusive window. The transaction is committed when fn
// returns nil and discarded otherwise.
func (l *Ledger) Update(fn func(tx *Tx) error) error {
	l.mu.Lock()
	tx := newTx(l)
	if err := fn(tx); err != nil {
		l.mu.Unlock()
		return err
	}
	changes := tx.apply()
	l.mu.Unlock()

	if len(changes) > 0 {
		l.hookMu.RLock()
		hooks := l.hooks
		l.hookMu.RUnlock()
		for _, h := range hooks {
			h(changes)
		}
	}
	return nil
}

// Simulate runs fn against a transaction that is always discarded.
func (l *Ledger) Simulate(fn func(tx *Tx) error) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return fn(newTx(l))
}

// Mint credits new supply to account. Reserved for seeding liquidity and admin top-ups.
func (l *Ledger) Mint(account, mint solana.PublicKey, amount *uint256.Int) error {
	return l.Update(func(tx *Tx) error {
		return tx.Credit(account, mint, amount)
	})
}

// Tx is an overlay of pending balances on top of the committed ledger. It is
// only valid inside the Update or Simulate callback that created it.
type Tx struct {
	base    *Ledger
	overlay map[balanceKey]*uint256.Int
	order   []balanceKey
}

func newTx(l *Ledger) *Tx {
	return &Tx{
		base:    l,
		overlay: make(map[balanceKey]*uint256.Int),
	}
}

func (tx *Tx) Balance(account, mint solana.PublicKey) *uint256.Int {
	return tx.get(balanceKey{Account: account, Mint: mint}).Clone()
}

func (tx *Tx) get(key balanceKey) *uint256.Int {
	if b, ok := tx.overlay[key]; ok {
		return b
	}
	return tx.base.balanceLocked(key.Account, key.Mint)
}

func (tx *Tx) set(key balanceKey, amount *uint256.Int) {
	if _, ok := tx.overlay[key]; !ok {
		tx.order = append(tx.order, key)
	}
	tx.overlay[key] = amount
}

// Transfer moves amount of mint between accounts. A zero amount is a no-op.
func (tx *Tx) Transfer(from, to, mint solana.PublicKey, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	if _, frozen := tx.base.frozen[balanceKey{Account: to, Mint: mint}]; frozen {
		return fmt.Errorf("%w: %s cannot receive %s", domain.ErrAccountFrozen, to, mint)
	}

	fromKey := balanceKey{Account: from, Mint: mint}
	fromBal := tx.get(fromKey)
	if fromBal.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", domain.ErrInsufficientFunds, from, fromBal.Dec(), mint, amount.Dec())
	}
	if from.Equals(to) {
		return nil
	}

	tx.set(fromKey, new(uint256.Int).Sub(fromBal, amount))

	toKey := balanceKey{Account: to, Mint: mint}
	newTo, overflow := new(uint256.Int).AddOverflow(tx.get(toKey), amount)
	if overflow {
		return fmt.Errorf("%w: balance overflow for %s", domain.ErrInvalidAmount, to)
	}
	tx.set(toKey, newTo)
	return nil
}

// Credit creates amount of mint in account.
func (tx *Tx) Credit(account, mint solana.PublicKey, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return nil
	}
	key := balanceKey{Account: account, Mint: mint}
	sum, overflow := new(uint256.Int).AddOverflow(tx.get(key), amount)
	if overflow {
		return fmt.Errorf("%w: balance overflow for %s", domain.ErrInvalidAmount, account)
	}
	tx.set(key, sum)
	return nil
}

// apply must be called with the ledger write lock held.
func (tx *Tx) apply() []Change {
	changes := make([]Change, 0, len(tx.order))
	for _, key := range tx.order {
		amount := tx.overlay[key]
		if amount.IsZero() {
			delete(tx.base.balances, key)
		} else {
			tx.base.balances[key] = amount.Clone()
		}
		changes = append(changes, Change{Account: key.Account, Mint: key.Mint, Amount: amount.Clone()})
	}
	return changes
}
