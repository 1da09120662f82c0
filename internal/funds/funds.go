package funds

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrInvalidAmount     = errors.New("funds: amount must be positive")
	ErrInsufficientFunds = errors.New("funds: insufficient balance")
	ErrPaymentRejected   = errors.New("funds: payment rejected by receiver")
)

// Payee is a programmable payment receiver. A registered payee must accept
// the payment or the whole transfer is undone, mirroring a value transfer
// into a contract that reverts in its receive handler.
type Payee interface {
	OnPayment(from string, amount *big.Int) error
}

// Ledger tracks native-currency balances in wei.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]*big.Int
	payees   map[string]Payee
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]*big.Int),
		payees:   make(map[string]Payee),
	}
}

// RegisterPayee attaches programmable receive behaviour to an address.
// A nil payee detaches it.
func (l *Ledger) RegisterPayee(addr string, p Payee) {
	l.mu.Lock()
	defer l.mu.Unlock()

	addr = strings.ToLower(addr)
	if p == nil {
		delete(l.payees, addr)
		return
	}
	l.payees[addr] = p
}

func (l *Ledger) Deposit(addr string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.credit(strings.ToLower(addr), amount)
	return nil
}

// Withdraw removes value from an account, modelling an off-ledger payout.
func (l *Ledger) Withdraw(addr string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.debit(strings.ToLower(addr), amount)
}

func (l *Ledger) BalanceOf(addr string) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if bal, ok := l.balances[strings.ToLower(addr)]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Transfer moves value between accounts, honouring the recipient's payee
// hook. The hook runs outside the ledger lock so it may itself transact;
// if it rejects, the movement is undone before the error is returned.
func (l *Ledger) Transfer(from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	from = strings.ToLower(from)
	to = strings.ToLower(to)

	l.mu.Lock()
	if err := l.debit(from, amount); err != nil {
		l.mu.Unlock()
		return err
	}
	l.credit(to, amount)
	payee := l.payees[to]
	l.mu.Unlock()

	if payee != nil {
		if err := payee.OnPayment(from, amount); err != nil {
			l.Reverse(from, to, amount)
			zap.L().With(
				zap.String("from", from),
				zap.String("to", to),
				zap.String("amount", amount.String()),
				zap.Error(err),
			).Warn("Funds: Payment rejected")
			return fmt.Errorf("%w: %v", ErrPaymentRejected, err)
		}
	}

	return nil
}

// Reverse undoes a prior Transfer without re-running payee hooks. It is the
// compensation path for the settlement journal and must only be handed
// amounts that were already moved.
func (l *Ledger) Reverse(from, to string, amount *big.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	from = strings.ToLower(from)
	to = strings.ToLower(to)

	if err := l.debit(to, amount); err != nil {
		// The receiver spent the funds before the rollback could run.
		// Force the balance negative rather than lose the seller's money.
		l.balances[to] = new(big.Int).Sub(l.balance(to), amount)
		zap.L().With(zap.String("account", to)).Error("Funds: Reversal overdrew account")
	}
	l.credit(from, amount)
}

func (l *Ledger) balance(addr string) *big.Int {
	if bal, ok := l.balances[addr]; ok {
		return bal
	}
	return new(big.Int)
}

func (l *Ledger) credit(addr string, amount *big.Int) {
	l.balances[addr] = new(big.Int).Add(l.balance(addr), amount)
}

func (l *Ledger) debit(addr string, amount *big.Int) error {
	bal := l.balance(addr)
	if bal.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	l.balances[addr] = new(big.Int).Sub(bal, amount)
	return nil
}
