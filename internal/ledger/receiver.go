package ledger

import (
	"strings"
	"sync"
)

// TokenReceiver is implemented by programmable recipients. A transfer or
// mint to a registered receiver only commits once the receiver acknowledges
// it; an error reverts the whole operation.
type TokenReceiver interface {
	OnTokenReceived(operator, from string, tokenId, quantity uint64) error
}

// ReceiverRegistry maps addresses to their programmable receive hooks.
// Plain wallet addresses have no entry and always accept.
type ReceiverRegistry struct {
	mu        sync.RWMutex
	receivers map[string]TokenReceiver
}

func NewReceiverRegistry() *ReceiverRegistry {
	return &ReceiverRegistry{receivers: make(map[string]TokenReceiver)}
}

func (r *ReceiverRegistry) Register(addr string, receiver TokenReceiver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	addr = strings.ToLower(addr)
	if receiver == nil {
		delete(r.receivers, addr)
		return
	}
	r.receivers[addr] = receiver
}

func (r *ReceiverRegistry) Get(addr string) TokenReceiver {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.receivers[strings.ToLower(addr)]
}

// acknowledge runs the recipient's hook if one is registered. Nil registry
// accepts everything.
func (r *ReceiverRegistry) acknowledge(operator, from, to string, tokenId, quantity uint64) error {
	if r == nil {
		return nil
	}
	receiver := r.Get(to)
	if receiver == nil {
		return nil
	}
	return receiver.OnTokenReceived(operator, from, tokenId, quantity)
}
