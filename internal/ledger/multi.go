package ledger

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ellifont/NFT-platform/internal/auth"
	"github.com/ellifont/NFT-platform/internal/entity"
	"github.com/ellifont/NFT-platform/internal/event"
	"go.uber.org/zap"
)

type editionType struct {
	creator      string
	uri          string
	maxSupply    uint64
	mintedSupply uint64
}

// MultiEdition is the issuance ledger for edition types: one identifier
// represents a supply of interchangeable units with per-holder balances.
// mintedSupply is a high-water mark; burns decrement balances only.
type MultiEdition struct {
	address   string
	roles     *auth.Roles
	receivers *ReceiverRegistry
	emitter   event.Emitter

	mu        sync.RWMutex
	nextId    uint64
	types     map[uint64]*editionType
	balances  map[uint64]map[string]uint64
	operators map[string]map[string]bool
	royalties royaltyRegistry
}

func NewMultiEdition(address string, roles *auth.Roles, receivers *ReceiverRegistry, defaultRoyaltyBps uint64, emitter event.Emitter) *MultiEdition {
	if emitter == nil {
		emitter = event.NoopEmitter{}
	}
	return &MultiEdition{
		address:   strings.ToLower(address),
		roles:     roles,
		receivers: receivers,
		emitter:   emitter,
		nextId:    1,
		types:     make(map[uint64]*editionType),
		balances:  make(map[uint64]map[string]uint64),
		operators: make(map[string]map[string]bool),
		royalties: newRoyaltyRegistry(defaultRoyaltyBps),
	}
}

func (l *MultiEdition) Address() string {
	return l.address
}

func (l *MultiEdition) Standard() entity.Standard {
	return entity.ERC1155
}

// CreateEdition registers a new edition type without minting any units.
// maxSupply of zero means unbounded.
func (l *MultiEdition) CreateEdition(caller, creator, uri string, maxSupply uint64) (uint64, error) {
	if !l.roles.IsMinter(caller) {
		return 0, ErrUnauthorized
	}
	if entity.IsZeroAddress(creator) {
		return 0, ErrInvalidCreator
	}
	if uri == "" {
		return 0, ErrInvalidURI
	}

	creator = strings.ToLower(creator)

	l.mu.Lock()
	typeId := l.nextId
	l.nextId++
	l.types[typeId] = &editionType{creator: creator, uri: uri, maxSupply: maxSupply}
	l.balances[typeId] = make(map[string]uint64)
	l.royalties.bind(typeId, creator)
	l.mu.Unlock()

	l.emitter.Emit(event.EditionCreatedEvent, event.EditionCreated{
		Contract:  l.address,
		TypeId:    typeId,
		Creator:   creator,
		TokenUri:  uri,
		MaxSupply: maxSupply,
	})

	return typeId, nil
}

// MintEdition mints units of an existing type to a holder.
func (l *MultiEdition) MintEdition(caller, to string, typeId, amount uint64) error {
	if !l.roles.IsMinter(caller) {
		return ErrUnauthorized
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	if entity.IsZeroAddress(to) {
		return ErrInvalidReceiver
	}

	caller = strings.ToLower(caller)
	to = strings.ToLower(to)

	l.mu.Lock()
	t, ok := l.types[typeId]
	if !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	if t.maxSupply > 0 && t.mintedSupply+amount > t.maxSupply {
		l.mu.Unlock()
		return ErrSupplyExceeded
	}
	t.mintedSupply += amount
	l.balances[typeId][to] += amount
	l.mu.Unlock()

	if err := l.receivers.acknowledge(caller, entity.ZeroAddress, to, typeId, amount); err != nil {
		l.mu.Lock()
		t.mintedSupply -= amount
		l.balances[typeId][to] -= amount
		l.mu.Unlock()
		zap.L().With(zap.Uint64("typeId", typeId), zap.Error(err)).Warn("MultiEdition: Mint rejected by receiver")
		return fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}

	l.emitter.Emit(event.EditionMintedEvent, event.EditionMinted{
		Contract: l.address,
		TypeId:   typeId,
		To:       to,
		Quantity: amount,
	})

	return nil
}

// CreateAndMint atomically creates a type and mints its first units. If the
// mint portion fails the type creation is discarded with it.
func (l *MultiEdition) CreateAndMint(caller, to, creator, uri string, maxSupply, amount uint64) (uint64, error) {
	if !l.roles.IsMinter(caller) {
		return 0, ErrUnauthorized
	}
	if entity.IsZeroAddress(creator) {
		return 0, ErrInvalidCreator
	}
	if uri == "" {
		return 0, ErrInvalidURI
	}
	if amount == 0 {
		return 0, ErrInvalidAmount
	}
	if maxSupply > 0 && amount > maxSupply {
		return 0, ErrSupplyExceeded
	}
	if entity.IsZeroAddress(to) {
		return 0, ErrInvalidReceiver
	}

	caller = strings.ToLower(caller)
	creator = strings.ToLower(creator)
	to = strings.ToLower(to)

	l.mu.Lock()
	typeId := l.nextId
	l.nextId++
	l.types[typeId] = &editionType{creator: creator, uri: uri, maxSupply: maxSupply, mintedSupply: amount}
	l.balances[typeId] = map[string]uint64{to: amount}
	l.royalties.bind(typeId, creator)
	l.mu.Unlock()

	if err := l.receivers.acknowledge(caller, entity.ZeroAddress, to, typeId, amount); err != nil {
		l.mu.Lock()
		delete(l.types, typeId)
		delete(l.balances, typeId)
		l.royalties.unbind(typeId)
		l.mu.Unlock()
		zap.L().With(zap.Uint64("typeId", typeId), zap.Error(err)).Warn("MultiEdition: CreateAndMint rejected by receiver")
		return 0, fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}

	l.emitter.Emit(event.EditionCreatedEvent, event.EditionCreated{
		Contract:  l.address,
		TypeId:    typeId,
		Creator:   creator,
		TokenUri:  uri,
		MaxSupply: maxSupply,
	})
	l.emitter.Emit(event.EditionMintedEvent, event.EditionMinted{
		Contract: l.address,
		TypeId:   typeId,
		To:       to,
		Quantity: amount,
	})

	return typeId, nil
}

// Burn destroys units from a holder's balance. The caller must be the holder
// or a delegated operator. The type record survives; mintedSupply does not
// decrease.
func (l *MultiEdition) Burn(caller, holder string, typeId, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	caller = strings.ToLower(caller)
	holder = strings.ToLower(holder)

	l.mu.Lock()
	if _, ok := l.types[typeId]; !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	if caller != holder && !l.operators[holder][caller] {
		l.mu.Unlock()
		return ErrNotApproved
	}
	if l.balances[typeId][holder] < amount {
		l.mu.Unlock()
		return ErrInsufficientBalance
	}
	l.balances[typeId][holder] -= amount
	l.mu.Unlock()

	l.emitter.Emit(event.TokenBurnedEvent, event.TokenBurned{
		Contract: l.address,
		TokenId:  typeId,
		Holder:   holder,
		Quantity: amount,
	})

	return nil
}

func (l *MultiEdition) TypeExists(typeId uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.types[typeId]
	return ok
}

func (l *MultiEdition) TotalTypes() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.nextId - 1
}

func (l *MultiEdition) GetType(typeId uint64) (entity.EditionType, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	t, ok := l.types[typeId]
	if !ok {
		return entity.EditionType{}, ErrNotFound
	}

	return entity.EditionType{
		Contract:     l.address,
		TypeId:       typeId,
		Creator:      t.creator,
		TokenUri:     t.uri,
		MaxSupply:    t.maxSupply,
		MintedSupply: t.mintedSupply,
		Royalty:      l.royalties.get(typeId),
	}, nil
}

func (l *MultiEdition) BalanceOf(holder string, typeId uint64) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if balances, ok := l.balances[typeId]; ok {
		return balances[strings.ToLower(holder)]
	}
	return 0
}

func (l *MultiEdition) SetApprovalForAll(caller, operator string, approved bool) {
	caller = strings.ToLower(caller)
	operator = strings.ToLower(operator)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.operators[caller] == nil {
		l.operators[caller] = make(map[string]bool)
	}
	l.operators[caller][operator] = approved
}

func (l *MultiEdition) IsApprovedForAll(owner, operator string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.operators[strings.ToLower(owner)][strings.ToLower(operator)]
}

// TransferFrom moves units between holders. The operator must be the holder
// or hold a blanket approval; a programmable recipient must acknowledge
// receipt or the transfer is undone.
func (l *MultiEdition) TransferFrom(operator, from, to string, typeId, amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}

	operator = strings.ToLower(operator)
	from = strings.ToLower(from)
	to = strings.ToLower(to)

	if entity.IsZeroAddress(to) {
		return ErrInvalidReceiver
	}

	l.mu.Lock()
	if _, ok := l.types[typeId]; !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	if operator != from && !l.operators[from][operator] {
		l.mu.Unlock()
		return ErrNotApproved
	}
	if l.balances[typeId][from] < amount {
		l.mu.Unlock()
		return ErrInsufficientBalance
	}
	l.balances[typeId][from] -= amount
	l.balances[typeId][to] += amount
	l.mu.Unlock()

	if err := l.receivers.acknowledge(operator, from, to, typeId, amount); err != nil {
		l.mu.Lock()
		l.balances[typeId][to] -= amount
		l.balances[typeId][from] += amount
		l.mu.Unlock()
		zap.L().With(zap.Uint64("typeId", typeId), zap.String("to", to), zap.Error(err)).Warn("MultiEdition: Transfer rejected by receiver")
		return fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}

	l.emitter.Emit(event.TokenTransferredEvent, event.TokenTransferred{
		Contract: l.address,
		TokenId:  typeId,
		From:     from,
		To:       to,
		Quantity: amount,
	})

	return nil
}

// SetRoyalty overwrites the type's royalty. Only the creator or a global
// administrator may change it.
func (l *MultiEdition) SetRoyalty(caller string, typeId uint64, receiver string, rateBps uint64) error {
	caller = strings.ToLower(caller)

	l.mu.Lock()
	t, ok := l.types[typeId]
	if !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	if caller != t.creator && !l.roles.IsAdmin(caller) {
		l.mu.Unlock()
		return ErrUnauthorized
	}
	if err := l.royalties.set(typeId, receiver, rateBps); err != nil {
		l.mu.Unlock()
		return err
	}
	royalty := l.royalties.get(typeId)
	l.mu.Unlock()

	l.emitter.Emit(event.RoyaltyUpdatedEvent, event.RoyaltyUpdated{
		Contract: l.address,
		TokenId:  typeId,
		Receiver: royalty.Receiver,
		RateBps:  royalty.RateBps,
	})

	return nil
}

// RoyaltyInfo reports the royalty receiver and amount for a sale of the
// type at the given price.
func (l *MultiEdition) RoyaltyInfo(typeId uint64, salePrice *big.Int) (string, *big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.types[typeId]; !ok {
		return "", nil, ErrNotFound
	}

	receiver, amount := l.royalties.info(typeId, salePrice)
	return receiver, amount, nil
}
