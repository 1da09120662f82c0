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

// SingleEdition is the issuance ledger for unique tokens: one unit per
// identifier, one owner at a time. Identifiers are assigned from a monotonic
// counter owned by the instance and are never reused, not even after a burn.
type SingleEdition struct {
	address   string
	roles     *auth.Roles
	receivers *ReceiverRegistry
	emitter   event.Emitter

	mu        sync.RWMutex
	nextId    uint64
	owners    map[uint64]string
	creators  map[uint64]string
	uris      map[uint64]string
	approved  map[uint64]string
	operators map[string]map[string]bool
	royalties royaltyRegistry
}

func NewSingleEdition(address string, roles *auth.Roles, receivers *ReceiverRegistry, defaultRoyaltyBps uint64, emitter event.Emitter) *SingleEdition {
	if emitter == nil {
		emitter = event.NoopEmitter{}
	}
	return &SingleEdition{
		address:   strings.ToLower(address),
		roles:     roles,
		receivers: receivers,
		emitter:   emitter,
		nextId:    1,
		owners:    make(map[uint64]string),
		creators:  make(map[uint64]string),
		uris:      make(map[uint64]string),
		approved:  make(map[uint64]string),
		operators: make(map[string]map[string]bool),
		royalties: newRoyaltyRegistry(defaultRoyaltyBps),
	}
}

func (l *SingleEdition) Address() string {
	return l.address
}

func (l *SingleEdition) Standard() entity.Standard {
	return entity.ERC721
}

// Mint issues a new token where the owner is also the creator.
func (l *SingleEdition) Mint(caller, owner, uri string) (uint64, error) {
	return l.MintFor(caller, owner, owner, uri)
}

// MintFor issues a new token on behalf of a creator. This is the
// request-to-mint path: an administrator mints for an artist, the artist
// stays on record as creator and default royalty receiver.
func (l *SingleEdition) MintFor(caller, owner, creator, uri string) (uint64, error) {
	if !l.roles.IsMinter(caller) {
		return 0, ErrUnauthorized
	}
	if entity.IsZeroAddress(creator) {
		return 0, ErrInvalidCreator
	}
	if entity.IsZeroAddress(owner) {
		return 0, ErrInvalidReceiver
	}

	owner = strings.ToLower(owner)
	creator = strings.ToLower(creator)

	l.mu.Lock()
	tokenId := l.nextId
	l.nextId++
	l.owners[tokenId] = owner
	l.creators[tokenId] = creator
	l.uris[tokenId] = uri
	l.royalties.bind(tokenId, creator)
	l.mu.Unlock()

	if err := l.receivers.acknowledge(strings.ToLower(caller), entity.ZeroAddress, owner, tokenId, 1); err != nil {
		l.mu.Lock()
		delete(l.owners, tokenId)
		delete(l.creators, tokenId)
		delete(l.uris, tokenId)
		l.royalties.unbind(tokenId)
		l.mu.Unlock()
		zap.L().With(zap.Uint64("tokenId", tokenId), zap.Error(err)).Warn("SingleEdition: Mint rejected by receiver")
		return 0, fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}

	l.emitter.Emit(event.TokenMintedEvent, event.TokenMinted{
		Contract: l.address,
		TokenId:  tokenId,
		Owner:    owner,
		Creator:  creator,
		TokenUri: uri,
	})

	return tokenId, nil
}

// Burn destroys a token. Only the current owner or a delegated operator may
// burn; the identifier is permanently invalid afterwards.
func (l *SingleEdition) Burn(caller string, tokenId uint64) error {
	caller = strings.ToLower(caller)

	l.mu.Lock()
	owner, ok := l.owners[tokenId]
	if !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	if caller != owner && l.approved[tokenId] != caller && !l.operators[owner][caller] {
		l.mu.Unlock()
		return ErrNotApproved
	}

	delete(l.owners, tokenId)
	delete(l.approved, tokenId)
	l.mu.Unlock()

	l.emitter.Emit(event.TokenBurnedEvent, event.TokenBurned{
		Contract: l.address,
		TokenId:  tokenId,
		Holder:   owner,
		Quantity: 1,
	})

	return nil
}

func (l *SingleEdition) Exists(tokenId uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.owners[tokenId]
	return ok
}

func (l *SingleEdition) OwnerOf(tokenId uint64) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	owner, ok := l.owners[tokenId]
	if !ok {
		return "", ErrNotFound
	}
	return owner, nil
}

func (l *SingleEdition) CreatorOf(tokenId uint64) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.owners[tokenId]; !ok {
		return "", ErrNotFound
	}
	return l.creators[tokenId], nil
}

func (l *SingleEdition) TokenURI(tokenId uint64) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.owners[tokenId]; !ok {
		return "", ErrNotFound
	}
	return l.uris[tokenId], nil
}

func (l *SingleEdition) TotalMinted() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.nextId - 1
}

// Approve grants a single-token transfer approval.
func (l *SingleEdition) Approve(caller, operator string, tokenId uint64) error {
	caller = strings.ToLower(caller)
	operator = strings.ToLower(operator)

	l.mu.Lock()
	defer l.mu.Unlock()

	owner, ok := l.owners[tokenId]
	if !ok {
		return ErrNotFound
	}
	if caller != owner && !l.operators[owner][caller] {
		return ErrNotApproved
	}

	l.approved[tokenId] = operator
	return nil
}

func (l *SingleEdition) GetApproved(tokenId uint64) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.owners[tokenId]; !ok {
		return "", ErrNotFound
	}
	return l.approved[tokenId], nil
}

// SetApprovalForAll grants or revokes a blanket operator approval.
func (l *SingleEdition) SetApprovalForAll(caller, operator string, approved bool) {
	caller = strings.ToLower(caller)
	operator = strings.ToLower(operator)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.operators[caller] == nil {
		l.operators[caller] = make(map[string]bool)
	}
	l.operators[caller][operator] = approved
}

func (l *SingleEdition) IsApprovedForAll(owner, operator string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.operators[strings.ToLower(owner)][strings.ToLower(operator)]
}

// TransferFrom moves a token between owners. The operator must be the owner
// or hold a standing approval; a programmable recipient must acknowledge
// receipt or the transfer is undone.
func (l *SingleEdition) TransferFrom(operator, from, to string, tokenId uint64) error {
	operator = strings.ToLower(operator)
	from = strings.ToLower(from)
	to = strings.ToLower(to)

	if entity.IsZeroAddress(to) {
		return ErrInvalidReceiver
	}

	l.mu.Lock()
	owner, ok := l.owners[tokenId]
	if !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	if owner != from {
		l.mu.Unlock()
		return ErrNotOwner
	}
	if operator != owner && l.approved[tokenId] != operator && !l.operators[owner][operator] {
		l.mu.Unlock()
		return ErrNotApproved
	}

	l.owners[tokenId] = to
	delete(l.approved, tokenId)
	l.mu.Unlock()

	if err := l.receivers.acknowledge(operator, from, to, tokenId, 1); err != nil {
		l.mu.Lock()
		l.owners[tokenId] = from
		l.mu.Unlock()
		zap.L().With(zap.Uint64("tokenId", tokenId), zap.String("to", to), zap.Error(err)).Warn("SingleEdition: Transfer rejected by receiver")
		return fmt.Errorf("%w: %v", ErrTransferRejected, err)
	}

	l.emitter.Emit(event.TokenTransferredEvent, event.TokenTransferred{
		Contract: l.address,
		TokenId:  tokenId,
		From:     from,
		To:       to,
		Quantity: 1,
	})

	return nil
}

// SetRoyalty overwrites the token's royalty. Only the creator or a global
// administrator may change it.
func (l *SingleEdition) SetRoyalty(caller string, tokenId uint64, receiver string, rateBps uint64) error {
	caller = strings.ToLower(caller)

	l.mu.Lock()
	if _, ok := l.owners[tokenId]; !ok {
		l.mu.Unlock()
		return ErrNotFound
	}
	if caller != l.creators[tokenId] && !l.roles.IsAdmin(caller) {
		l.mu.Unlock()
		return ErrUnauthorized
	}
	if err := l.royalties.set(tokenId, receiver, rateBps); err != nil {
		l.mu.Unlock()
		return err
	}
	royalty := l.royalties.get(tokenId)
	l.mu.Unlock()

	l.emitter.Emit(event.RoyaltyUpdatedEvent, event.RoyaltyUpdated{
		Contract: l.address,
		TokenId:  tokenId,
		Receiver: royalty.Receiver,
		RateBps:  royalty.RateBps,
	})

	return nil
}

// RoyaltyInfo reports the royalty receiver and amount for a sale at the
// given price.
func (l *SingleEdition) RoyaltyInfo(tokenId uint64, salePrice *big.Int) (string, *big.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, ok := l.owners[tokenId]; !ok {
		return "", nil, ErrNotFound
	}

	receiver, amount := l.royalties.info(tokenId, salePrice)
	return receiver, amount, nil
}
