package market

import (
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ellifont/NFT-platform/internal/auth"
	"github.com/ellifont/NFT-platform/internal/entity"
	"github.com/ellifont/NFT-platform/internal/event"
	"github.com/ellifont/NFT-platform/internal/funds"
	"go.uber.org/zap"
)

// SingleLedger is the surface the engine consumes from a single-edition
// issuance ledger.
type SingleLedger interface {
	OwnerOf(tokenId uint64) (string, error)
	GetApproved(tokenId uint64) (string, error)
	IsApprovedForAll(owner, operator string) bool
	TransferFrom(operator, from, to string, tokenId uint64) error
}

// MultiLedger is the surface the engine consumes from a multi-edition
// issuance ledger.
type MultiLedger interface {
	BalanceOf(holder string, typeId uint64) uint64
	IsApprovedForAll(owner, operator string) bool
	TransferFrom(operator, from, to string, typeId, amount uint64) error
}

// RoyaltyProvider is probed softly on registered ledgers. A ledger that does
// not implement it simply pays no royalty.
type RoyaltyProvider interface {
	RoyaltyInfo(tokenId uint64, salePrice *big.Int) (string, *big.Int, error)
}

// listing is the live state-machine record. The mutex guards the status
// transition; the status itself is the re-entrancy gate during settlement.
type listing struct {
	mu sync.Mutex

	id            uint64
	seller        string
	tokenContract string
	tokenId       uint64
	quantity      uint64
	price         *big.Int
	standard      entity.Standard
	status        entity.ListingStatus
	createdAt     time.Time

	buyer          string
	platformFee    *big.Int
	royaltyFee     *big.Int
	sellerProceeds *big.Int
}

// Engine is the marketplace settlement engine: the listing lifecycle state
// machine plus the fee/royalty distribution algorithm. It never custodies
// assets; sellers keep their tokens and grant the engine a standing transfer
// approval that is re-checked at settlement time.
type Engine struct {
	address string
	roles   *auth.Roles
	funds   *funds.Ledger
	emitter event.Emitter
	nowFn   func() time.Time

	cfgMu        sync.RWMutex
	feeBps       uint64
	feeRecipient string
	paused       bool

	mu          sync.RWMutex
	nextId      uint64
	listings    map[uint64]*listing
	sellerIndex map[string][]uint64
	singles     map[string]SingleLedger
	multis      map[string]MultiLedger
}

func NewEngine(address string, roles *auth.Roles, bank *funds.Ledger, feeBps uint64, feeRecipient string, emitter event.Emitter) (*Engine, error) {
	if feeBps > entity.MaxPlatformFeeBps {
		return nil, ErrFeeTooHigh
	}
	if entity.IsZeroAddress(feeRecipient) {
		return nil, ErrInvalidRecipient
	}
	if emitter == nil {
		emitter = event.NoopEmitter{}
	}

	return &Engine{
		address:      strings.ToLower(address),
		roles:        roles,
		funds:        bank,
		emitter:      emitter,
		nowFn:        time.Now,
		feeBps:       feeBps,
		feeRecipient: strings.ToLower(feeRecipient),
		nextId:       1,
		listings:     make(map[uint64]*listing),
		sellerIndex:  make(map[string][]uint64),
		singles:      make(map[string]SingleLedger),
		multis:       make(map[string]MultiLedger),
	}, nil
}

// Address is the engine's own account, the operator identity sellers approve.
// Settlement moves value buyer-to-party directly; the engine holds no funds.
func (e *Engine) Address() string {
	return e.address
}

// SetNowFunc overrides the time source for deterministic tests.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now != nil {
		e.nowFn = now
	}
}

func (e *Engine) RegisterSingleLedger(contract string, l SingleLedger) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.singles[strings.ToLower(contract)] = l
}

func (e *Engine) RegisterMultiLedger(contract string, l MultiLedger) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.multis[strings.ToLower(contract)] = l
}

type engineConfig struct {
	feeBps       uint64
	feeRecipient string
	paused       bool
}

// snapshot reads the administrative configuration once per operation so a
// concurrent fee change cannot produce an inconsistent split mid-sale.
func (e *Engine) snapshot() engineConfig {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()

	return engineConfig{feeBps: e.feeBps, feeRecipient: e.feeRecipient, paused: e.paused}
}

// List creates an Active listing after verifying custody and the engine's
// standing approval. For single-edition tokens quantity must be 1.
func (e *Engine) List(seller, tokenContract string, tokenId, quantity uint64, price *big.Int) (uint64, error) {
	cfg := e.snapshot()
	if cfg.paused {
		return 0, ErrPaused
	}
	if price == nil || price.Sign() <= 0 {
		return 0, ErrInvalidPrice
	}
	if quantity == 0 {
		return 0, ErrInvalidAmount
	}

	seller = strings.ToLower(seller)
	tokenContract = strings.ToLower(tokenContract)

	e.mu.RLock()
	single := e.singles[tokenContract]
	multi := e.multis[tokenContract]
	e.mu.RUnlock()

	var standard entity.Standard
	switch {
	case single != nil:
		standard = entity.ERC721
		if quantity != 1 {
			return 0, ErrInvalidAmount
		}
		owner, err := single.OwnerOf(tokenId)
		if err != nil {
			return 0, err
		}
		if owner != seller {
			return 0, ErrNotOwner
		}
		if !e.approvedSingle(single, seller, tokenId) {
			return 0, ErrNotApproved
		}
	case multi != nil:
		standard = entity.ERC1155
		if multi.BalanceOf(seller, tokenId) < quantity {
			return 0, ErrInsufficientBalance
		}
		if !multi.IsApprovedForAll(seller, e.address) {
			return 0, ErrNotApproved
		}
	default:
		return 0, ErrUnknownContract
	}

	e.mu.Lock()
	id := e.nextId
	e.nextId++
	l := &listing{
		id:            id,
		seller:        seller,
		tokenContract: tokenContract,
		tokenId:       tokenId,
		quantity:      quantity,
		price:         new(big.Int).Set(price),
		standard:      standard,
		status:        entity.ListingActive,
		createdAt:     e.nowFn(),
	}
	e.listings[id] = l
	e.sellerIndex[seller] = append(e.sellerIndex[seller], id)
	e.mu.Unlock()

	zap.L().With(
		zap.Uint64("listingId", id),
		zap.String("seller", seller),
		zap.String("contract", tokenContract),
		zap.Uint64("tokenId", tokenId),
		zap.String("price", price.String()),
	).Info("Market: Listed")

	e.emitter.Emit(event.ListedEvent, event.Listed{
		ListingId:     id,
		Seller:        seller,
		TokenContract: tokenContract,
		TokenId:       tokenId,
		Quantity:      quantity,
		Price:         price.String(),
		Standard:      standard,
	})

	return id, nil
}

// Buy settles an Active listing atomically: exact payment in, asset to the
// buyer, and a three-way value split out. Any failure after the status flip
// is compensated so no partial state survives.
func (e *Engine) Buy(buyer string, listingId uint64, payment *big.Int) error {
	cfg := e.snapshot()
	if cfg.paused {
		return ErrPaused
	}

	buyer = strings.ToLower(buyer)

	l := e.listing(listingId)
	if l == nil {
		return ErrListingNotFound
	}

	e.mu.RLock()
	single := e.singles[l.tokenContract]
	multi := e.multis[l.tokenContract]
	e.mu.RUnlock()

	l.mu.Lock()
	if l.status != entity.ListingActive {
		l.mu.Unlock()
		return ErrListingNotActive
	}
	if buyer == l.seller {
		l.mu.Unlock()
		return ErrSelfPurchase
	}
	if payment == nil || payment.Cmp(l.price) != 0 {
		l.mu.Unlock()
		return ErrWrongPayment
	}

	// Custody and approval are re-checked here, before the status flips:
	// a stale approval must fail the buy, never strand a Sold listing.
	if err := e.checkCustody(l, single, multi); err != nil {
		l.mu.Unlock()
		return err
	}

	price := l.price
	platformFee := new(big.Int).Mul(price, new(big.Int).SetUint64(cfg.feeBps))
	platformFee.Div(platformFee, new(big.Int).SetUint64(entity.BpsDenominator))

	royaltyReceiver, royaltyFee := e.royaltyFor(l, price)
	sellerProceeds := new(big.Int).Sub(price, platformFee)
	sellerProceeds.Sub(sellerProceeds, royaltyFee)

	// Checks done, effects next: flipping to Sold before any external call
	// is the re-entrancy gate. A hook that re-invokes Buy on this listing
	// sees a non-Active status and fails.
	l.status = entity.ListingSold
	seller := l.seller
	l.mu.Unlock()

	type payout struct {
		to     string
		amount *big.Int
	}
	payouts := make([]payout, 0, 3)
	if platformFee.Sign() > 0 {
		payouts = append(payouts, payout{cfg.feeRecipient, platformFee})
	}
	if royaltyFee.Sign() > 0 {
		payouts = append(payouts, payout{royaltyReceiver, royaltyFee})
	}
	if sellerProceeds.Sign() > 0 {
		payouts = append(payouts, payout{seller, sellerProceeds})
	}

	rollback := func(done []payout, cause error) error {
		for i := len(done) - 1; i >= 0; i-- {
			e.funds.Reverse(buyer, done[i].to, done[i].amount)
		}
		l.mu.Lock()
		l.status = entity.ListingActive
		l.mu.Unlock()
		zap.L().With(zap.Uint64("listingId", listingId), zap.Error(cause)).Warn("Market: Buy rolled back")
		return cause
	}

	done := make([]payout, 0, 3)
	for _, p := range payouts {
		if err := e.funds.Transfer(buyer, p.to, p.amount); err != nil {
			return rollback(done, err)
		}
		done = append(done, p)
	}

	// Asset transfer runs last so a rejecting recipient only ever forces
	// value compensation, never an asset reversal.
	var transferErr error
	if l.standard == entity.ERC721 {
		transferErr = single.TransferFrom(e.address, seller, buyer, l.tokenId)
	} else {
		transferErr = multi.TransferFrom(e.address, seller, buyer, l.tokenId, l.quantity)
	}
	if transferErr != nil {
		return rollback(done, transferErr)
	}

	l.mu.Lock()
	l.buyer = buyer
	l.platformFee = platformFee
	l.royaltyFee = royaltyFee
	l.sellerProceeds = sellerProceeds
	l.mu.Unlock()

	zap.L().With(
		zap.Uint64("listingId", listingId),
		zap.String("buyer", buyer),
		zap.String("seller", seller),
		zap.String("price", price.String()),
		zap.String("platformFee", platformFee.String()),
		zap.String("royalty", royaltyFee.String()),
	).Info("Market: Sale")

	e.emitter.Emit(event.SaleEvent, event.Sale{
		ListingId:       listingId,
		Buyer:           buyer,
		Seller:          seller,
		Price:           price.String(),
		PlatformFee:     platformFee.String(),
		RoyaltyAmount:   royaltyFee.String(),
		RoyaltyReceiver: royaltyReceiver,
	})

	return nil
}

// Cancel moves an Active listing to Cancelled. Only the seller or an
// administrator may cancel. Cancellation stays available while paused so
// sellers can exit a halted system. Nothing was escrowed, so nothing moves.
func (e *Engine) Cancel(caller string, listingId uint64) error {
	caller = strings.ToLower(caller)

	l := e.listing(listingId)
	if l == nil {
		return ErrListingNotFound
	}

	l.mu.Lock()
	if caller != l.seller && !e.roles.IsAdmin(caller) {
		l.mu.Unlock()
		return ErrUnauthorized
	}
	if l.status != entity.ListingActive {
		l.mu.Unlock()
		return ErrListingNotActive
	}
	l.status = entity.ListingCancelled
	seller := l.seller
	l.mu.Unlock()

	zap.L().With(zap.Uint64("listingId", listingId), zap.String("seller", seller)).Info("Market: Listing cancelled")

	e.emitter.Emit(event.ListingCancelledEvent, event.ListingCancelled{
		ListingId: listingId,
		Seller:    seller,
	})

	return nil
}

func (e *Engine) checkCustody(l *listing, single SingleLedger, multi MultiLedger) error {
	if l.standard == entity.ERC721 {
		if single == nil {
			return ErrUnknownContract
		}
		owner, err := single.OwnerOf(l.tokenId)
		if err != nil {
			return err
		}
		if owner != l.seller {
			return ErrNotOwner
		}
		if !e.approvedSingle(single, l.seller, l.tokenId) {
			return ErrNotApproved
		}
		return nil
	}

	if multi == nil {
		return ErrUnknownContract
	}
	if multi.BalanceOf(l.seller, l.tokenId) < l.quantity {
		return ErrInsufficientBalance
	}
	if !multi.IsApprovedForAll(l.seller, e.address) {
		return ErrNotApproved
	}
	return nil
}

func (e *Engine) approvedSingle(single SingleLedger, seller string, tokenId uint64) bool {
	if single.IsApprovedForAll(seller, e.address) {
		return true
	}
	approved, err := single.GetApproved(tokenId)
	return err == nil && approved == e.address
}

// royaltyFor queries the ledger's royalty capability if it has one. The
// reported amount is clamped to 10% of the price regardless of what the
// ledger claims, and a royalty payable to the seller is folded into the
// proceeds instead.
func (e *Engine) royaltyFor(l *listing, price *big.Int) (string, *big.Int) {
	e.mu.RLock()
	var provider RoyaltyProvider
	if p, ok := e.singles[l.tokenContract].(RoyaltyProvider); ok && l.standard == entity.ERC721 {
		provider = p
	} else if p, ok := e.multis[l.tokenContract].(RoyaltyProvider); ok && l.standard == entity.ERC1155 {
		provider = p
	}
	e.mu.RUnlock()

	if provider == nil {
		return "", new(big.Int)
	}

	receiver, amount, err := provider.RoyaltyInfo(l.tokenId, price)
	if err != nil || amount == nil || amount.Sign() <= 0 || entity.IsZeroAddress(receiver) {
		return "", new(big.Int)
	}

	receiver = strings.ToLower(receiver)
	if receiver == l.seller {
		return "", new(big.Int)
	}

	ceiling := new(big.Int).Mul(price, new(big.Int).SetUint64(entity.MaxRoyaltyBps))
	ceiling.Div(ceiling, new(big.Int).SetUint64(entity.BpsDenominator))
	if amount.Cmp(ceiling) > 0 {
		amount = ceiling
	}

	return receiver, new(big.Int).Set(amount)
}

func (e *Engine) listing(id uint64) *listing {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.listings[id]
}

// GetListing returns the listing read model.
func (e *Engine) GetListing(id uint64) (entity.Listing, error) {
	l := e.listing(id)
	if l == nil {
		return entity.Listing{}, ErrListingNotFound
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	out := entity.Listing{
		Id:            l.id,
		Seller:        l.seller,
		TokenContract: l.tokenContract,
		TokenId:       l.tokenId,
		Quantity:      l.quantity,
		Price:         l.price.String(),
		Standard:      l.standard,
		Status:        l.status,
		CreatedAt:     l.createdAt,
		Buyer:         l.buyer,
	}
	if l.platformFee != nil {
		out.PlatformFee = l.platformFee.String()
		out.RoyaltyFee = l.royaltyFee.String()
		out.SellerProceeds = l.sellerProceeds.String()
	}
	return out, nil
}

// ListingsBySeller returns the seller's listing ids in insertion order.
func (e *Engine) ListingsBySeller(seller string) []uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := e.sellerIndex[strings.ToLower(seller)]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

func (e *Engine) TotalListings() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.nextId - 1
}

func (e *Engine) IsActive(id uint64) bool {
	l := e.listing(id)
	if l == nil {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.status == entity.ListingActive
}

// SetPlatformFee updates the fee taken on every sale, capped at 10%.
func (e *Engine) SetPlatformFee(caller string, bps uint64) error {
	if !e.roles.IsAdmin(caller) {
		return ErrUnauthorized
	}
	if bps > entity.MaxPlatformFeeBps {
		return ErrFeeTooHigh
	}

	e.cfgMu.Lock()
	old := e.feeBps
	e.feeBps = bps
	e.cfgMu.Unlock()

	e.emitter.Emit(event.PlatformFeeUpdatedEvent, event.PlatformFeeUpdated{OldBps: old, NewBps: bps})
	return nil
}

func (e *Engine) PlatformFee() uint64 {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()

	return e.feeBps
}

func (e *Engine) SetFeeRecipient(caller, recipient string) error {
	if !e.roles.IsAdmin(caller) {
		return ErrUnauthorized
	}
	if entity.IsZeroAddress(recipient) {
		return ErrInvalidRecipient
	}

	recipient = strings.ToLower(recipient)

	e.cfgMu.Lock()
	old := e.feeRecipient
	e.feeRecipient = recipient
	e.cfgMu.Unlock()

	e.emitter.Emit(event.FeeRecipientUpdatedEvent, event.FeeRecipientUpdated{OldRecipient: old, NewRecipient: recipient})
	return nil
}

func (e *Engine) FeeRecipient() string {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()

	return e.feeRecipient
}

// Pause halts listing and buying. Cancellation stays available.
func (e *Engine) Pause(caller string) error {
	if !e.roles.IsAdmin(caller) {
		return ErrUnauthorized
	}

	e.cfgMu.Lock()
	e.paused = true
	e.cfgMu.Unlock()

	zap.L().Info("Market: Paused")
	return nil
}

func (e *Engine) Unpause(caller string) error {
	if !e.roles.IsAdmin(caller) {
		return ErrUnauthorized
	}

	e.cfgMu.Lock()
	e.paused = false
	e.cfgMu.Unlock()

	zap.L().Info("Market: Unpaused")
	return nil
}

func (e *Engine) IsPaused() bool {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()

	return e.paused
}
