package mirror

import (
	"math/big"
	"time"

	"github.com/ellifont/NFT-platform/internal/elastic_search"
	"github.com/ellifont/NFT-platform/internal/entity"
	"github.com/ellifont/NFT-platform/internal/event"
	"github.com/ellifont/NFT-platform/internal/metadata"
	"github.com/ellifont/NFT-platform/internal/repository"
	"go.uber.org/zap"
)

// Projector mirrors settlement events into the document store so the
// query API never has to read the live engine. Listings are retained in
// every terminal state for audit.
type Projector struct {
	elastic     elastic_search.Index
	listingRepo repository.ListingRepository
	nftRepo     repository.NftRepository
	metadata    metadata.Service
	nowFn       func() time.Time
}

func NewProjector(
	elastic elastic_search.Index,
	listingRepo repository.ListingRepository,
	nftRepo repository.NftRepository,
	metadataService metadata.Service,
) *Projector {
	return &Projector{
		elastic:     elastic,
		listingRepo: listingRepo,
		nftRepo:     nftRepo,
		metadata:    metadataService,
		nowFn:       time.Now,
	}
}

// flushInterval bounds how long a buffered audit write waits for a bulk flush.
const flushInterval = 5 * time.Second

// Subscribe attaches the projector to the engine's event stream and starts
// the bulk flush loop.
func (p *Projector) Subscribe() {
	event.AddEventListener(event.TokenMintedEvent, p.OnTokenMinted)
	event.AddEventListener(event.TokenTransferredEvent, p.OnTokenTransferred)
	event.AddEventListener(event.TokenBurnedEvent, p.OnTokenBurned)
	event.AddEventListener(event.EditionCreatedEvent, p.OnEditionCreated)
	event.AddEventListener(event.EditionMintedEvent, p.OnEditionMinted)
	event.AddEventListener(event.RoyaltyUpdatedEvent, p.OnRoyaltyUpdated)
	event.AddEventListener(event.ListedEvent, p.OnListed)
	event.AddEventListener(event.SaleEvent, p.OnSale)
	event.AddEventListener(event.ListingCancelledEvent, p.OnListingCancelled)

	go p.flushLoop()
}

func (p *Projector) flushLoop() {
	for {
		time.Sleep(flushInterval)
		p.elastic.Persist()
	}
}

func (p *Projector) OnTokenMinted(msg interface{}) {
	minted, ok := msg.(event.TokenMinted)
	if !ok {
		return
	}

	token := entity.Token{
		Contract: minted.Contract,
		TokenId:  minted.TokenId,
		Owner:    minted.Owner,
		Creator:  minted.Creator,
		TokenUri: minted.TokenUri,
	}

	if p.metadata != nil {
		if md, err := p.metadata.FetchMetadata(minted.TokenUri); err != nil {
			token.MetadataError = err.Error()
		} else {
			token.HasMetadata = true
			token.Metadata = md
		}
	}

	p.elastic.Save(elastic_search.NftIndex.Get(), token)
	p.action(entity.MarketAction{
		Contract: minted.Contract,
		TokenId:  minted.TokenId,
		Action:   entity.MintAction,
		From:     entity.ZeroAddress,
		To:       minted.Owner,
		Quantity: 1,
		Standard: entity.ERC721,
	})

	zap.L().With(zap.String("contract", minted.Contract), zap.Uint64("tokenId", minted.TokenId)).Info("Mirror: Token minted")
}

func (p *Projector) OnTokenTransferred(msg interface{}) {
	transferred, ok := msg.(event.TokenTransferred)
	if !ok {
		return
	}

	token, err := p.nftRepo.GetNft(transferred.Contract, transferred.TokenId)
	if err == nil {
		token.Owner = transferred.To
		p.elastic.Save(elastic_search.NftIndex.Get(), token)
	}
}

func (p *Projector) OnTokenBurned(msg interface{}) {
	burned, ok := msg.(event.TokenBurned)
	if !ok {
		return
	}

	if token, err := p.nftRepo.GetNft(burned.Contract, burned.TokenId); err == nil {
		token.BurnedAt = uint64(p.nowFn().Unix())
		p.elastic.Save(elastic_search.NftIndex.Get(), token)
	}

	p.action(entity.MarketAction{
		Contract: burned.Contract,
		TokenId:  burned.TokenId,
		Action:   entity.BurnAction,
		From:     burned.Holder,
		To:       entity.ZeroAddress,
		Quantity: burned.Quantity,
	})
}

func (p *Projector) OnEditionCreated(msg interface{}) {
	created, ok := msg.(event.EditionCreated)
	if !ok {
		return
	}

	p.elastic.Save(elastic_search.EditionIndex.Get(), entity.EditionType{
		Contract:  created.Contract,
		TypeId:    created.TypeId,
		Creator:   created.Creator,
		TokenUri:  created.TokenUri,
		MaxSupply: created.MaxSupply,
	})
}

func (p *Projector) OnEditionMinted(msg interface{}) {
	minted, ok := msg.(event.EditionMinted)
	if !ok {
		return
	}

	edition, err := p.nftRepo.GetEdition(minted.Contract, minted.TypeId)
	if err != nil {
		zap.L().With(zap.Uint64("typeId", minted.TypeId), zap.Error(err)).Warn("Mirror: Minted edition not found")
		return
	}

	edition.MintedSupply += minted.Quantity
	p.elastic.Save(elastic_search.EditionIndex.Get(), edition)

	p.action(entity.MarketAction{
		Contract: minted.Contract,
		TokenId:  minted.TypeId,
		Action:   entity.MintAction,
		From:     entity.ZeroAddress,
		To:       minted.To,
		Quantity: minted.Quantity,
		Standard: entity.ERC1155,
	})
}

func (p *Projector) OnRoyaltyUpdated(msg interface{}) {
	updated, ok := msg.(event.RoyaltyUpdated)
	if !ok {
		return
	}

	royalty := entity.Royalty{Receiver: updated.Receiver, RateBps: updated.RateBps}

	if token, err := p.nftRepo.GetNft(updated.Contract, updated.TokenId); err == nil {
		token.Royalty = royalty
		p.elastic.Save(elastic_search.NftIndex.Get(), token)
		return
	}

	if edition, err := p.nftRepo.GetEdition(updated.Contract, updated.TokenId); err == nil {
		edition.Royalty = royalty
		p.elastic.Save(elastic_search.EditionIndex.Get(), edition)
	}
}

func (p *Projector) OnListed(msg interface{}) {
	listed, ok := msg.(event.Listed)
	if !ok {
		return
	}

	p.elastic.Save(elastic_search.ListingIndex.Get(), entity.Listing{
		Id:            listed.ListingId,
		Seller:        listed.Seller,
		TokenContract: listed.TokenContract,
		TokenId:       listed.TokenId,
		Quantity:      listed.Quantity,
		Price:         listed.Price,
		Standard:      listed.Standard,
		Status:        entity.ListingActive,
		CreatedAt:     p.nowFn(),
	})

	p.action(entity.MarketAction{
		Contract:  listed.TokenContract,
		TokenId:   listed.TokenId,
		ListingId: listed.ListingId,
		Action:    entity.ListingAction,
		From:      listed.Seller,
		Quantity:  listed.Quantity,
		Cost:      listed.Price,
		Standard:  listed.Standard,
	})

	zap.L().With(zap.Uint64("listingId", listed.ListingId)).Info("Mirror: Listed")
}

func (p *Projector) OnSale(msg interface{}) {
	sale, ok := msg.(event.Sale)
	if !ok {
		return
	}

	listing, err := p.listingRepo.GetListing(sale.ListingId)
	if err != nil {
		zap.L().With(zap.Uint64("listingId", sale.ListingId), zap.Error(err)).Warn("Mirror: Sold listing not found")
		return
	}

	listing.Status = entity.ListingSold
	listing.Buyer = sale.Buyer
	listing.PlatformFee = sale.PlatformFee
	listing.RoyaltyFee = sale.RoyaltyAmount
	listing.SellerProceeds = executedProceeds(sale)
	p.elastic.Save(elastic_search.ListingIndex.Get(), listing)

	if listing.Standard == entity.ERC721 {
		if token, err := p.nftRepo.GetNft(listing.TokenContract, listing.TokenId); err == nil {
			token.Owner = sale.Buyer
			p.elastic.Save(elastic_search.NftIndex.Get(), token)
		}
	}

	p.action(entity.MarketAction{
		Contract:  listing.TokenContract,
		TokenId:   listing.TokenId,
		ListingId: sale.ListingId,
		Action:    entity.SaleAction,
		From:      sale.Seller,
		To:        sale.Buyer,
		Quantity:  listing.Quantity,
		Cost:      sale.Price,
		Fee:       sale.PlatformFee,
		Royalty:   sale.RoyaltyAmount,
		Standard:  listing.Standard,
	})

	zap.L().With(zap.Uint64("listingId", sale.ListingId), zap.String("buyer", sale.Buyer)).Info("Mirror: Sale")
}

func (p *Projector) OnListingCancelled(msg interface{}) {
	cancelled, ok := msg.(event.ListingCancelled)
	if !ok {
		return
	}

	listing, err := p.listingRepo.GetListing(cancelled.ListingId)
	if err != nil {
		zap.L().With(zap.Uint64("listingId", cancelled.ListingId), zap.Error(err)).Warn("Mirror: Cancelled listing not found")
		return
	}

	listing.Status = entity.ListingCancelled
	p.elastic.Save(elastic_search.ListingIndex.Get(), listing)

	p.action(entity.MarketAction{
		Contract:  listing.TokenContract,
		TokenId:   listing.TokenId,
		ListingId: cancelled.ListingId,
		Action:    entity.CancelAction,
		From:      cancelled.Seller,
		Quantity:  listing.Quantity,
		Standard:  listing.Standard,
	})
}

// executedProceeds recovers the seller's share from the settlement breakdown.
func executedProceeds(sale event.Sale) string {
	price, ok := new(big.Int).SetString(sale.Price, 10)
	if !ok {
		return ""
	}
	fee, ok := new(big.Int).SetString(sale.PlatformFee, 10)
	if !ok {
		return ""
	}
	royalty, ok := new(big.Int).SetString(sale.RoyaltyAmount, 10)
	if !ok {
		return ""
	}

	proceeds := new(big.Int).Sub(price, fee)
	proceeds.Sub(proceeds, royalty)

	return proceeds.String()
}

// Audit documents are append-only and never read back by the handlers, so
// they go through the buffered bulk pipeline. Documents the repositories
// read back are saved immediately.
func (p *Projector) action(action entity.MarketAction) {
	action.Timestamp = p.nowFn().UnixNano()
	p.elastic.AddIndexRequest(elastic_search.ActionIndex.Get(), action)
	p.elastic.BatchPersist()
}
