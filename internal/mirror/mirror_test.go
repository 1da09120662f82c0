package mirror

import (
	"errors"
	"testing"
	"time"

	"github.com/ellifont/NFT-platform/internal/elastic_search"
	"github.com/ellifont/NFT-platform/internal/entity"
	"github.com/ellifont/NFT-platform/internal/event"
	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type savedDoc struct {
	index  string
	entity entity.Entity
}

// fakeIndex mimics the wrapper's two write paths: immediate saves and the
// buffered bulk pipeline with its persist threshold.
type fakeIndex struct {
	saved          []savedDoc
	buffered       []savedDoc
	flushThreshold int
}

func (f *fakeIndex) GetClient() *elastic.Client { return nil }
func (f *fakeIndex) InstallMappings()           {}

func (f *fakeIndex) AddIndexRequest(index string, e entity.Entity) {
	f.buffered = append(f.buffered, savedDoc{index, e})
}

func (f *fakeIndex) AddUpdateRequest(index string, e entity.Entity) {
	f.buffered = append(f.buffered, savedDoc{index, e})
}

func (f *fakeIndex) GetRequests() []elastic_search.Request { return nil }
func (f *fakeIndex) ClearRequests()                        { f.buffered = nil }

func (f *fakeIndex) BatchPersist() bool {
	if f.flushThreshold == 0 || len(f.buffered) < f.flushThreshold {
		return false
	}
	f.Persist()
	return true
}

func (f *fakeIndex) Persist() int {
	flushed := len(f.buffered)
	f.saved = append(f.saved, f.buffered...)
	f.buffered = nil
	return flushed
}

func (f *fakeIndex) Save(index string, e entity.Entity) {
	f.saved = append(f.saved, savedDoc{index, e})
}

func (f *fakeIndex) ofIndex(index string) []entity.Entity {
	out := make([]entity.Entity, 0)
	for _, doc := range f.saved {
		if doc.index == index {
			out = append(out, doc.entity)
		}
	}
	return out
}

type fakeListingRepo struct {
	listings map[uint64]entity.Listing
}

func (f *fakeListingRepo) GetListing(id uint64) (entity.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return entity.Listing{}, errors.New("listing not found")
	}
	return l, nil
}

func (f *fakeListingRepo) GetListings(entity.ListingStatus, string, entity.Standard, int, int) ([]entity.Listing, int64, error) {
	return nil, 0, nil
}

func (f *fakeListingRepo) GetListingsBySeller(string, int, int) ([]entity.Listing, int64, error) {
	return nil, 0, nil
}

type fakeNftRepo struct {
	tokens   map[uint64]entity.Token
	editions map[uint64]entity.EditionType
}

func (f *fakeNftRepo) GetNft(contract string, tokenId uint64) (entity.Token, error) {
	token, ok := f.tokens[tokenId]
	if !ok {
		return entity.Token{}, errors.New("nft not found")
	}
	return token, nil
}

func (f *fakeNftRepo) GetNftsByOwner(string, int, int) ([]entity.Token, int64, error) {
	return nil, 0, nil
}

func (f *fakeNftRepo) GetEdition(contract string, typeId uint64) (entity.EditionType, error) {
	edition, ok := f.editions[typeId]
	if !ok {
		return entity.EditionType{}, errors.New("edition not found")
	}
	return edition, nil
}

type fakeMetadata struct {
	metadata map[string]interface{}
	err      error
}

func (f fakeMetadata) FetchMetadata(tokenUri string) (map[string]interface{}, error) {
	return f.metadata, f.err
}

func newProjectorFixture() (*Projector, *fakeIndex, *fakeListingRepo, *fakeNftRepo) {
	idx := &fakeIndex{flushThreshold: 1}
	listings := &fakeListingRepo{listings: make(map[uint64]entity.Listing)}
	nfts := &fakeNftRepo{tokens: make(map[uint64]entity.Token), editions: make(map[uint64]entity.EditionType)}

	p := NewProjector(idx, listings, nfts, fakeMetadata{metadata: map[string]interface{}{"name": "One"}})
	p.nowFn = func() time.Time { return time.Unix(1700000000, 0) }

	return p, idx, listings, nfts
}

func TestOnTokenMinted(t *testing.T) {
	p, idx, _, _ := newProjectorFixture()

	p.OnTokenMinted(event.TokenMinted{
		Contract: "0xabc",
		TokenId:  1,
		Owner:    "0xalice",
		Creator:  "0xzoe",
		TokenUri: "ipfs://meta/1",
	})

	docs := idx.ofIndex(elastic_search.NftIndex.Get())
	require.Len(t, docs, 1)
	token := docs[0].(entity.Token)
	assert.Equal(t, "0xalice", token.Owner)
	assert.True(t, token.HasMetadata)

	actions := idx.ofIndex(elastic_search.ActionIndex.Get())
	require.Len(t, actions, 1)
	assert.Equal(t, entity.MintAction, actions[0].(entity.MarketAction).Action)
}

func TestOnTokenMintedRecordsMetadataError(t *testing.T) {
	p, idx, _, _ := newProjectorFixture()
	p.metadata = fakeMetadata{err: errors.New("unreachable")}

	p.OnTokenMinted(event.TokenMinted{Contract: "0xabc", TokenId: 1, Owner: "0xalice", TokenUri: "ipfs://meta/1"})

	docs := idx.ofIndex(elastic_search.NftIndex.Get())
	require.Len(t, docs, 1)
	token := docs[0].(entity.Token)
	assert.False(t, token.HasMetadata)
	assert.Equal(t, "unreachable", token.MetadataError)
}

func TestOnTokenTransferred(t *testing.T) {
	p, idx, _, nfts := newProjectorFixture()
	nfts.tokens[1] = entity.Token{Contract: "0xabc", TokenId: 1, Owner: "0xalice"}

	p.OnTokenTransferred(event.TokenTransferred{Contract: "0xabc", TokenId: 1, From: "0xalice", To: "0xbob"})

	docs := idx.ofIndex(elastic_search.NftIndex.Get())
	require.Len(t, docs, 1)
	assert.Equal(t, "0xbob", docs[0].(entity.Token).Owner)
}

func TestOnTokenBurned(t *testing.T) {
	p, idx, _, nfts := newProjectorFixture()
	nfts.tokens[1] = entity.Token{Contract: "0xabc", TokenId: 1, Owner: "0xalice"}

	p.OnTokenBurned(event.TokenBurned{Contract: "0xabc", TokenId: 1, Holder: "0xalice", Quantity: 1})

	docs := idx.ofIndex(elastic_search.NftIndex.Get())
	require.Len(t, docs, 1)
	assert.Equal(t, uint64(1700000000), docs[0].(entity.Token).BurnedAt)

	actions := idx.ofIndex(elastic_search.ActionIndex.Get())
	require.Len(t, actions, 1)
	assert.Equal(t, entity.BurnAction, actions[0].(entity.MarketAction).Action)
}

func TestOnEditionMinted(t *testing.T) {
	p, idx, _, nfts := newProjectorFixture()
	nfts.editions[3] = entity.EditionType{Contract: "0xdef", TypeId: 3, MaxSupply: 10, MintedSupply: 2}

	p.OnEditionMinted(event.EditionMinted{Contract: "0xdef", TypeId: 3, To: "0xbob", Quantity: 4})

	docs := idx.ofIndex(elastic_search.EditionIndex.Get())
	require.Len(t, docs, 1)
	assert.Equal(t, uint64(6), docs[0].(entity.EditionType).MintedSupply)
}

func TestOnListed(t *testing.T) {
	p, idx, _, _ := newProjectorFixture()

	p.OnListed(event.Listed{
		ListingId:     1,
		Seller:        "0xalice",
		TokenContract: "0xabc",
		TokenId:       7,
		Quantity:      1,
		Price:         "1000000000000000000",
		Standard:      entity.ERC721,
	})

	docs := idx.ofIndex(elastic_search.ListingIndex.Get())
	require.Len(t, docs, 1)
	listing := docs[0].(entity.Listing)
	assert.Equal(t, entity.ListingActive, listing.Status)
	assert.Equal(t, "1000000000000000000", listing.Price)

	actions := idx.ofIndex(elastic_search.ActionIndex.Get())
	require.Len(t, actions, 1)
	assert.Equal(t, entity.ListingAction, actions[0].(entity.MarketAction).Action)
}

func TestOnSale(t *testing.T) {
	p, idx, listings, nfts := newProjectorFixture()
	listings.listings[1] = entity.Listing{
		Id:            1,
		Seller:        "0xalice",
		TokenContract: "0xabc",
		TokenId:       7,
		Quantity:      1,
		Price:         "1000000000000000000",
		Standard:      entity.ERC721,
		Status:        entity.ListingActive,
	}
	nfts.tokens[7] = entity.Token{Contract: "0xabc", TokenId: 7, Owner: "0xalice"}

	p.OnSale(event.Sale{
		ListingId:     1,
		Buyer:         "0xbob",
		Seller:        "0xalice",
		Price:         "1000000000000000000",
		PlatformFee:   "25000000000000000",
		RoyaltyAmount: "50000000000000000",
	})

	docs := idx.ofIndex(elastic_search.ListingIndex.Get())
	require.Len(t, docs, 1)
	listing := docs[0].(entity.Listing)
	assert.Equal(t, entity.ListingSold, listing.Status)
	assert.Equal(t, "0xbob", listing.Buyer)
	assert.Equal(t, "925000000000000000", listing.SellerProceeds)

	tokens := idx.ofIndex(elastic_search.NftIndex.Get())
	require.Len(t, tokens, 1)
	assert.Equal(t, "0xbob", tokens[0].(entity.Token).Owner)

	actions := idx.ofIndex(elastic_search.ActionIndex.Get())
	require.Len(t, actions, 1)
	action := actions[0].(entity.MarketAction)
	assert.Equal(t, entity.SaleAction, action.Action)
	assert.Equal(t, "25000000000000000", action.Fee)
}

func TestActionsBufferUntilPersist(t *testing.T) {
	p, idx, _, _ := newProjectorFixture()
	idx.flushThreshold = 3

	p.OnListed(event.Listed{
		ListingId:     1,
		Seller:        "0xalice",
		TokenContract: "0xabc",
		TokenId:       7,
		Quantity:      1,
		Price:         "1000000000000000000",
		Standard:      entity.ERC721,
	})

	// The listing document is saved immediately; the audit write waits in
	// the bulk buffer until a flush.
	require.Len(t, idx.ofIndex(elastic_search.ListingIndex.Get()), 1)
	assert.Empty(t, idx.ofIndex(elastic_search.ActionIndex.Get()))
	require.Len(t, idx.buffered, 1)

	assert.Equal(t, 1, idx.Persist())

	actions := idx.ofIndex(elastic_search.ActionIndex.Get())
	require.Len(t, actions, 1)
	assert.Equal(t, entity.ListingAction, actions[0].(entity.MarketAction).Action)
}

func TestOnSaleUnknownListingIsSkipped(t *testing.T) {
	p, idx, _, _ := newProjectorFixture()

	p.OnSale(event.Sale{ListingId: 99})

	assert.Empty(t, idx.saved)
}

func TestOnListingCancelled(t *testing.T) {
	p, idx, listings, _ := newProjectorFixture()
	listings.listings[1] = entity.Listing{Id: 1, Seller: "0xalice", Status: entity.ListingActive}

	p.OnListingCancelled(event.ListingCancelled{ListingId: 1, Seller: "0xalice"})

	docs := idx.ofIndex(elastic_search.ListingIndex.Get())
	require.Len(t, docs, 1)
	assert.Equal(t, entity.ListingCancelled, docs[0].(entity.Listing).Status)
}

func TestOnRoyaltyUpdatedFallsBackToEdition(t *testing.T) {
	p, idx, _, nfts := newProjectorFixture()
	nfts.editions[3] = entity.EditionType{Contract: "0xdef", TypeId: 3}

	p.OnRoyaltyUpdated(event.RoyaltyUpdated{Contract: "0xdef", TokenId: 3, Receiver: "0xzoe", RateBps: 750})

	docs := idx.ofIndex(elastic_search.EditionIndex.Get())
	require.Len(t, docs, 1)
	assert.Equal(t, uint64(750), docs[0].(entity.EditionType).Royalty.RateBps)
}
