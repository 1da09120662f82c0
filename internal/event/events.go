package event

import "github.com/ellifont/NFT-platform/internal/entity"

type Type string

const (
	TokenMintedEvent         Type = "TokenMintedEvent"
	EditionCreatedEvent      Type = "EditionCreatedEvent"
	EditionMintedEvent       Type = "EditionMintedEvent"
	TokenBurnedEvent         Type = "TokenBurnedEvent"
	TokenTransferredEvent    Type = "TokenTransferredEvent"
	RoyaltyUpdatedEvent      Type = "RoyaltyUpdatedEvent"
	ListedEvent              Type = "ListedEvent"
	SaleEvent                Type = "SaleEvent"
	ListingCancelledEvent    Type = "ListingCancelledEvent"
	PlatformFeeUpdatedEvent  Type = "PlatformFeeUpdatedEvent"
	FeeRecipientUpdatedEvent Type = "FeeRecipientUpdatedEvent"
)

type TokenMinted struct {
	Contract string `json:"contract"`
	TokenId  uint64 `json:"tokenId"`
	Owner    string `json:"owner"`
	Creator  string `json:"creator"`
	TokenUri string `json:"tokenUri"`
}

type EditionCreated struct {
	Contract  string `json:"contract"`
	TypeId    uint64 `json:"typeId"`
	Creator   string `json:"creator"`
	TokenUri  string `json:"tokenUri"`
	MaxSupply uint64 `json:"maxSupply"`
}

type EditionMinted struct {
	Contract string `json:"contract"`
	TypeId   uint64 `json:"typeId"`
	To       string `json:"to"`
	Quantity uint64 `json:"quantity"`
}

type TokenTransferred struct {
	Contract string `json:"contract"`
	TokenId  uint64 `json:"tokenId"`
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity uint64 `json:"quantity"`
}

type TokenBurned struct {
	Contract string `json:"contract"`
	TokenId  uint64 `json:"tokenId"`
	Holder   string `json:"holder"`
	Quantity uint64 `json:"quantity"`
}

type RoyaltyUpdated struct {
	Contract string `json:"contract"`
	TokenId  uint64 `json:"tokenId"`
	Receiver string `json:"receiver"`
	RateBps  uint64 `json:"rateBps"`
}

type Listed struct {
	ListingId     uint64          `json:"listingId"`
	Seller        string          `json:"seller"`
	TokenContract string          `json:"tokenContract"`
	TokenId       uint64          `json:"tokenId"`
	Quantity      uint64          `json:"quantity"`
	Price         string          `json:"price"`
	Standard      entity.Standard `json:"standard"`
}

type Sale struct {
	ListingId       uint64 `json:"listingId"`
	Buyer           string `json:"buyer"`
	Seller          string `json:"seller"`
	Price           string `json:"price"`
	PlatformFee     string `json:"platformFee"`
	RoyaltyAmount   string `json:"royaltyAmount"`
	RoyaltyReceiver string `json:"royaltyReceiver"`
}

type ListingCancelled struct {
	ListingId uint64 `json:"listingId"`
	Seller    string `json:"seller"`
}

type PlatformFeeUpdated struct {
	OldBps uint64 `json:"oldBps"`
	NewBps uint64 `json:"newBps"`
}

type FeeRecipientUpdated struct {
	OldRecipient string `json:"oldRecipient"`
	NewRecipient string `json:"newRecipient"`
}
