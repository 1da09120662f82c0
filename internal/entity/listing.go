package entity

import (
	"fmt"
	"time"

	"github.com/gosimple/slug"
)

type ListingStatus string

const (
	ListingActive    ListingStatus = "active"
	ListingSold      ListingStatus = "sold"
	ListingCancelled ListingStatus = "cancelled"
)

// Listing is the read model of a marketplace listing. The price is the full
// listing price in wei, carried as a decimal string to preserve precision.
type Listing struct {
	Id            uint64        `json:"id"`
	Seller        string        `json:"seller"`
	TokenContract string        `json:"tokenContract"`
	TokenId       uint64        `json:"tokenId"`
	Quantity      uint64        `json:"quantity"`
	Price         string        `json:"price"`
	Standard      Standard      `json:"standard"`
	Status        ListingStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`

	// Populated on sale.
	Buyer          string `json:"buyer,omitempty"`
	PlatformFee    string `json:"platformFee,omitempty"`
	RoyaltyFee     string `json:"royaltyFee,omitempty"`
	SellerProceeds string `json:"sellerProceeds,omitempty"`
}

func (l Listing) Slug() string {
	return CreateListingSlug(l.Id)
}

func CreateListingSlug(id uint64) string {
	return slug.Make(fmt.Sprintf("listing-%d", id))
}
