package entity

import (
	"crypto/md5"
	"fmt"
)

// MarketAction is the audit trail document written for every settlement
// operation the engine commits.
type MarketAction struct {
	Contract  string     `json:"contract"`
	TokenId   uint64     `json:"tokenId"`
	ListingId uint64     `json:"listingId"`
	Action    ActionType `json:"action"`
	From      string     `json:"from"`
	To        string     `json:"to"`
	Quantity  uint64     `json:"quantity"`
	Cost      string     `json:"cost"`
	Fee       string     `json:"fee"`
	Royalty   string     `json:"royalty"`
	Standard  Standard   `json:"standard"`
	Timestamp int64      `json:"timestamp"`
}

type ActionType string

const (
	MintAction    ActionType = "mint"
	BurnAction    ActionType = "burn"
	ListingAction ActionType = "listing"
	SaleAction    ActionType = "sale"
	CancelAction  ActionType = "cancel"
)

func (a MarketAction) Slug() string {
	return CreateMarketActionSlug(a.TokenId, a.Contract, a.ListingId, string(a.Action), a.Timestamp)
}

func CreateMarketActionSlug(tokenId uint64, contract string, listingId uint64, action string, ts int64) string {
	data := []byte(fmt.Sprintf("action-%d-%s-%d-%s-%d", tokenId, contract, listingId, action, ts))
	return fmt.Sprintf("%x", md5.Sum(data))
}
