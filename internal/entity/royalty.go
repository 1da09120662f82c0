package entity

// MaxRoyaltyBps is the hard ceiling on any royalty rate (10%).
const MaxRoyaltyBps uint64 = 1000

// MaxPlatformFeeBps is the hard ceiling on the platform fee (10%).
const MaxPlatformFeeBps uint64 = 1000

// BpsDenominator converts basis points into a fraction of a price.
const BpsDenominator uint64 = 10000

type Royalty struct {
	Receiver string `json:"receiver"`
	RateBps  uint64 `json:"rateBps"`
}
