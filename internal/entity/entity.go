package entity

// Entity is anything that can be persisted to the mirror under a stable
// document id.
type Entity interface {
	Slug() string
}

// ZeroAddress is the null account. Creators, receivers and fee recipients
// must never be the zero address.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

func IsZeroAddress(addr string) bool {
	return addr == "" || addr == ZeroAddress
}
