package elastic_search

import (
	"fmt"

	"github.com/ellifont/NFT-platform/internal/config"
)

type Indices string

var (
	ListingIndex Indices = "listing"
	NftIndex     Indices = "nft"
	EditionIndex Indices = "edition"
	ActionIndex  Indices = "action"
)

// Get prefixes the index with the configured namespace.
func (i *Indices) Get() string {
	return fmt.Sprintf("%s.%s", config.Get().Index, string(*i))
}

func All() []Indices {
	return []Indices{ListingIndex, NftIndex, EditionIndex, ActionIndex}
}
