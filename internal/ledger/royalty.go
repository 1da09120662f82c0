package ledger

import (
	"math/big"
	"strings"

	"github.com/ellifont/NFT-platform/internal/entity"
)

// royaltyRegistry holds the per-token royalty configuration embedded in each
// issuance ledger. Every token gets a royalty bound to its creator at mint
// time at the default rate; SetRoyalty overwrites it.
type royaltyRegistry struct {
	defaultBps uint64
	royalties  map[uint64]entity.Royalty
}

func newRoyaltyRegistry(defaultBps uint64) royaltyRegistry {
	if defaultBps > entity.MaxRoyaltyBps {
		defaultBps = entity.MaxRoyaltyBps
	}
	return royaltyRegistry{
		defaultBps: defaultBps,
		royalties:  make(map[uint64]entity.Royalty),
	}
}

func (r royaltyRegistry) bind(tokenId uint64, creator string) {
	r.royalties[tokenId] = entity.Royalty{
		Receiver: strings.ToLower(creator),
		RateBps:  r.defaultBps,
	}
}

func (r royaltyRegistry) set(tokenId uint64, receiver string, rateBps uint64) error {
	if rateBps > entity.MaxRoyaltyBps {
		return ErrInvalidRate
	}
	if entity.IsZeroAddress(receiver) {
		return ErrInvalidReceiver
	}

	r.royalties[tokenId] = entity.Royalty{
		Receiver: strings.ToLower(receiver),
		RateBps:  rateBps,
	}
	return nil
}

func (r royaltyRegistry) unbind(tokenId uint64) {
	delete(r.royalties, tokenId)
}

func (r royaltyRegistry) get(tokenId uint64) entity.Royalty {
	return r.royalties[tokenId]
}

// info computes floor(salePrice * rateBps / 10000) for the token.
func (r royaltyRegistry) info(tokenId uint64, salePrice *big.Int) (string, *big.Int) {
	royalty, ok := r.royalties[tokenId]
	if !ok || salePrice == nil {
		return "", new(big.Int)
	}

	amount := new(big.Int).Mul(salePrice, new(big.Int).SetUint64(royalty.RateBps))
	amount.Div(amount, new(big.Int).SetUint64(entity.BpsDenominator))

	return royalty.Receiver, amount
}
