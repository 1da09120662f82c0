package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

type Standard string

const (
	ERC721  Standard = "ERC721"
	ERC1155 Standard = "ERC1155"
)

// Token is the mirror document for a single-edition token.
type Token struct {
	Contract string `json:"contract"`
	TokenId  uint64 `json:"tokenId"`
	Owner    string `json:"owner"`
	Creator  string `json:"creator"`
	TokenUri string `json:"tokenUri"`
	BurnedAt uint64 `json:"burnedAt"`

	Royalty Royalty `json:"royalty"`

	HasMetadata   bool        `json:"hasMetadata"`
	MetadataError string      `json:"metadataError"`
	Metadata      interface{} `json:"metadata"`
}

func (t Token) Slug() string {
	return CreateTokenSlug(t.TokenId, t.Contract)
}

func CreateTokenSlug(tokenId uint64, contract string) string {
	return slug.Make(fmt.Sprintf("nft-%d-%s", tokenId, contract))
}

// EditionType is the mirror document for a multi-edition token type.
type EditionType struct {
	Contract     string `json:"contract"`
	TypeId       uint64 `json:"typeId"`
	Creator      string `json:"creator"`
	TokenUri     string `json:"tokenUri"`
	MaxSupply    uint64 `json:"maxSupply"`
	MintedSupply uint64 `json:"mintedSupply"`

	Royalty Royalty `json:"royalty"`
}

func (e EditionType) Slug() string {
	return CreateEditionTypeSlug(e.TypeId, e.Contract)
}

func CreateEditionTypeSlug(typeId uint64, contract string) string {
	return slug.Make(fmt.Sprintf("edition-%d-%s", typeId, contract))
}
