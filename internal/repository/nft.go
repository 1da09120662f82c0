package repository

import (
	"encoding/json"
	"errors"

	"github.com/ellifont/NFT-platform/internal/elastic_search"
	"github.com/ellifont/NFT-platform/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrNftNotFound = errors.New("nft not found")
)

type NftRepository interface {
	GetNft(contract string, tokenId uint64) (entity.Token, error)
	GetNftsByOwner(owner string, size, page int) ([]entity.Token, int64, error)
	GetEdition(contract string, typeId uint64) (entity.EditionType, error)
}

type nftRepository struct {
	elastic elastic_search.Index
}

func NewNftRepository(elastic elastic_search.Index) NftRepository {
	return nftRepository{elastic}
}

func (r nftRepository) GetNft(contract string, tokenId uint64) (entity.Token, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("contract.keyword", contract),
		elastic.NewTermQuery("tokenId", tokenId),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.NftIndex.Get()).
		Query(query).
		Size(1))

	if err != nil {
		return entity.Token{}, err
	}

	if len(result.Hits.Hits) == 0 {
		return entity.Token{}, ErrNftNotFound
	}

	var token entity.Token
	err = json.Unmarshal(result.Hits.Hits[0].Source, &token)

	return token, err
}

func (r nftRepository) GetNftsByOwner(owner string, size, page int) ([]entity.Token, int64, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("owner.keyword", owner),
	)

	from := size * (page - 1)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.NftIndex.Get()).
		Query(query).
		Sort("tokenId", true).
		TrackTotalHits(true).
		Size(size).
		From(from))

	tokens := make([]entity.Token, 0)
	if err != nil {
		return tokens, 0, err
	}

	for _, hit := range result.Hits.Hits {
		var token entity.Token
		if err := json.Unmarshal(hit.Source, &token); err == nil {
			tokens = append(tokens, token)
		}
	}

	return tokens, result.TotalHits(), nil
}

func (r nftRepository) GetEdition(contract string, typeId uint64) (entity.EditionType, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("contract.keyword", contract),
		elastic.NewTermQuery("typeId", typeId),
	)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.EditionIndex.Get()).
		Query(query).
		Size(1))

	if err != nil {
		return entity.EditionType{}, err
	}

	if len(result.Hits.Hits) == 0 {
		return entity.EditionType{}, ErrNftNotFound
	}

	var edition entity.EditionType
	err = json.Unmarshal(result.Hits.Hits[0].Source, &edition)

	return edition, err
}
