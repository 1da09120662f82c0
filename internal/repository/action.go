package repository

import (
	"encoding/json"
	"errors"

	"github.com/ellifont/NFT-platform/internal/elastic_search"
	"github.com/ellifont/NFT-platform/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrActionNotFound = errors.New("market action not found")
)

type ActionRepository interface {
	GetActionsByToken(contract string, tokenId uint64, size, page int) ([]entity.MarketAction, int64, error)
	GetActionsByAddress(addr string, size, page int) ([]entity.MarketAction, int64, error)
}

type actionRepository struct {
	elastic elastic_search.Index
}

func NewActionRepository(elastic elastic_search.Index) ActionRepository {
	return actionRepository{elastic}
}

// GetActionsByToken returns the audit trail for a token, oldest first.
func (r actionRepository) GetActionsByToken(contract string, tokenId uint64, size, page int) ([]entity.MarketAction, int64, error) {
	query := elastic.NewBoolQuery().Must(
		elastic.NewTermQuery("contract.keyword", contract),
		elastic.NewTermQuery("tokenId", tokenId),
	)

	from := size * (page - 1)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ActionIndex.Get()).
		Query(query).
		Sort("timestamp", true).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

// GetActionsByAddress returns actions the address took part in on either
// side, newest first.
func (r actionRepository) GetActionsByAddress(addr string, size, page int) ([]entity.MarketAction, int64, error) {
	query := elastic.NewBoolQuery().Should(
		elastic.NewTermQuery("from.keyword", addr),
		elastic.NewTermQuery("to.keyword", addr),
	).MinimumNumberShouldMatch(1)

	from := size * (page - 1)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ActionIndex.Get()).
		Query(query).
		Sort("timestamp", false).
		TrackTotalHits(true).
		Size(size).
		From(from))

	return r.findMany(result, err)
}

func (r actionRepository) findMany(results *elastic.SearchResult, err error) ([]entity.MarketAction, int64, error) {
	actions := make([]entity.MarketAction, 0)

	if err != nil {
		return actions, 0, err
	}

	for _, hit := range results.Hits.Hits {
		var action entity.MarketAction
		if err := json.Unmarshal(hit.Source, &action); err == nil {
			actions = append(actions, action)
		}
	}

	return actions, results.TotalHits(), nil
}
