package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ellifont/NFT-platform/internal/helper"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
)

var (
	ErrInvalidUri     = errors.New("metadata: invalid token uri")
	ErrNotFound       = errors.New("metadata: not found")
	ErrInvalidContent = errors.New("metadata: invalid content")
)

// Service fetches the off-chain JSON document a token's uri points at.
// Documents are cached; token metadata is immutable so a short TTL only
// bounds memory, not staleness.
type Service interface {
	FetchMetadata(tokenUri string) (map[string]interface{}, error)
}

type service struct {
	client      *retryablehttp.Client
	ipfsGateway string
	cache       *cache.Cache
}

func NewMetadataService(client *retryablehttp.Client, ipfsGateway string) Service {
	return service{client, ipfsGateway, cache.New(30*time.Minute, 60*time.Minute)}
}

func (s service) FetchMetadata(tokenUri string) (map[string]interface{}, error) {
	fetchUri := tokenUri
	if resolved := helper.ResolveIpfs(tokenUri, s.ipfsGateway); resolved != nil {
		fetchUri = *resolved
	}

	if len(fetchUri) < 4 || fetchUri[:4] != "http" {
		return nil, ErrInvalidUri
	}

	if cached, found := s.cache.Get(tokenUri); found {
		return cached.(map[string]interface{}), nil
	}

	resp, err := s.client.Get(fetchUri)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil, ErrNotFound
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("metadata: %s", resp.Status)
	}

	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}

	var md map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &md); err != nil {
		return nil, ErrInvalidContent
	}

	s.cache.Set(tokenUri, md, cache.DefaultExpiration)

	return md, nil
}
