package main

import (
	"encoding/json"

	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/ellifont/NFT-platform/internal/config"
	"github.com/ellifont/NFT-platform/internal/config/di"
	"github.com/ellifont/NFT-platform/internal/elastic_search"
	"github.com/ellifont/NFT-platform/internal/messenger"
	"github.com/ellifont/NFT-platform/internal/metadata"
	"github.com/ellifont/NFT-platform/internal/repository"
	"go.uber.org/zap"
)

var (
	messageService  messenger.MessageService
	metadataService metadata.Service
	nftRepo         repository.NftRepository
	elastic         elastic_search.Index
)

type refreshMetadata struct {
	Contract string `json:"contract"`
	TokenId  uint64 `json:"tokenId"`
}

func main() {
	config.Init("queueWorker")

	container, err := di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	messageService = container.Get("messenger").(messenger.MessageService)
	metadataService = container.Get("metadata").(metadata.Service)
	nftRepo = container.Get("nft.repo").(repository.NftRepository)
	elastic = container.Get("elastic").(elastic_search.Index)

	pollMetadataRefresh()
}

func pollMetadataRefresh() {
	zap.L().Info("Subscribing to metadata refresh")
	messages := make(chan *sqs.Message, 10)
	go messageService.PollMessages(messenger.MetadataRefresh, messages)

	for message := range messages {
		var data refreshMetadata
		if err := json.Unmarshal([]byte(*message.Body), &data); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to read message")
			continue
		}

		if err := refresh(data); err != nil {
			zap.L().With(zap.String("contract", data.Contract), zap.Uint64("tokenId", data.TokenId), zap.Error(err)).Error("Metadata refresh failed")
		} else {
			zap.L().With(zap.String("contract", data.Contract), zap.Uint64("tokenId", data.TokenId)).Info("Metadata refresh success")
		}

		if err := messageService.DeleteMessage(messenger.MetadataRefresh, message); err != nil {
			zap.L().With(zap.Error(err)).Error("Failed to delete message")
		}

		elastic.Persist()
	}
}

func refresh(data refreshMetadata) error {
	token, err := nftRepo.GetNft(data.Contract, data.TokenId)
	if err != nil {
		return err
	}

	md, err := metadataService.FetchMetadata(token.TokenUri)
	if err != nil {
		token.HasMetadata = false
		token.MetadataError = err.Error()
	} else {
		token.HasMetadata = true
		token.MetadataError = ""
		token.Metadata = md
	}

	elastic.AddUpdateRequest(elastic_search.NftIndex.Get(), token)

	return nil
}
