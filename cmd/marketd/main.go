package main

import (
	"net/http"

	"github.com/ellifont/NFT-platform/internal/api"
	"github.com/ellifont/NFT-platform/internal/config"
	"github.com/ellifont/NFT-platform/internal/config/di"
	"github.com/ellifont/NFT-platform/internal/elastic_search"
	"github.com/ellifont/NFT-platform/internal/messenger"
	"github.com/ellifont/NFT-platform/internal/mirror"
	sdi "github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

var container sdi.Container

func main() {
	config.Init("marketd")

	var err error
	container, err = di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	if config.Get().MirrorEnabled {
		container.Get("elastic").(elastic_search.Index).InstallMappings()
		container.Get("mirror").(*mirror.Projector).Subscribe()
	}

	if config.Get().QueueEnabled {
		container.Get("publisher").(*messenger.Publisher).Subscribe()
	}

	zap.L().With(zap.String("port", config.Get().ApiPort)).Info("Marketplace started")

	server := container.Get("api").(api.Server)
	if err := http.ListenAndServe(":"+config.Get().ApiPort, server.Router()); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start api server")
	}
}
