package di

import (
	"time"

	"github.com/ellifont/NFT-platform/internal/api"
	"github.com/ellifont/NFT-platform/internal/auth"
	"github.com/ellifont/NFT-platform/internal/config"
	"github.com/ellifont/NFT-platform/internal/elastic_search"
	"github.com/ellifont/NFT-platform/internal/event"
	"github.com/ellifont/NFT-platform/internal/funds"
	"github.com/ellifont/NFT-platform/internal/ledger"
	"github.com/ellifont/NFT-platform/internal/market"
	"github.com/ellifont/NFT-platform/internal/messenger"
	"github.com/ellifont/NFT-platform/internal/metadata"
	"github.com/ellifont/NFT-platform/internal/mirror"
	"github.com/ellifont/NFT-platform/internal/repository"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

func NewContainer() (di.Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}

	if err := builder.Add(Definitions...); err != nil {
		return nil, err
	}

	return builder.Build(), nil
}

var Definitions = []di.Def{
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, err := elastic_search.New()
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to start ES")
			}

			return elastic, nil
		},
	},
	{
		Name: "listing.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewListingRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "nft.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewNftRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "action.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewActionRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "metadata",
		Build: func(ctn di.Container) (interface{}, error) {
			client := retryablehttp.NewClient()
			client.HTTPClient.Timeout = time.Duration(config.Get().MetadataTimeout) * time.Second
			client.RetryMax = config.Get().MetadataRetries
			client.Logger = nil

			return metadata.NewMetadataService(client, config.Get().IpfsGateway), nil
		},
	},
	{
		Name: "roles",
		Build: func(ctn di.Container) (interface{}, error) {
			roles := auth.NewRoles()
			if admin := config.Get().AdminAddress; admin != "" {
				roles.Grant(auth.AdminRole, admin)
				roles.Grant(auth.MinterRole, admin)
			}

			return roles, nil
		},
	},
	{
		Name: "receivers",
		Build: func(ctn di.Container) (interface{}, error) {
			return ledger.NewReceiverRegistry(), nil
		},
	},
	{
		Name: "funds",
		Build: func(ctn di.Container) (interface{}, error) {
			return funds.NewLedger(), nil
		},
	},
	{
		Name: "ledger.single",
		Build: func(ctn di.Container) (interface{}, error) {
			return ledger.NewSingleEdition(
				config.Get().SingleContract,
				ctn.Get("roles").(*auth.Roles),
				ctn.Get("receivers").(*ledger.ReceiverRegistry),
				config.Get().DefaultRoyaltyBps,
				event.ManagerEmitter{},
			), nil
		},
	},
	{
		Name: "ledger.multi",
		Build: func(ctn di.Container) (interface{}, error) {
			return ledger.NewMultiEdition(
				config.Get().MultiContract,
				ctn.Get("roles").(*auth.Roles),
				ctn.Get("receivers").(*ledger.ReceiverRegistry),
				config.Get().DefaultRoyaltyBps,
				event.ManagerEmitter{},
			), nil
		},
	},
	{
		Name: "engine",
		Build: func(ctn di.Container) (interface{}, error) {
			engine, err := market.NewEngine(
				config.Get().EngineAddress,
				ctn.Get("roles").(*auth.Roles),
				ctn.Get("funds").(*funds.Ledger),
				config.Get().PlatformFeeBps,
				config.Get().FeeRecipient,
				event.ManagerEmitter{},
			)
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to create settlement engine")
			}

			single := ctn.Get("ledger.single").(*ledger.SingleEdition)
			multi := ctn.Get("ledger.multi").(*ledger.MultiEdition)
			engine.RegisterSingleLedger(single.Address(), single)
			engine.RegisterMultiLedger(multi.Address(), multi)

			return engine, nil
		},
	},
	{
		Name: "mirror",
		Build: func(ctn di.Container) (interface{}, error) {
			return mirror.NewProjector(
				ctn.Get("elastic").(elastic_search.Index),
				ctn.Get("listing.repo").(repository.ListingRepository),
				ctn.Get("nft.repo").(repository.NftRepository),
				ctn.Get("metadata").(metadata.Service),
			), nil
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewMessenger(config.Get().Aws), nil
		},
	},
	{
		Name: "publisher",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewPublisher(ctn.Get("messenger").(messenger.MessageService)), nil
		},
	},
	{
		Name: "api",
		Build: func(ctn di.Container) (interface{}, error) {
			return api.NewServer(
				ctn.Get("engine").(*market.Engine),
				ctn.Get("listing.repo").(repository.ListingRepository),
				ctn.Get("nft.repo").(repository.NftRepository),
				ctn.Get("action.repo").(repository.ActionRepository),
				config.Get().AdminToken,
				config.Get().AdminAddress,
			), nil
		},
	},
}
