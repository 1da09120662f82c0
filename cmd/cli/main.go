package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ellifont/NFT-platform/internal/config"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var client *retryablehttp.Client

func main() {
	config.Init("cli")

	client = retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil

	app := &cli.App{
		Name:  "marketctl",
		Usage: "Operate a running marketplace daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api", Value: "http://localhost:8080", Usage: "Base URL of the marketplace API"},
		},
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show engine status",
				Action: status,
			},
			{
				Name:      "listing",
				Usage:     "Show a listing by id",
				ArgsUsage: "<listingId>",
				Action:    getListing,
			},
			{
				Name:   "listings",
				Usage:  "List marketplace listings",
				Action: getListings,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status", Value: "", Usage: "Filter by status (active, sold, cancelled)"},
					&cli.StringFlag{Name: "seller", Value: "", Usage: "Filter by seller address"},
					&cli.IntFlag{Name: "size", Value: 20, Usage: "Page size"},
					&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
				},
			},
			{
				Name:      "set-fee",
				Usage:     "Set the platform fee in basis points",
				ArgsUsage: "<bps>",
				Action:    setFee,
			},
			{
				Name:      "set-recipient",
				Usage:     "Set the platform fee recipient",
				ArgsUsage: "<address>",
				Action:    setRecipient,
			},
			{
				Name:   "pause",
				Usage:  "Pause new listings and purchases",
				Action: pause,
			},
			{
				Name:   "unpause",
				Usage:  "Resume new listings and purchases",
				Action: unpause,
			},
			{
				Name:      "cancel",
				Usage:     "Cancel a listing as the marketplace admin",
				ArgsUsage: "<listingId>",
				Action:    cancelListing,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start CLI")
	}
}

func status(c *cli.Context) error {
	return get(c, "/health")
}

func getListing(c *cli.Context) error {
	if c.Args().First() == "" {
		return cli.Exit("listing id required", 1)
	}

	return get(c, "/listings/"+c.Args().First())
}

func getListings(c *cli.Context) error {
	path := fmt.Sprintf(
		"/listings?status=%s&seller=%s&size=%d&page=%d",
		c.String("status"), c.String("seller"), c.Int("size"), c.Int("page"),
	)

	return get(c, path)
}

func setFee(c *cli.Context) error {
	if c.Args().First() == "" {
		return cli.Exit("fee bps required", 1)
	}

	return post(c, "/admin/fee", map[string]json.Number{"bps": json.Number(c.Args().First())})
}

func setRecipient(c *cli.Context) error {
	if c.Args().First() == "" {
		return cli.Exit("recipient address required", 1)
	}

	return post(c, "/admin/recipient", map[string]string{"recipient": c.Args().First()})
}

func pause(c *cli.Context) error {
	return post(c, "/admin/pause", nil)
}

func unpause(c *cli.Context) error {
	return post(c, "/admin/unpause", nil)
}

func cancelListing(c *cli.Context) error {
	if c.Args().First() == "" {
		return cli.Exit("listing id required", 1)
	}

	return post(c, "/admin/listings/"+c.Args().First()+"/cancel", nil)
}

func get(c *cli.Context, path string) error {
	req, err := retryablehttp.NewRequest("GET", c.String("api")+path, nil)
	if err != nil {
		return err
	}

	return execute(req)
}

func post(c *cli.Context, path string, body interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	req, err := retryablehttp.NewRequest("POST", c.String("api")+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.Get().AdminToken)

	return execute(req)
}

func execute(req *retryablehttp.Request) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return cli.Exit(fmt.Sprintf("%s: %s", resp.Status, bytes.TrimSpace(body)), 1)
	}

	fmt.Println(string(bytes.TrimSpace(body)))

	return nil
}
