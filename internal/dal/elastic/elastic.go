package elastic

import (
	"context"
	"fmt"
	"os"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Client represents an Elasticsearch client.
type Client struct {
	es    *elasticsearch.Client
	index string
}

// ES returns the underlying go-elasticsearch client.
func (c *Client) ES() *elasticsearch.Client {
	return c.es
}

// Index returns the name of the product index.
func (c *Client) Index() string {
	return c.index
}

// MustNewClient connects to Elasticsearch and checks the cluster answers.
func MustNewClient() *Client {
	addresses := viper.GetStringSlice("search.addresses")
	if len(addresses) == 0 {
		addresses = []string{"http://localhost:9200"}
	}

	index := viper.GetString("search.index")
	if index == "" {
		index = "products"
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addresses,
		Username:  os.Getenv("ELASTIC_USERNAME"),
		Password:  os.Getenv("ELASTIC_PASSWORD"),
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to create Elasticsearch client: %v", err))
	}

	res, err := es.Info(es.Info.WithContext(context.Background()))
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to Elasticsearch: %v", err))
	}
	defer res.Body.Close()
	if res.IsError() {
		panic(fmt.Sprintf("Elasticsearch info request failed: %s", res.String()))
	}

	zap.L().Info("Elasticsearch connected", zap.Strings("addresses", addresses), zap.String("index", index))

	return &Client{es: es, index: index}
}
