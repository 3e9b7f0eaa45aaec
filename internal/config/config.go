package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/corray333/backend-labs/storefront/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func MustInit() {
	// the file is optional, in containers the environment is injected directly
	if err := godotenv.Load("./.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic("error while loading .env file: " + err.Error())
	}

	SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/storefront")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()
}

// SetDefaults registers the values used when config.yaml leaves a key out.
func SetDefaults() {
	viper.SetDefault("server.http.port", "8080")
	viper.SetDefault("server.grpc.port", "9090")
	viper.SetDefault("postgres.max_conns", 20)

	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", "5672")
	viper.SetDefault("rabbitmq.catalog_exchange", "catalog.events")
	viper.SetDefault("rabbitmq.queue", "storefront.search-index")
	viper.SetDefault("rabbitmq.binding_key", "catalog.product.*")
	viper.SetDefault("rabbitmq.lanes", 8)

	viper.SetDefault("outbox.poll_interval_seconds", 2)
	viper.SetDefault("outbox.batch_size", 100)
	viper.SetDefault("outbox.retry_interval_seconds", 30)
	viper.SetDefault("outbox.max_retries", 10)
	viper.SetDefault("outbox.publish_parallelism", 3)

	viper.SetDefault("inbox.poll_interval_seconds", 5)
	viper.SetDefault("inbox.batch_size", 50)
	viper.SetDefault("inbox.retry_interval_seconds", 30)
	viper.SetDefault("inbox.max_retries", 10)

	viper.SetDefault("search.addresses", []string{"http://localhost:9200"})
	viper.SetDefault("search.index", "products")
	viper.SetDefault("search.reindex_parallelism", 4)
	viper.SetDefault("search.reindex_page_size", 200)
	viper.SetDefault("search.result_limit", 100)

	viper.SetDefault("stripe.timeout_seconds", 10)
	viper.SetDefault("stripe.currency", "usd")
	viper.SetDefault("payment.session_cache_ttl_minutes", 1380)

	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("status.enforce_transitions", false)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.env", "dev")
}

func SetupLogger() {
	log, err := logger.New(logger.Config{
		Level: viper.GetString("logger.level"),
		Env:   viper.GetString("logger.env"),
	})
	if err != nil {
		panic("error while building logger: " + err.Error())
	}
	zap.ReplaceGlobals(log)

	if _, err := os.Stat("./.env"); err != nil {
		log.Debug("No .env file, using process environment")
	}
}
