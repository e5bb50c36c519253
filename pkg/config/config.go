package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port      string `envconfig:"PORT" default:"8080"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	// StoreDriver selects the document store: "dynamo" for the real
	// backend, "memory" for local runs without AWS credentials.
	StoreDriver      string `envconfig:"STORE_DRIVER" default:"dynamo"`
	AWSRegion        string `envconfig:"AWS_REGION" default:"eu-west-2"`
	TableName        string `envconfig:"TABLE_NAME" default:"quickbites"`
	DynamoDBEndpoint string `envconfig:"DYNAMODB_ENDPOINT" default:""`

	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	EventsTopic  string `envconfig:"EVENTS_TOPIC" default:"order-events"`

	Currency            string `envconfig:"CURRENCY" default:"gbp"`
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	StripeAPIBase       string `envconfig:"STRIPE_API_BASE" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
