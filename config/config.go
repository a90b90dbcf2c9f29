package config

import (
	// Go Internal Packages
	"strings"
	"time"

	// Local Packages
	errors "coinnet/errors"

	// External Packages
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/shopspring/decimal"
)

// EnvPrefix prefixes environment overrides. Nesting uses a double
// underscore: COINNET_MONGO__URI sets mongo.uri.
const EnvPrefix = "COINNET_"

var DefaultConfig = []byte(`
application: "coinnet-api"

logger:
  level: "debug"

is_prod_mode: false

http:
  address: ":8080"
  read_timeout: 10s
  write_timeout: 10s
  shutdown_timeout: 15s

storage:
  driver: "memory"

geo:
  driver: "memory"
  key: "coinnet:providers:geo"

mongo:
  uri: "mongodb://localhost:27017"
  database: "coinnet"

redis:
  uri: "localhost:6379"
  password: ""
  dlq_key: "coinnet:dlq"

kafka:
  brokers:
    - "localhost:9092"
  publish: false
  topic: "transaction-events"
  records_per_poll: 500
  consumer_name: "coinnet-audit"

matching:
  min_request_amount: 1000
  default_radius_km: 5
  max_radius_km: 50
  max_results: 20

fees:
  commission_rate: "0.05"

limits:
  max_active_per_requester: 2
  list_limit: 200
`)

const (
	DriverMemory = "memory"
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
)

type Config struct {
	Application string   `koanf:"application"`
	Logger      Logger   `koanf:"logger"`
	IsProdMode  bool     `koanf:"is_prod_mode"`
	HTTP        HTTP     `koanf:"http"`
	Storage     Storage  `koanf:"storage"`
	Geo         Geo      `koanf:"geo"`
	Mongo       Mongo    `koanf:"mongo"`
	Redis       Redis    `koanf:"redis"`
	Kafka       Kafka    `koanf:"kafka"`
	Matching    Matching `koanf:"matching"`
	Fees        Fees     `koanf:"fees"`
	Limits      Limits   `koanf:"limits"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type HTTP struct {
	Address         string        `koanf:"address"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type Storage struct {
	Driver string `koanf:"driver"`
}

type Geo struct {
	Driver string `koanf:"driver"`
	Key    string `koanf:"key"`
}

type Mongo struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type Redis struct {
	URI      string `koanf:"uri"`
	Password string `koanf:"password"`
	DLQKey   string `koanf:"dlq_key"`
}

type Kafka struct {
	Brokers        []string `koanf:"brokers"`
	Publish        bool     `koanf:"publish"`
	Topic          string   `koanf:"topic"`
	RecordsPerPoll int      `koanf:"records_per_poll"`
	ConsumerName   string   `koanf:"consumer_name"`
}

type Matching struct {
	MinRequestAmount int64   `koanf:"min_request_amount"`
	DefaultRadiusKm  float64 `koanf:"default_radius_km"`
	MaxRadiusKm      float64 `koanf:"max_radius_km"`
	MaxResults       int     `koanf:"max_results"`
}

type Fees struct {
	CommissionRate string `koanf:"commission_rate"`
}

type Limits struct {
	MaxActivePerRequester int `koanf:"max_active_per_requester"`
	ListLimit             int `koanf:"list_limit"`
}

// Load reads the embedded defaults and overrides them with the YAML file at
// path, when given.
func Load(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()); err != nil {
		return nil, err
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// LoadSecrets overlays COINNET_* environment variables so credentials never
// need to live in the config file.
func LoadSecrets(k *koanf.Koanf) error {
	return k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.HTTP.Address == "" {
		ve.Add("http.address", "cannot be empty")
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverMongo:
		if c.Mongo.URI == "" {
			ve.Add("mongo.uri", "cannot be empty")
		}
		if c.Mongo.Database == "" {
			ve.Add("mongo.database", "cannot be empty")
		}
	default:
		ve.Add("storage.driver", "must be memory or mongo")
	}
	switch c.Geo.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Redis.URI == "" {
			ve.Add("redis.uri", "cannot be empty")
		}
		if c.Geo.Key == "" {
			ve.Add("geo.key", "cannot be empty")
		}
	default:
		ve.Add("geo.driver", "must be memory or redis")
	}
	if c.Kafka.Publish {
		if len(c.Kafka.Brokers) == 0 {
			ve.Add("kafka.brokers", "cannot be empty")
		}
		if c.Kafka.Topic == "" {
			ve.Add("kafka.topic", "cannot be empty")
		}
		if c.Redis.URI == "" {
			ve.Add("redis.uri", "cannot be empty")
		}
	}
	if c.Matching.MinRequestAmount <= 0 {
		ve.Add("matching.min_request_amount", "must be greater than zero")
	}
	if c.Matching.DefaultRadiusKm <= 0 {
		ve.Add("matching.default_radius_km", "must be greater than zero")
	}
	if c.Matching.MaxRadiusKm < c.Matching.DefaultRadiusKm {
		ve.Add("matching.max_radius_km", "must be at least default_radius_km")
	}
	if c.Matching.MaxResults <= 0 {
		ve.Add("matching.max_results", "must be greater than zero")
	}
	rate, err := decimal.NewFromString(c.Fees.CommissionRate)
	if err != nil || rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		ve.Add("fees.commission_rate", "must be a decimal in [0, 1)")
	}
	if c.Limits.MaxActivePerRequester <= 0 {
		ve.Add("limits.max_active_per_requester", "must be greater than zero")
	}

	return ve.Err()
}

// ValidateAudit checks the subset the audit consumer needs.
func (c *Config) ValidateAudit() error {
	ve := errors.ValidationErrs()

	if c.Mongo.URI == "" {
		ve.Add("mongo.uri", "cannot be empty")
	}
	if c.Mongo.Database == "" {
		ve.Add("mongo.database", "cannot be empty")
	}
	if c.Redis.URI == "" {
		ve.Add("redis.uri", "cannot be empty")
	}
	if len(c.Kafka.Brokers) == 0 {
		ve.Add("kafka.brokers", "cannot be empty")
	}
	if c.Kafka.Topic == "" {
		ve.Add("kafka.topic", "cannot be empty")
	}
	if c.Kafka.ConsumerName == "" {
		ve.Add("kafka.consumer_name", "cannot be empty")
	}
	if c.Kafka.RecordsPerPoll <= 0 {
		ve.Add("kafka.records_per_poll", "must be greater than zero")
	}

	return ve.Err()
}
