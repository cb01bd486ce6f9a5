package config

import (
	"time"
)

type DB struct {
	Url string `envconfig:"URL"`
}

type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
	Issuer string        `envconfig:"ISSUER" default:"payconsole"`
}

type Auth struct {
	Jwt *Jwt `envconfig:"JWT"`
}

// Backend describes the payment platform REST API the console talks to.
type Backend struct {
	BaseURL   string        `envconfig:"BASE_URL" default:"http://localhost:8080"`
	Token     string        `envconfig:"TOKEN"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"15s"`
	UserAgent string        `envconfig:"USER_AGENT" default:"payconsole/1.0"`
}

// Query holds the stale windows of the response cache, per resource family.
type Query struct {
	Store        string        `envconfig:"STORE" default:"memory"`
	Prefix       string        `envconfig:"PREFIX" default:"pc:query:"`
	DefaultStale time.Duration `envconfig:"DEFAULT_STALE" default:"30s"`
	Dashboard    time.Duration `envconfig:"DASHBOARD_STALE" default:"30s"`
	Transactions time.Duration `envconfig:"TRANSACTIONS_STALE" default:"30s"`
	Fees         time.Duration `envconfig:"FEES_STALE" default:"60s"`
	Merchants    time.Duration `envconfig:"MERCHANTS_STALE" default:"60s"`
	Wallet       time.Duration `envconfig:"WALLET_STALE" default:"30s"`
	Reports      time.Duration `envconfig:"REPORTS_STALE" default:"60s"`
}

type Redis struct {
	URL          string        `envconfig:"URL"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type Kafka struct {
	Brokers       string `envconfig:"BROKERS"`
	GroupID       string `envconfig:"GROUP_ID" default:"payconsole"`
	Topic         string `envconfig:"TOPIC" default:"payconsole.events"`
	SASLUsername  string `envconfig:"SASL_USERNAME"`
	SASLPassword  string `envconfig:"SASL_PASSWORD"`
	TLSEnabled    bool   `envconfig:"TLS_ENABLED" default:"false"`
	TLSSkipVerify bool   `envconfig:"TLS_SKIP_VERIFY" default:"false"`
}

type EventBus struct {
	Driver string `envconfig:"DRIVER" default:"memory"`
	Stream string `envconfig:"STREAM" default:"payconsole:events"`
	Group  string `envconfig:"GROUP" default:"payconsole"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type Reports struct {
	ScheduleInterval time.Duration `envconfig:"SCHEDULE_INTERVAL" default:"1m"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[payconsole]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	DB        *DB        `envconfig:"DATABASE"`
	Auth      *Auth      `envconfig:"AUTH"`
	Backend   *Backend   `envconfig:"BACKEND"`
	Query     *Query     `envconfig:"QUERY"`
	Redis     *Redis     `envconfig:"REDIS"`
	Kafka     *Kafka     `envconfig:"KAFKA"`
	EventBus  *EventBus  `envconfig:"EVENT_BUS"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
	Reports   *Reports   `envconfig:"REPORTS"`
}
