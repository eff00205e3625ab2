package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"inviqa/push-relay/log"

	"github.com/alexflint/go-arg"
)

const (
	MySQL    DbDriver = "mysql"
	Postgres DbDriver = "postgres"
	SQLite   DbDriver = "sqlite"

	DefaultPushTimeoutMs        = 10000
	DefaultPushGroupConcurrency = 4
	DefaultCallbackTimeoutMs    = 10000
	DefaultShutdownTimeoutMs    = 30000
	DefaultLogLevel             = "debug"
)

type DbDriver string

var supportedDbTypes = map[DbDriver]bool{
	Postgres: true,
	MySQL:    true,
	SQLite:   true,
}

// PositiveInt accepts any value from the environment. Anything that is not a
// positive integer is stored as zero so the default applies.
type PositiveInt int

func (p *PositiveInt) UnmarshalText(b []byte) error {
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || v <= 0 {
		*p = 0
		return nil
	}
	*p = PositiveInt(v)
	return nil
}

type Config struct {
	ListenAddr           string      `arg:"--listen-addr,env:LISTEN_ADDR"`
	PushTimeoutMs        PositiveInt `arg:"--push-timeout,env:PUSH_TIMEOUT"`
	PushGroupConcurrency PositiveInt `arg:"--push-group-concurrency,env:PUSH_GROUP_CONCURRENCY"`
	CallbackTimeoutMs    PositiveInt `arg:"--callback-timeout,env:CALLBACK_TIMEOUT"`
	ShutdownTimeoutMs    PositiveInt `arg:"--shutdown-timeout,env:SHUTDOWN_TIMEOUT"`
	LogLevel             string      `arg:"--log-level,env:LOG_LEVEL"`
	StoreFile            string      `arg:"--store-file,env:STORE_FILE"`
	SkipMigrations       bool        `arg:"--skip-migrations,env:SKIP_MIGRATIONS"`
	DBHost               string      `arg:"--db-host,env:DB_HOST"`
	DBPort               uint32      `arg:"--db-port,env:DB_PORT"`
	DBUser               string      `arg:"--db-user,env:DB_USER"`
	DBPass               string      `arg:"--db-pass,env:DB_PASS"`
	DBSchema             string      `arg:"--db-schema,env:DB_SCHEMA"`
	DBPath               string      `arg:"--db-path,env:DB_PATH"`
	DBDriver             DbDriver    `arg:"--db-driver,env:DB_DRIVER"`
	DBTablePrefix        string      `arg:"--db-table-prefix,env:DB_TABLE_PREFIX"`
	KafkaHost            []string    `arg:"--kafka-host,env:KAFKA_HOST"`
	TLSEnable            bool        `arg:"--kafka-tls,env:TLS_ENABLE"`
	TLSSkipVerifyPeer    bool        `arg:"--kafka-tls-verify-peer,env:TLS_SKIP_VERIFY_PEER"`
	TelegramAPIURL       string      `arg:"--telegram-api-url,env:TELEGRAM_API_URL"`
	ChannelRatePerSec    int         `arg:"--channel-rate-per-sec,env:CHANNEL_RATE_PER_SEC"`
	RunOptimize          bool        `arg:"--optimize,env:RUN_OPTIMIZE"`
	SidecarProxyUrl      string      `arg:"--sidecar-proxy-url,env:SIDECAR_PROXY_URL"`
}

func NewConfig() (*Config, error) {
	c := defaultConfig()
	arg.MustParse(c)
	c.applyDefaults()

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func defaultConfig() *Config {
	return &Config{
		ListenAddr:           ":80",
		PushTimeoutMs:        DefaultPushTimeoutMs,
		PushGroupConcurrency: DefaultPushGroupConcurrency,
		CallbackTimeoutMs:    DefaultCallbackTimeoutMs,
		ShutdownTimeoutMs:    DefaultShutdownTimeoutMs,
		LogLevel:             DefaultLogLevel,
		DBDriver:             MySQL,
		TelegramAPIURL:       "https://api.telegram.org",
	}
}

func (c *Config) applyDefaults() {
	if c.PushTimeoutMs <= 0 {
		c.PushTimeoutMs = DefaultPushTimeoutMs
	}
	if c.PushGroupConcurrency <= 0 {
		c.PushGroupConcurrency = DefaultPushGroupConcurrency
	}
	if c.CallbackTimeoutMs <= 0 {
		c.CallbackTimeoutMs = DefaultCallbackTimeoutMs
	}
	if c.ShutdownTimeoutMs <= 0 {
		c.ShutdownTimeoutMs = DefaultShutdownTimeoutMs
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.ChannelRatePerSec < 0 {
		c.ChannelRatePerSec = 0
	}
}

func (c *Config) validate() error {
	if c.UseFileStore() {
		return nil
	}

	if !supportedDbTypes[c.DBDriver] {
		return fmt.Errorf("the DB_DRIVER provided (%s) is not supported", c.DBDriver)
	}

	if c.DBDriver.SQLite() {
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for the %s driver", c.DBDriver)
		}
		return nil
	}

	if c.DBHost == "" || c.DBSchema == "" {
		return fmt.Errorf("DB_HOST and DB_SCHEMA are required for the %s driver", c.DBDriver)
	}

	return nil
}

// UseFileStore reports whether endpoints are read from a YAML file instead of a database.
func (c *Config) UseFileStore() bool {
	return c.StoreFile != ""
}

func (c *Config) PushTimeout() time.Duration {
	return time.Duration(c.PushTimeoutMs) * time.Millisecond
}

func (c *Config) CallbackTimeout() time.Duration {
	return time.Duration(c.CallbackTimeoutMs) * time.Millisecond
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMs) * time.Millisecond
}

func (c *Config) GetDSN() string {
	switch c.DBDriver {
	case MySQL:
		tls := "false"
		if c.TLSEnable {
			if c.TLSSkipVerifyPeer {
				tls = "skip-verify"
			} else {
				tls = "true"
			}
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=%s&multiStatements=true", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBSchema, tls)
	case Postgres:
		sslMode := "disable"
		if c.TLSEnable {
			if c.TLSSkipVerifyPeer {
				sslMode = "require"
			} else {
				sslMode = "verify-full"
			}
		}
		return fmt.Sprintf("%s://%s@%s:%d/%s?sslmode=%s", c.DBDriver, url.UserPassword(c.DBUser, c.DBPass), c.DBHost, c.DBPort, c.DBSchema, sslMode)
	case SQLite:
		return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", c.DBPath)
	default:
		log.Logger.Fatalf("the DB driver configured (%s) is not supported", c.DBDriver)
		return ""
	}
}

// GetDependencySystemAddresses lists the hosts checked by the readiness probe.
func (c *Config) GetDependencySystemAddresses() []string {
	return c.KafkaHost
}

func (c Config) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"ListenAddr":           c.ListenAddr,
		"PushTimeoutMs":        c.PushTimeoutMs,
		"PushGroupConcurrency": c.PushGroupConcurrency,
		"CallbackTimeoutMs":    c.CallbackTimeoutMs,
		"ShutdownTimeoutMs":    c.ShutdownTimeoutMs,
		"LogLevel":             c.LogLevel,
		"StoreFile":            c.StoreFile,
		"SkipMigrations":       c.SkipMigrations,
		"DBHost":               c.DBHost,
		"DBPort":               c.DBPort,
		"DBUser":               c.DBUser,
		"DBPass":               "xxxxx",
		"DBSchema":             c.DBSchema,
		"DBPath":               c.DBPath,
		"DBDriver":             c.DBDriver,
		"DBTablePrefix":        c.DBTablePrefix,
		"KafkaHost":            c.KafkaHost,
		"TLSEnable":            c.TLSEnable,
		"TLSSkipVerifyPeer":    c.TLSSkipVerifyPeer,
		"TelegramAPIURL":       c.TelegramAPIURL,
		"ChannelRatePerSec":    c.ChannelRatePerSec,
		"RunOptimize":          c.RunOptimize,
		"SidecarProxyUrl":      c.SidecarProxyUrl,
	})
}

func (d DbDriver) MySQL() bool {
	return d == MySQL
}

func (d DbDriver) Postgres() bool {
	return d == Postgres
}

func (d DbDriver) SQLite() bool {
	return d == SQLite
}

// SqlDriverName is the name the driver registers with database/sql.
func (d DbDriver) SqlDriverName() string {
	if d == Postgres {
		return "pgx"
	}
	return string(d)
}

func (d DbDriver) String() string {
	return string(d)
}
