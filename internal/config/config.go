package config

import (
	"fmt"
	"os"
	"strconv"
)

// DefaultPrefetch is the number of unacknowledged deliveries the broker may
// keep in flight per consumer before it stops pushing more.
const DefaultPrefetch = 10

const defaultExchange = "user.events"

type ServerConfig struct {
	Host string
	Port string
}

func (c *ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnectionString returns a DSN string for GORM.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode)
}

// MigrateURI returns a database URI for golang-migrate.
func (c *DatabaseConfig) MigrateURI() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

type BrokerConfig struct {
	URI      string
	Exchange string
	Queue    string
}

type ConsumerConfig struct {
	Prefetch int
}

// UserService holds the configuration for the user-service binary.
type UserService struct {
	Server   ServerConfig
	Database DatabaseConfig
	Broker   BrokerConfig
}

// NotificationService holds the configuration for the notification-service
// binary.
type NotificationService struct {
	Server   ServerConfig
	Broker   BrokerConfig
	Consumer ConsumerConfig
}

// LoadUserService reads the user-service configuration from the environment.
// Required variables that are missing are reported together in one error so
// a broken deployment shows everything at once.
func LoadUserService() (*UserService, error) {
	var missing []string
	get := requireEnv(&missing)

	cfg := &UserService{
		Server: loadServer(get),
		Database: DatabaseConfig{
			Host:     get("DB_HOST"),
			Port:     get("DB_PORT"),
			User:     get("DB_USER"),
			Password: get("DB_PASSWORD"),
			DBName:   get("DB_NAME"),
			SSLMode:  get("DB_SSLMODE"),
		},
		Broker: loadBroker(get),
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}
	return cfg, nil
}

// LoadNotificationService reads the notification-service configuration from
// the environment.
func LoadNotificationService() (*NotificationService, error) {
	var missing []string
	get := requireEnv(&missing)

	cfg := &NotificationService{
		Server:   loadServer(get),
		Broker:   loadBroker(get),
		Consumer: ConsumerConfig{Prefetch: DefaultPrefetch},
	}

	if raw := os.Getenv("CONSUMER_PREFETCH"); raw != "" {
		prefetch, err := strconv.Atoi(raw)
		if err != nil || prefetch < 1 {
			return nil, fmt.Errorf("CONSUMER_PREFETCH must be a positive integer, got %q", raw)
		}
		cfg.Consumer.Prefetch = prefetch
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missing)
	}
	return cfg, nil
}

func requireEnv(missing *[]string) func(string) string {
	return func(key string) string {
		val := os.Getenv(key)
		if val == "" {
			*missing = append(*missing, key)
		}
		return val
	}
}

func loadServer(get func(string) string) ServerConfig {
	host := os.Getenv("SERVER_HOST")
	if host == "" {
		host = "0.0.0.0"
	}
	return ServerConfig{
		Host: host,
		Port: get("SERVER_PORT"),
	}
}

func loadBroker(get func(string) string) BrokerConfig {
	exchange := os.Getenv("EVENTS_EXCHANGE")
	if exchange == "" {
		exchange = defaultExchange
	}
	return BrokerConfig{
		URI:      get("BROKER_URI"),
		Exchange: exchange,
		Queue:    get("QUEUE_NAME"),
	}
}
