// Package config loads runtime configuration from environment variables.
package config

import (
	"log"
	"os"
	"strconv"
)

// Config holds every runtime setting the server needs. Connection
// details and secrets are required; the sale parameters carry the
// defaults the event actually runs with and only need overriding for
// a different event.
type Config struct {
	Env  string // application environment (dev/test/prod)
	Port string // HTTP port to listen on

	DBUser string
	DBPass string // optional, empty allowed
	DBHost string
	DBPort string
	DBName string

	RabbitURL string // AMQP broker URL for the mail queues

	JWTSecret     string // secret used to sign admin JWTs
	AccessTTLMin  int    // admin token time-to-live in minutes
	AdminUser     string // admin login name
	AdminPassHash string // bcrypt hash of the admin password
	AdminEmail    string // destination for escalated and admin mail

	AccountNumber string // bank account printed in booking summaries
	FioToken      string // bank API token; empty disables reconciliation
	Currency      string // currency reconciled payments must arrive in

	TicketPrice      int // price of one seat
	TicketLimit      int // max seats one attendee may hold
	ExpiryDays       int // days an unpaid booking survives before the sweep
	SeatsPerTable    int // seats seeded per table
	StandingCapacity int // standing tickets seeded
}

// Load reads the configuration. Missing required variables are fatal;
// the sale parameters fall back to their defaults.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		RabbitURL: must("RABBITMQ_URL"),

		JWTSecret:     must("JWT_SECRET"),
		AccessTTLMin:  envInt("ACCESS_TOKEN_TTL_MIN", 60),
		AdminUser:     must("ADMIN_USER"),
		AdminPassHash: must("ADMIN_PASS_HASH"),
		AdminEmail:    must("ADMIN_EMAIL"),

		AccountNumber: must("ACCOUNT_NUMBER"),
		FioToken:      os.Getenv("FIO_TOKEN"),
		Currency:      envStr("PAYMENT_CURRENCY", "CZK"),

		TicketPrice:      envInt("TICKET_PRICE", 300),
		TicketLimit:      envInt("TICKET_LIMIT", 21),
		ExpiryDays:       envInt("BOOKING_EXPIRY_DAYS", 3),
		SeatsPerTable:    envInt("SEATS_PER_TABLE", 8),
		StandingCapacity: envInt("STANDING_CAPACITY", 200),
	}
}

// must retrieves a required environment variable; an unset or empty
// value aborts startup.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
