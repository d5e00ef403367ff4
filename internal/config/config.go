package config

import "os"

// Datastore holds the shared MySQL endpoint. The database name is per tenant
// and supplied at request time, never here.
type Datastore struct {
	Host     string
	User     string
	Password string
	Port     string
}

func DatastoreFromEnv() Datastore {
	return Datastore{
		Host:     envOr("DB_HOST", "127.0.0.1"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Port:     envOr("DB_PORT", "3306"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
