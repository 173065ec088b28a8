// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, TLS, logging level, CORS, and request limits. AppConfig is where
// everything specific to this application lives.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// S3 photo/document link signing
	StorageS3Region string        // AWS region
	StorageS3Bucket string        // S3 bucket name; empty disables signing
	StorageS3Prefix string        // Key prefix (e.g., "photos/")
	SignedURLExpiry time.Duration // Lifetime of signed GET links

	// Base URL for email links (password reset, welcome)
	BaseURL string // e.g., "https://gateaccess.example.org"

	// Handler deadline overrides; zero keeps the built-in defaults.
	TimeoutMedium time.Duration // listing and access views
	TimeoutLong   time.Duration // upserts and orchestrated mutations

	// AllowHardDelete mounts the physical volunteer delete endpoint.
	// Never enable in production.
	AllowHardDelete bool
}
