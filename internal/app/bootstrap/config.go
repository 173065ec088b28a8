// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Gate Access.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, storage_s3_bucket, etc.
//   - Environment variables: GATEACCESS_MONGO_URI, GATEACCESS_BASE_URL, etc.
//   - Command-line flags: --mongo_uri, --base_url, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "gate_access", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// S3 link signing
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket for photos and documents (blank disables signing)"},
	{Name: "storage_s3_prefix", Default: "photos/", Desc: "S3 key prefix"},
	{Name: "signed_url_expiry", Default: "15m", Desc: "Lifetime of signed GET links (e.g., 15m, 1h)"},

	// Base URL for email links
	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for email links"},

	// Handler deadlines
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for listing and access-view handlers"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for upsert and mutation handlers"},

	// Non-production escape hatch
	{Name: "allow_hard_delete", Default: false, Desc: "Mount the physical volunteer delete endpoint (never in production)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "GATEACCESS", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		StorageS3Region: appValues.String("storage_s3_region"),
		StorageS3Bucket: appValues.String("storage_s3_bucket"),
		StorageS3Prefix: appValues.String("storage_s3_prefix"),
		SignedURLExpiry: appValues.Duration("signed_url_expiry", 15*time.Minute),

		BaseURL: appValues.String("base_url"),

		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
		TimeoutLong:   appValues.Duration("timeout_long", 30*time.Second),

		AllowHardDelete: appValues.Bool("allow_hard_delete"),
	}
	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Gate Access validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and refuses the hard-delete
// escape hatch in production.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.AllowHardDelete && coreCfg.Env == "prod" {
		return fmt.Errorf("allow_hard_delete cannot be enabled in production")
	}
	return nil
}
