// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	healthfeature "github.com/gateaccess/gateaccess/internal/app/features/health"
	userinfofeature "github.com/gateaccess/gateaccess/internal/app/features/userinfo"
	volunteersfeature "github.com/gateaccess/gateaccess/internal/app/features/volunteers"
	"github.com/gateaccess/gateaccess/internal/app/store/docs"
	facilitystore "github.com/gateaccess/gateaccess/internal/app/store/facilities"
	inmatestore "github.com/gateaccess/gateaccess/internal/app/store/inmates"
	meetingstore "github.com/gateaccess/gateaccess/internal/app/store/meetings"
	regionstore "github.com/gateaccess/gateaccess/internal/app/store/regions"
	volunteerstore "github.com/gateaccess/gateaccess/internal/app/store/volunteers"
	zonestore "github.com/gateaccess/gateaccess/internal/app/store/zones"
	"github.com/gateaccess/gateaccess/internal/app/system/auth"
	"github.com/gateaccess/gateaccess/internal/app/system/mailer"
	"github.com/gateaccess/gateaccess/internal/app/system/s3store"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It wires the document-store adapter,
// the entity stores, the volunteer service, and the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	docsStore := docs.NewMongo(deps.MongoDatabase)

	zones := zonestore.New(docsStore, logger)
	regions := regionstore.New(docsStore, logger)
	facilities := facilitystore.New(docsStore, logger)
	inmates := inmatestore.New(docsStore, logger)
	meetings := meetingstore.New(docsStore, logger)
	volunteers := volunteerstore.New(docsStore, zones, logger)

	photos, err := buildPhotoResolver(appCfg, logger)
	if err != nil {
		logger.Error("photo resolver init failed", zap.Error(err))
		return nil, err
	}

	svc := volunteersfeature.NewService(volunteersfeature.Deps{
		Store:      volunteers,
		Regions:    regions,
		Zones:      zones,
		Facilities: facilities,
		Inmates:    inmates,
		Meetings:   meetings,
		Photos:     photos,
		Mail:       &mailer.LogSender{Log: logger},
		BaseURL:    appCfg.BaseURL,
		Log:        logger,
	})

	r := chi.NewRouter()

	// Global auth middleware: loads the gateway identity into context.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(auth.LoadGatewayUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	volunteersHandler := volunteersfeature.NewHandler(svc, volunteers, logger)
	volunteersHandler.AllowHardDelete = appCfg.AllowHardDelete
	r.Mount("/volunteers", volunteersfeature.Routes(volunteersHandler))

	userinfofeature.MountRoutes(r, userinfofeature.NewHandler(volunteers))

	return r, nil
}

// buildPhotoResolver selects the link signer: S3 presigning when a bucket
// is configured, otherwise plain base-URL links for local setups.
func buildPhotoResolver(appCfg AppConfig, logger *zap.Logger) (volunteersfeature.PhotoResolver, error) {
	if appCfg.StorageS3Bucket == "" {
		logger.Info("no S3 bucket configured; serving unsigned photo links")
		return localResolver{base: appCfg.BaseURL + "/files/"}, nil
	}
	return s3store.New(context.Background(), s3store.Config{
		Region: appCfg.StorageS3Region,
		Bucket: appCfg.StorageS3Bucket,
		Prefix: appCfg.StorageS3Prefix,
		Expiry: appCfg.SignedURLExpiry,
	})
}

type localResolver struct {
	base string
}

func (l localResolver) ResolveSignedURL(_ context.Context, scope, objectKey string) (string, error) {
	if scope != "" {
		return l.base + scope + "/" + objectKey, nil
	}
	return l.base + objectKey, nil
}
