// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps carries the Mongo handles ConnectDB produces; WAFFLE threads
// them into EnsureSchema, Startup, and BuildHandler.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
}
