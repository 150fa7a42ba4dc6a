//go:build integration

package testutil

import (
	"os"
	"testing"
	"time"
)

// Settings read from the environment so the suite can run against a compose
// stack or a remote deployment.
var (
	MongoURI  = envOr("TEST_MONGO_URI", "mongodb://localhost:27017")
	Database  = envOr("TEST_DB_NAME", "campusbook")
	ServerURL = envOr("TEST_SERVER_URL", "http://localhost:"+envOr("TEST_SERVER_PORT", "8080"))
)

const readyTimeout = 30 * time.Second

// Setup connects to the database, empties the data collections and waits for
// the service to report ready. Cleanup is registered on t.
func Setup(t *testing.T) (*Store, *Client) {
	t.Helper()

	store := OpenStore(t, MongoURI, Database)
	store.Reset(t)
	t.Cleanup(func() { store.Reset(t) })

	client := NewClient(ServerURL)
	client.WaitForHealthy(t, readyTimeout)
	return store, client
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
