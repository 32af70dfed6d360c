package commands

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with fresh global flag values
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgFile, outputFormat, noColor = "", "table", false
	purgeAll, getHeaders, initForce = false, false, false
	listSearch, countriesMatch = "", ""

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func newOrigin(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/", "/manifest.json", "/icons/icon.svg":
			io.WriteString(w, "asset "+r.URL.Path)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/bucketlist", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":1,"destination_id":10,"visited":false,"created_at":"2024-04-30T18:22:10","destination_name":"Kyoto","destination_category":"city","destination_country":"Japan","destination_latitude":35,"destination_longitude":135},
			{"id":2,"destination_id":11,"visited":true,"visited_date":"2023-08-02","created_at":"2024-04-30T18:22:10","destination_name":"Lima","destination_category":"city","destination_country":"Peru","destination_latitude":-12,"destination_longitude":-77}
		]`)
	})
	mux.HandleFunc("GET /api/destinations", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id":10,"name":"Kyoto","category":"city","country":"Japan","latitude":35,"longitude":135,"in_bucketlist":true,"bucket_item_id":1},
			{"id":12,"name":"Paris","category":"city","country":"France","latitude":48,"longitude":2,"in_bucketlist":false}
		]`)
	})
	mux.HandleFunc("DELETE /api/bucketlist/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "1" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"detail":"Bucket list item not found"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, origin, api string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
server:
  origin: %s
cache:
  dir: %s
api:
  base_url: %s/api
logging:
  file: %s
`, origin, filepath.Join(dir, "cache"), api, filepath.Join(dir, "wanderlist.log"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestVersion(t *testing.T) {
	Version = "1.2.3"
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "wanderlist 1.2.3\n", out)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "config", "show", "--config", path, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"Name": "travel-bucketlist-v1"`)
}

func TestCacheLifecycle(t *testing.T) {
	origin := newOrigin(t)
	cfg := writeConfig(t, origin.URL, "http://127.0.0.1:0")

	out, err := execute(t, "cache", "status", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "no cache generations stored")

	out, err = execute(t, "cache", "install", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "installed travel-bucketlist-v1 (3 entries)")

	out, err = execute(t, "cache", "activate", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "activated travel-bucketlist-v1")

	out, err = execute(t, "cache", "status", "--config", cfg, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"active": "travel-bucketlist-v1"`)
	assert.Contains(t, out, `"entries": 3`)

	// Served from the stored generation once the origin is gone
	origin.Close()
	out, err = execute(t, "cache", "get", "/manifest.json", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "asset /manifest.json", out)

	out, err = execute(t, "cache", "purge", "--all", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted travel-bucketlist-v1")
}

func TestCacheActivateWithoutInstall(t *testing.T) {
	cfg := writeConfig(t, newOrigin(t).URL, "http://127.0.0.1:0")
	_, err := execute(t, "cache", "activate", "--config", cfg)
	assert.ErrorContains(t, err, "wanderlist cache install")
}

func TestBucketlistList(t *testing.T) {
	api := newAPI(t)
	cfg := writeConfig(t, "http://localhost:5173", api.URL)

	out, err := execute(t, "bucketlist", "list", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "DESTINATION")
	assert.Contains(t, out, "Kyoto")
	assert.Contains(t, out, "visited 2023-08-02")

	out, err = execute(t, "bucketlist", "list", "--search", "peru", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Lima")
	assert.NotContains(t, out, "Kyoto")
}

func TestBucketlistRemove(t *testing.T) {
	api := newAPI(t)
	cfg := writeConfig(t, "http://localhost:5173", api.URL)

	out, err := execute(t, "bucketlist", "remove", "1", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "removed item 1")

	_, err = execute(t, "bucketlist", "remove", "7", "--config", cfg)
	assert.ErrorContains(t, err, "Bucket list item not found")

	_, err = execute(t, "bucketlist", "remove", "abc", "--config", cfg)
	assert.ErrorContains(t, err, "invalid id")
}

func TestDestinationsFind(t *testing.T) {
	api := newAPI(t)
	cfg := writeConfig(t, "http://localhost:5173", api.URL)

	out, err := execute(t, "destinations", "find", "paris", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Paris")
	assert.NotContains(t, out, "Kyoto")

	out, err = execute(t, "destinations", "find", "zzz", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "no destinations match")
}
