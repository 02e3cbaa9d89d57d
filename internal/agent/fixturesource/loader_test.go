package fixturesource_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/heapguard/analyzer/internal/agent/fixturesource"
)

func TestLoadFromLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fixture.json")
	require.NoError(t, os.WriteFile(path, []byte(validFixture), 0o600))

	src, err := fixturesource.LoadFrom(context.Background(), path, 1, time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, src)
}

func TestLoadFromHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validFixture))
	}))
	defer srv.Close()

	src, err := fixturesource.LoadFrom(context.Background(), srv.URL, 1, time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, src)
}
