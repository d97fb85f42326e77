package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf("workbook_path = %q\ncache_path = %q\nlibrary_path = %q\nlog_path = %q\n",
		writeWorkbook(t),
		filepath.Join(dir, "catalog.json"),
		filepath.Join(dir, "library.toml"),
		filepath.Join(dir, "shelf.log"))
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestServe_AnswersUntilCancelled(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("SHELF_SHEETS_API_KEY", "")
	opts := Options{ConfigPath: writeConfig(t)}
	addr := freeAddr(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, opts, addr) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	var body string
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + addr + "/api/subjects")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		body = string(data)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 25*time.Millisecond)
	require.Contains(t, body, "Direito Civil")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServe_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("cache_ttl = \"-1h\"\n"), 0o644))

	err := Serve(context.Background(), Options{ConfigPath: path}, freeAddr(t))
	require.Error(t, err)
}

func TestServeMCP_RequiresSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("gemini_model = \"x\"\n"), 0o644))

	err := ServeMCP(context.Background(), Options{ConfigPath: path}, "")
	require.Error(t, err)
}
