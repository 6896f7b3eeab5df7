package tokenmeta

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainscope/chainscope/internal/adapters/helius"
)

func TestResolveFromTokenList(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token/SomeMint", r.URL.Path)
		_, _ = w.Write([]byte(`{"address":"SomeMint","symbol":"BONK","name":"Bonk"}`))
	}))
	defer server.Close()

	r := NewResolver(server.URL, helius.NewClient("", ""), zerolog.Nop())
	symbol, err := r.Resolve(context.Background(), "SomeMint")
	require.NoError(t, err)
	assert.Equal(t, "BONK", symbol)
}

func TestResolveFallsBackToHelius(t *testing.T) {
	listServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer listServer.Close()

	rpcServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := map[string]any{
			"jsonrpc": "2.0", "id": "1",
			"result": map[string]any{
				"id": "SomeMint",
				"content": map[string]any{
					"metadata": map[string]any{"symbol": "WIF"},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer rpcServer.Close()

	heliusClient := helius.NewClient("test-key", "")
	heliusClient.SetRPCURL(rpcServer.URL)

	r := NewResolver(listServer.URL, heliusClient, zerolog.Nop())
	symbol, err := r.Resolve(context.Background(), "SomeMint")
	require.NoError(t, err)
	assert.Equal(t, "WIF", symbol)
}

func TestResolveBothSourcesMiss(t *testing.T) {
	listServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer listServer.Close()

	// No Helius credential, so the fallback is skipped entirely.
	r := NewResolver(listServer.URL, helius.NewClient("", ""), zerolog.Nop())
	_, err := r.Resolve(context.Background(), "SomeMint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SomeMint")
}
