package graph_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/entra-tools/devicectl/internal/graph"
	"github.com/entra-tools/devicectl/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalAdminPassword(t *testing.T) {
	router := http.NewServeMux()
	router.HandleFunc("GET /v1.0/directory/deviceLocalCredentials/device-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "credentials", r.URL.Query().Get("$select"))
		testhelpers.WriteJSON(w, map[string]any{
			"id": "device-1",
			"credentials": []map[string]any{
				{"accountName": "Administrator", "passwordBase64": "cGFzcw=="},
				{"accountName": "Administrator", "passwordBase64": "b2xkZXI="},
			},
		})
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := graph.New(staticTokens("test-token"), graph.WithBaseURL(server.URL+"/v1.0"))

	password, ok, err := client.LocalAdminPassword(context.Background(), "device-1")
	require.NoError(t, err)

	assert.True(t, ok)
	assert.Equal(t, "pass", password)
}

func TestLocalAdminPasswordAbsent(t *testing.T) {
	router := http.NewServeMux()
	router.HandleFunc("GET /v1.0/directory/deviceLocalCredentials/{id}", func(w http.ResponseWriter, r *http.Request) {
		// devices without a stored password answer with an empty non-JSON body
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := graph.New(staticTokens("test-token"), graph.WithBaseURL(server.URL+"/v1.0"))

	password, ok, err := client.LocalAdminPassword(context.Background(), "device-1")
	require.NoError(t, err)

	assert.False(t, ok)
	assert.Empty(t, password)
}

func TestLocalAdminPasswordEmptyCredentials(t *testing.T) {
	router := http.NewServeMux()
	router.HandleFunc("GET /v1.0/directory/deviceLocalCredentials/{id}", func(w http.ResponseWriter, r *http.Request) {
		testhelpers.WriteJSON(w, map[string]any{
			"id":          "device-1",
			"credentials": []map[string]any{},
		})
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := graph.New(staticTokens("test-token"), graph.WithBaseURL(server.URL+"/v1.0"))

	password, ok, err := client.LocalAdminPassword(context.Background(), "device-1")
	require.NoError(t, err)

	assert.False(t, ok)
	assert.Empty(t, password)
}

func TestLocalAdminPasswordRequestError(t *testing.T) {
	router := http.NewServeMux()
	router.HandleFunc("GET /v1.0/directory/deviceLocalCredentials/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":"Authorization_RequestDenied","message":"Insufficient privileges to complete the operation."}}`))
	})
	server := httptest.NewServer(router)
	defer server.Close()

	client := graph.New(staticTokens("test-token"), graph.WithBaseURL(server.URL+"/v1.0"))

	_, _, err := client.LocalAdminPassword(context.Background(), "device-1")
	require.Error(t, err)

	var reqErr *graph.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusForbidden, reqErr.StatusCode)
}

func TestLocalAdminPasswordRequiresDevice(t *testing.T) {
	client := graph.New(staticTokens("test-token"))

	_, _, err := client.LocalAdminPassword(context.Background(), "")
	require.ErrorIs(t, err, graph.ErrInvalidArgument)
}
