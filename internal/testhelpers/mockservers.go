package testhelpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

// MockIdentityServer provides a configurable mock Microsoft identity
// platform token endpoint for testing.
type MockIdentityServer struct {
	Server           *httptest.Server
	Token            string // Access token to return
	ExpiresIn        int    // Token lifetime in seconds
	StatusCode       int    // HTTP status code to return (200 if not set)
	ErrorDescription string // error_description for non-200 responses
	RequestCount     int    // Number of token requests received
	LastTenant       string // Tenant path segment from the last request
	LastForm         url.Values
}

// SetupMockIdentityServer creates a mock token endpoint that answers
// client-credentials requests. Returns a MockIdentityServer with
// configurable response values and request tracking.
func SetupMockIdentityServer(t *testing.T) *MockIdentityServer {
	t.Helper()

	mock := &MockIdentityServer{
		Token:      "test-access-token",
		ExpiresIn:  3599,
		StatusCode: http.StatusOK,
	}

	router := http.NewServeMux()

	router.HandleFunc("POST /{tenant}/oauth2/v2.0/token", func(w http.ResponseWriter, r *http.Request) {
		mock.RequestCount++
		mock.LastTenant = r.PathValue("tenant")

		if err := r.ParseForm(); err == nil {
			mock.LastForm = r.PostForm
		}

		if mock.StatusCode != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(mock.StatusCode)

			failure := struct {
				Error            string `json:"error"`
				ErrorDescription string `json:"error_description"`
			}{
				Error:            "invalid_client",
				ErrorDescription: mock.ErrorDescription,
			}
			data, _ := json.Marshal(failure)
			_, _ = w.Write(data)
			return
		}

		grant := struct {
			AccessToken string `json:"access_token"`
			TokenType   string `json:"token_type"`
			ExpiresIn   int    `json:"expires_in"`
		}{
			AccessToken: mock.Token,
			TokenType:   "Bearer",
			ExpiresIn:   mock.ExpiresIn,
		}

		WriteJSON(w, grant)
	})

	mock.Server = httptest.NewServer(router)
	t.Cleanup(mock.Server.Close)
	return mock
}

// GraphRequest captures the interesting parts of a single request received
// by the mock Graph server.
type GraphRequest struct {
	Query            url.Values
	ConsistencyLevel string // raw header value; empty when the header was omitted
	HasConsistency   bool
	Authorization    string
}

// MockGraphServer provides a mock Graph collection endpoint that serves a
// fixed sequence of pages linked by $skiptoken continuation tokens.
type MockGraphServer struct {
	Server *httptest.Server

	// Pages holds the device objects returned per page, in order.
	Pages [][]map[string]any

	// Count is the @odata.count value included on the first page when the
	// request asks for it. Ignored when zero.
	Count int64

	// FailAtPage makes the given zero-based page respond with FailStatus
	// and FailMessage instead of data. Disabled when negative.
	FailAtPage  int
	FailStatus  int
	FailMessage string

	RequestCount int
	Requests     []GraphRequest
}

// SetupMockGraphServer creates a mock Graph server answering list requests
// on the given resource paths (e.g. "/v1.0/devices"). Pagination is driven
// by synthetic "page-N" skip tokens.
func SetupMockGraphServer(t *testing.T, resources ...string) *MockGraphServer {
	t.Helper()

	mock := &MockGraphServer{
		FailAtPage: -1,
		FailStatus: http.StatusInternalServerError,
	}

	router := http.NewServeMux()

	for _, resource := range resources {
		router.HandleFunc("GET "+resource, func(w http.ResponseWriter, r *http.Request) {
			mock.RequestCount++

			_, hasConsistency := r.Header["Consistencylevel"]
			mock.Requests = append(mock.Requests, GraphRequest{
				Query:            r.URL.Query(),
				ConsistencyLevel: r.Header.Get("ConsistencyLevel"),
				HasConsistency:   hasConsistency,
				Authorization:    r.Header.Get("Authorization"),
			})

			pageIndex := 0
			if token := r.URL.Query().Get("$skiptoken"); token != "" {
				_, _ = fmt.Sscanf(token, "page-%d", &pageIndex)
			}

			if pageIndex == mock.FailAtPage {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(mock.FailStatus)

				failure := map[string]any{
					"error": map[string]any{
						"code":    "serviceError",
						"message": mock.FailMessage,
					},
				}
				data, _ := json.Marshal(failure)
				_, _ = w.Write(data)
				return
			}

			body := map[string]any{}
			if pageIndex < len(mock.Pages) {
				body["value"] = mock.Pages[pageIndex]
			} else {
				body["value"] = []map[string]any{}
			}

			if pageIndex == 0 && mock.Count > 0 && r.URL.Query().Get("$count") == "true" {
				body["@odata.count"] = mock.Count
			}

			if pageIndex < len(mock.Pages)-1 {
				body["@odata.nextLink"] = fmt.Sprintf("%s%s?$skiptoken=page-%d",
					mock.Server.URL, r.URL.Path, pageIndex+1)
			}

			WriteJSON(w, body)
		})
	}

	mock.Server = httptest.NewServer(router)
	t.Cleanup(mock.Server.Close)
	return mock
}

// WriteJSON is a helper function that writes a JSON response. It sets the
// Content-Type header and marshals the payload to JSON.
func WriteJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		// In test context, this should never happen with valid test data
		http.Error(w, fmt.Sprintf("failed to marshal JSON: %v", err), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write(data)
}
