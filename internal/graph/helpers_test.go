package graph_test

import (
	"context"

	"github.com/entra-tools/devicectl/internal/graph"
	"github.com/entra-tools/devicectl/internal/testhelpers"
)

// staticTokens is a TokenProvider returning a fixed token.
type staticTokens string

func (s staticTokens) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

func newTestClient(mock *testhelpers.MockGraphServer) *graph.Client {
	return graph.New(staticTokens("test-token"), graph.WithBaseURL(mock.Server.URL+"/v1.0"))
}

func devicePage(ids ...string) []map[string]any {
	page := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		page = append(page, map[string]any{
			"id":          id,
			"displayName": "DESKTOP-" + id,
		})
	}
	return page
}

func deviceIDs(devices []graph.Device) []string {
	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		ids = append(ids, d.ID)
	}
	return ids
}
