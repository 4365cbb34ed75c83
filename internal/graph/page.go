package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/entra-tools/devicectl/internal/odata"
	"github.com/rs/zerolog/log"
)

// page is the standard Graph collection envelope.
type page[T any] struct {
	Value    []T    `json:"value"`
	Count    *int64 `json:"@odata.count"`
	NextLink string `json:"@odata.nextLink"`
}

// listPages drives the paging loop for a collection resource. The default
// is a single page; a continuation link is only followed in fetch-all mode.
// The continuation token replaces nothing: it is combined with the original
// parameter set so the server resumes the same query. A failed page aborts
// the whole listing.
func listPages[T any](ctx context.Context, c *Client, resource string, q odata.Query) ([]T, error) {
	params := q.Values()
	advanced := q.Advanced()

	var results []T
	total := int64(-1)
	start := time.Now()

	for {
		resp, err := c.do(ctx, http.MethodGet, resource, params, advanced)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			return nil, requestError(resp)
		}

		var pg page[T]
		err = json.NewDecoder(resp.Body).Decode(&pg)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s response: %w", resource, err)
		}

		results = append(results, pg.Value...)

		if pg.NextLink == "" || !q.Paged() {
			break
		}

		// The total count is only present on the first page.
		if pg.Count != nil {
			total = *pg.Count
		}
		log.Debug().
			Int("received", len(results)).
			Int64("total", total).
			Msg("received partial listing")

		token, err := continuationToken(pg.NextLink)
		if err != nil {
			return nil, err
		}
		params.Set("$skiptoken", token)
	}

	log.Info().
		Int("received", len(results)).
		Dur("elapsed", time.Since(start)).
		Msg("received listing")

	return results, nil
}

// continuationToken extracts the opaque $skiptoken from a server-issued
// continuation link.
func continuationToken(nextLink string) (string, error) {
	u, err := url.Parse(nextLink)
	if err != nil {
		return "", fmt.Errorf("parse continuation link: %w", err)
	}

	token := u.Query().Get("$skiptoken")
	if token == "" {
		return "", fmt.Errorf("continuation link without $skiptoken: %s", nextLink)
	}

	return token, nil
}
