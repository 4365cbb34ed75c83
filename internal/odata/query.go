// Package odata translates query options into the OData system query
// parameters understood by Microsoft Graph.
//
// https://learn.microsoft.com/en-us/graph/query-parameters
package odata

import (
	"net/url"
	"strconv"
	"strings"
)

// MaxPageSize is the largest page size accepted by Graph list endpoints.
const MaxPageSize = 999

// Query holds the OData query options supported by Graph list endpoints.
// Zero-valued options are omitted from the request entirely.
type Query struct {
	// Select limits the properties returned for each object.
	Select []string

	// Filter is an OData $filter expression.
	Filter string

	// Search is an OData $search expression. Quoting is handled here.
	Search string

	// OrderBy sorts the result by the named properties.
	OrderBy []string

	// Top caps the result at a single page of the given size (1..999).
	Top int

	// All requests every page by following server continuation links.
	// Ignored when Top is set.
	All bool
}

// Advanced reports whether the query uses capabilities that require
// $count=true together with the "ConsistencyLevel: eventual" header.
// Graph rejects such queries server-side when the header is missing.
func (q Query) Advanced() bool {
	return q.Filter != "" || q.Search != "" || len(q.OrderBy) > 0
}

// Paged reports whether continuation links should be followed.
func (q Query) Paged() bool {
	return q.All && q.Top == 0
}

// Values renders the query as URL parameters, emitting only the options
// that are set.
func (q Query) Values() url.Values {
	v := url.Values{}

	if len(q.Select) > 0 {
		v.Set("$select", strings.Join(q.Select, ","))
	}
	if q.Filter != "" {
		v.Set("$filter", q.Filter)
	}
	if q.Search != "" {
		v.Set("$search", `"`+q.Search+`"`)
	}
	if len(q.OrderBy) > 0 {
		v.Set("$orderby", strings.Join(q.OrderBy, ","))
	}

	switch {
	case q.Top > 0:
		v.Set("$top", strconv.Itoa(q.Top))
	case q.All:
		v.Set("$top", strconv.Itoa(MaxPageSize))
	}

	if q.Advanced() {
		v.Set("$count", "true")
	}

	return v
}
