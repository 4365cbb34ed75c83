package odata_test

import (
	"testing"

	"github.com/entra-tools/devicectl/internal/odata"
	"github.com/stretchr/testify/assert"
)

func TestValuesEmptyQuery(t *testing.T) {
	v := odata.Query{}.Values()
	assert.Empty(t, v)
}

func TestValuesSelectAndOrderByJoined(t *testing.T) {
	q := odata.Query{
		Select:  []string{"id", "displayName", "operatingSystem"},
		OrderBy: []string{"displayName", "id"},
	}

	v := q.Values()
	assert.Equal(t, "id,displayName,operatingSystem", v.Get("$select"))
	assert.Equal(t, "displayName,id", v.Get("$orderby"))
}

func TestValuesSearchQuoted(t *testing.T) {
	q := odata.Query{Search: "displayName:DESKTOP"}

	v := q.Values()
	assert.Equal(t, `"displayName:DESKTOP"`, v.Get("$search"))
}

func TestValuesCountEmittedForAdvancedQueries(t *testing.T) {
	v := odata.Query{Filter: "operatingSystem eq 'Windows'"}.Values()
	assert.Equal(t, "true", v.Get("$count"))

	v = odata.Query{Select: []string{"id"}}.Values()
	assert.False(t, v.Has("$count"))
}

func TestValuesTopTakesPrecedenceOverAll(t *testing.T) {
	v := odata.Query{Top: 50, All: true}.Values()
	assert.Equal(t, "50", v.Get("$top"))

	v = odata.Query{All: true}.Values()
	assert.Equal(t, "999", v.Get("$top"))

	v = odata.Query{}.Values()
	assert.False(t, v.Has("$top"))
}

func TestAdvanced(t *testing.T) {
	assert.False(t, odata.Query{Select: []string{"id"}, Top: 10}.Advanced())
	assert.True(t, odata.Query{Filter: "accountEnabled eq true"}.Advanced())
	assert.True(t, odata.Query{Search: "displayName:x"}.Advanced())
	assert.True(t, odata.Query{OrderBy: []string{"displayName"}}.Advanced())
}

func TestPaged(t *testing.T) {
	assert.False(t, odata.Query{}.Paged())
	assert.True(t, odata.Query{All: true}.Paged())

	// an explicit cap disables continuation
	assert.False(t, odata.Query{All: true, Top: 50}.Paged())
}
