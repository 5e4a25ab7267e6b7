package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theLastOfCats/mylibrary-server/internal/catalog"
	"github.com/theLastOfCats/mylibrary-server/internal/testutil"
)

func TestGetBookByISBN(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.books["9780261102217"] = &catalog.Book{
		Title:   "The Hobbit",
		ISBN13:  "9780261102217",
		Authors: catalog.Authors{"J.R.R. Tolkien"},
	}
	token := testutil.Token(t, "user-1", "")

	for _, body := range []string{"9780261102217", " 9780261102217\n", `"9780261102217"`} {
		rr := env.do(t, "POST", "/api/getBook", token, body)
		require.Equal(t, http.StatusOK, rr.Code, "body %q: %s", body, rr.Body.String())

		var resp struct {
			Book catalog.Book `json:"book"`
		}
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "The Hobbit", resp.Book.Title)
	}

	rr := env.do(t, "POST", "/api/getBook", token, "0000000000")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(t, "POST", "/api/getBook", token, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCatalogUpstreamFailureIs502(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.err = &catalog.Error{Op: "search", Err: catalog.ErrUpstream}
	token := testutil.Token(t, "user-1", "")

	rr := env.do(t, "POST", "/api/getBook", token, "9780261102217")
	assert.Equal(t, http.StatusBadGateway, rr.Code)

	rr = env.do(t, "POST", "/api/searchBooks", token, map[string]string{"title": "hobbit"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	resp := decode[ErrorResponse](t, rr)
	assert.False(t, resp.Success)
	assert.NotContains(t, resp.Error, "upstream", "internal detail stays in the logs")

	rr = env.do(t, "GET", "/api/catalogStats", token, nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestSearchBooksDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.results = []catalog.Book{
		{Title: "The Hobbit", ISBN13: "9780261102217", Authors: catalog.Authors{"J.R.R. Tolkien"}},
		{Title: "The Hobbit", ISBN13: "9780547928227", Authors: catalog.Authors{"J.R.R. Tolkien"}},
		{Title: "The Hobbit", ISBN13: "9780007487301"},
		{Title: "The Annotated Hobbit", ISBN13: "9780618134700", Authors: catalog.Authors{"J.R.R. Tolkien", "Douglas A. Anderson"}},
	}
	token := testutil.Token(t, "user-1", "")

	rr := env.do(t, "POST", "/api/searchBooks", token, map[string]string{"title": "The Hobbit", "author": "Tolkien"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Total int            `json:"total"`
		Data  []catalog.Book `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "9780547928227", resp.Data[0].ISBN13)
	assert.Equal(t, "9780007487301", resp.Data[1].ISBN13)
	assert.Equal(t, "The Annotated Hobbit", resp.Data[2].Title)
	assert.Equal(t, []string{"The Hobbit|Tolkien"}, env.catalog.searches)
}

func TestSearchBooksEmptyResult(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.results = []catalog.Book{}
	token := testutil.Token(t, "user-1", "")

	rr := env.do(t, "POST", "/api/searchBooks", token, map[string]string{"title": ""})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"total":0,"data":[]}`, rr.Body.String())

	rr = env.do(t, "POST", "/api/searchBooks", token, `{"title":"x","isbn":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCatalogStatsPassthrough(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.stats = json.RawMessage(`{"books":36000000,"authors":5000000}`)

	rr := env.do(t, "GET", "/api/catalogStats", testutil.Token(t, "user-1", ""), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"books":36000000,"authors":5000000}`, rr.Body.String())
}
