package query

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"malladmin/internal/model"
)

func TestFromValuesDefaults(t *testing.T) {
	p, err := FromValues(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, 0, p.Offset())
	assert.False(t, p.Desc)
	assert.Empty(t, p.Filters)
}

func TestFromValuesClamps(t *testing.T) {
	tests := []struct {
		name     string
		page     string
		size     string
		wantPage int
		wantSize int
	}{
		{"negative page", "-3", "10", 1, 10},
		{"garbage page", "abc", "10", 1, 10},
		{"huge size", "2", "5000", 2, MaxPageSize},
		{"zero size", "2", "0", 2, DefaultPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := FromValues(url.Values{"page": {tt.page}, "page_size": {tt.size}})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
		})
	}

	p, err := FromValues(url.Values{"page": {"3"}, "page_size": {"25"}})
	require.NoError(t, err)
	assert.Equal(t, 50, p.Offset())
}

func TestFromValuesFilters(t *testing.T) {
	v := url.Values{
		"q":       {"  food court "},
		"status":  {"active"},
		"mall_id": {"7"},
		"role":    {"viewer"},
		"ignored": {"x"},
		"order":   {"DESC"},
	}
	p, err := FromValues(v, "mall_id", "role")
	require.NoError(t, err)
	assert.Equal(t, "food court", p.Search)
	assert.Equal(t, "active", p.Status)
	assert.Equal(t, "viewer", p.Filter("role"))
	assert.Equal(t, "", p.Filter("ignored"))
	assert.True(t, p.Desc)

	id, ok := p.FilterID("mall_id")
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	_, ok = p.FilterID("shop_id")
	assert.False(t, ok)
}

func TestFromValuesRejectsBadID(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-2"} {
		_, err := FromValues(url.Values{"mall_id": {raw}}, "mall_id")
		var ve *model.ValidationError
		require.True(t, errors.As(err, &ve), raw)
		assert.Equal(t, "mall_id", ve.Field)
	}
}

func TestOrderByWhitelist(t *testing.T) {
	allowed := map[string]string{"name": "m.name", "city": "m.city"}

	p := ListParams{Sort: "name"}
	assert.Equal(t, "ORDER BY m.name ASC", p.OrderBy(allowed, "m.created_at DESC"))

	p = ListParams{Sort: "city", Desc: true}
	assert.Equal(t, "ORDER BY m.city DESC", p.OrderBy(allowed, "m.created_at DESC"))

	p = ListParams{Sort: "name; DROP TABLE malls"}
	assert.Equal(t, "ORDER BY m.created_at DESC", p.OrderBy(allowed, "m.created_at DESC"))

	p = ListParams{}
	assert.Equal(t, "ORDER BY m.created_at DESC", p.OrderBy(allowed, "m.created_at DESC"))
}

func TestWhereEmpty(t *testing.T) {
	w := NewWhere()
	assert.Equal(t, "", w.SQL())
	assert.Empty(t, w.Args())

	w.Search("   ", "name").EqIf("status", "")
	assert.Equal(t, "", w.SQL())
}

func TestWhereSearchSharesPlaceholder(t *testing.T) {
	w := NewWhere().Search("mall", "name", "city", "address").Eq("status", "active")

	assert.Equal(t, "WHERE (name ILIKE $1 OR city ILIKE $1 OR address ILIKE $1) AND status = $2", w.SQL())
	assert.Equal(t, []any{"%mall%", "active"}, w.Args())
}

func TestWhereSearchEscapesWildcards(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`c:\path`, `%c:\\path%`},
	}
	for _, tt := range tests {
		w := NewWhere().Search(tt.in, "name")
		assert.Equal(t, []any{tt.want}, w.Args(), tt.in)
	}
}

func TestWhereCondInAndLimit(t *testing.T) {
	w := NewWhere().
		Cond("p.paid_at >= %s", "2026-01-01").
		In("b.status", "pending", "confirmed")
	assert.Equal(t, "WHERE p.paid_at >= $1 AND b.status IN ($2, $3)", w.SQL())

	countArgs := w.Args()
	limit := w.Limit(ListParams{Page: 2, PageSize: 10})
	assert.Equal(t, "LIMIT $4 OFFSET $5", limit)
	assert.Len(t, countArgs, 3)
	assert.Equal(t, []any{"2026-01-01", "pending", "confirmed", 10, 10}, w.Args())

	none := NewWhere().In("id")
	assert.Equal(t, "WHERE FALSE", none.SQL())
}

func TestNewPageNeverNilItems(t *testing.T) {
	p := NewPage[int](nil, 0, ListParams{Page: 1, PageSize: 20})
	assert.NotNil(t, p.Items)
	assert.Equal(t, 20, p.PageSize)
}
