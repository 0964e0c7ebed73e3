package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext(t *testing.T) {
	cases := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", DefaultLimit, 0},
		{"limit=10&offset=5", 10, 5},
		{"limit=0", DefaultLimit, 0},
		{"limit=-3&offset=-3", DefaultLimit, 0},
		{"limit=10000", MaxLimit, 0},
		{"limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tc := range cases {
		p := paramsFor(t, tc.query)
		if p.Limit != tc.wantLimit || p.Offset != tc.wantOffset {
			t.Errorf("%q: got %d/%d, want %d/%d", tc.query, p.Limit, p.Offset, tc.wantLimit, tc.wantOffset)
		}
	}
}

func TestResponseHasMore(t *testing.T) {
	r := NewResponse(nil, 50, 20, 0)
	if !r.HasMore {
		t.Error("first page of 50 should have more")
	}
	r = NewResponse(nil, 50, 20, 40)
	if r.HasMore {
		t.Error("last page should not have more")
	}
}
