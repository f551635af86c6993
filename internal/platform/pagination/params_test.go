package pagination

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseDefaults(t *testing.T) {
	params, err := Parse(url.Values{}, Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.Page != 1 {
		t.Errorf("expected page 1, got %d", params.Page)
	}
	if params.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, params.Limit)
	}
	if params.Offset() != 0 {
		t.Errorf("expected offset 0, got %d", params.Offset())
	}
}

func TestParseExplicitValues(t *testing.T) {
	values := url.Values{"page": {"3"}, "limit": {"10"}}
	params, err := Parse(values, Options{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.Page != 3 || params.Limit != 10 {
		t.Fatalf("unexpected params: %+v", params)
	}
	if params.Offset() != 20 {
		t.Errorf("expected offset 20, got %d", params.Offset())
	}
}

func TestParseClampsLimit(t *testing.T) {
	values := url.Values{"limit": {"500"}}
	params, err := Parse(values, Options{MaxLimit: 50})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.Limit != 50 {
		t.Errorf("expected clamped limit 50, got %d", params.Limit)
	}
}

func TestParseRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		values url.Values
		want   error
	}{
		{"page zero", url.Values{"page": {"0"}}, ErrInvalidPage},
		{"page negative", url.Values{"page": {"-2"}}, ErrInvalidPage},
		{"page text", url.Values{"page": {"abc"}}, ErrInvalidPage},
		{"limit zero", url.Values{"limit": {"0"}}, ErrInvalidLimit},
		{"limit text", url.Values{"limit": {"ten"}}, ErrInvalidLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse(tc.values, Options{}); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	params := Params{Page: 1, Limit: 10}
	cases := map[int]int{0: 0, 1: 1, 10: 1, 11: 2, 95: 10}
	for total, want := range cases {
		if got := params.TotalPages(total); got != want {
			t.Errorf("TotalPages(%d) = %d, want %d", total, got, want)
		}
	}
}

func TestMust(t *testing.T) {
	params := Must(Params{})
	if params.Page != 1 || params.Limit != DefaultLimit {
		t.Fatalf("unexpected normalised params: %+v", params)
	}
}
