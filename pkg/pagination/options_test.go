package pagination

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name           string
		opts           Options
		defaultPerPage int
		wantPage       int
		wantPerPage    int
		wantTotal      *int
		wantErr        error
	}{
		{
			name:        "page as given",
			opts:        Options{Page: IntPtr(3), PerPage: 10},
			wantPage:    3,
			wantPerPage: 10,
		},
		{
			name:    "zero page",
			opts:    Options{Page: IntPtr(0)},
			wantErr: ErrInvalidPage,
		},
		{
			name:    "offset overflows int",
			opts:    Options{Page: IntPtr(math.MaxInt), PerPage: 10},
			wantErr: ErrInvalidPage,
		},
		{
			name:        "largest page with a representable offset",
			opts:        Options{Page: IntPtr(math.MaxInt/10 + 1), PerPage: 10},
			wantPage:    math.MaxInt/10 + 1,
			wantPerPage: 10,
		},
		{
			name:           "entity default per page",
			opts:           Options{Page: IntPtr(1)},
			defaultPerPage: 50,
			wantPage:       1,
			wantPerPage:    50,
		},
		{
			name:           "non-positive entity default falls back to 30",
			opts:           Options{Page: IntPtr(1)},
			defaultPerPage: -5,
			wantPage:       1,
			wantPerPage:    30,
		},
		{
			name:        "total entries passed through",
			opts:        Options{Page: IntPtr(2), TotalEntries: IntPtr(0)},
			wantPage:    2,
			wantPerPage: DefaultPerPage,
			wantTotal:   IntPtr(0),
		},
		{
			name:    "missing page",
			opts:    Options{PerPage: 10},
			wantErr: ErrMissingPageParameter,
		},
		{
			name:    "count and total entries",
			opts:    Options{Page: IntPtr(1), Count: map[string]any{}, TotalEntries: IntPtr(5)},
			wantErr: ErrMutuallyExclusiveCountOptions,
		},
		{
			name:    "count and total entries with other options",
			opts:    Options{Page: IntPtr(4), PerPage: 7, Order: "name", Count: map[string]any{"select": "id"}, TotalEntries: IntPtr(0)},
			wantErr: ErrMutuallyExclusiveCountOptions,
		},
		{
			name:    "negative page",
			opts:    Options{Page: IntPtr(-1)},
			wantErr: ErrInvalidPage,
		},
		{
			name:    "negative per page",
			opts:    Options{Page: IntPtr(1), PerPage: -10},
			wantErr: ErrInvalidPerPage,
		},
		{
			name:    "negative total entries",
			opts:    Options{Page: IntPtr(1), TotalEntries: IntPtr(-1)},
			wantErr: ErrInvalidTotalEntries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := Parse(tt.opts, tt.defaultPerPage)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				if !IsOptionError(err) {
					t.Errorf("IsOptionError(%v) = false, want true", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if req.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", req.Page, tt.wantPage)
			}
			if req.PerPage != tt.wantPerPage {
				t.Errorf("PerPage = %d, want %d", req.PerPage, tt.wantPerPage)
			}
			switch {
			case tt.wantTotal == nil && req.TotalEntries != nil:
				t.Errorf("TotalEntries = %d, want nil", *req.TotalEntries)
			case tt.wantTotal != nil && (req.TotalEntries == nil || *req.TotalEntries != *tt.wantTotal):
				t.Errorf("TotalEntries = %v, want %d", req.TotalEntries, *tt.wantTotal)
			}
		})
	}
}

func TestParseOptions_InvalidType(t *testing.T) {
	inputs := []any{
		nil,
		42,
		"page=1",
		[]string{"page", "1"},
		map[int]any{1: "page"},
		(*Options)(nil),
	}

	for _, in := range inputs {
		if _, err := ParseOptions(in); !errors.Is(err, ErrInvalidOptionsType) {
			t.Errorf("ParseOptions(%#v) error = %v, want ErrInvalidOptionsType", in, err)
		}
	}
}

func TestParseOptions_MissingVersusFalsyPage(t *testing.T) {
	tests := []struct {
		name     string
		raw      any
		wantErr  error
		wantPage int
	}{
		{name: "absent", raw: map[string]any{"per_page": 10}, wantErr: ErrMissingPageParameter},
		{name: "nil", raw: map[string]any{"page": nil}, wantPage: 1},
		{name: "false", raw: map[string]any{"page": false}, wantPage: 1},
		{name: "empty string", raw: url.Values{"page": {""}}, wantPage: 1},
		{name: "explicit zero", raw: map[string]any{"page": 0}, wantErr: ErrInvalidPage},
		{name: "zero from query string", raw: url.Values{"page": {"0"}}, wantErr: ErrInvalidPage},
		{name: "offset overflow from query string", raw: url.Values{"page": {strconv.Itoa(math.MaxInt)}}, wantErr: ErrInvalidPage},
		{name: "symbol style key", raw: map[string]any{":page": 4}, wantPage: 4},
		{name: "string value", raw: map[string]string{"page": "7"}, wantPage: 7},
		{name: "interface keys", raw: map[any]any{"Page": 2}, wantPage: 2},
		{name: "float value", raw: map[string]any{"page": 3.0}, wantPage: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseOptions(tt.raw)
			if err != nil {
				t.Fatalf("ParseOptions() error = %v", err)
			}
			req, err := Parse(opts, 0)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if req.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", req.Page, tt.wantPage)
			}
		})
	}
}

func TestParseOptions_Fields(t *testing.T) {
	raw := map[string]any{
		"page":       "2",
		"perPage":    "15",
		"order":      "created_at",
		"finder":     "find_by_owner",
		"ids":        []int{4, 5, 6},
		"conditions": map[string]string{"status": "active"},
		"count":      map[string]any{"select": "id"},
		"include":    "author",
	}

	opts, err := ParseOptions(raw)
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}

	if opts.Page == nil || *opts.Page != 2 {
		t.Errorf("Page = %v, want 2", opts.Page)
	}
	if opts.PerPage != 15 {
		t.Errorf("PerPage = %d, want 15", opts.PerPage)
	}
	if opts.Order != "created_at" {
		t.Errorf("Order = %q, want created_at", opts.Order)
	}
	if opts.Finder != "find_by_owner" || opts.IsDefaultFinder() {
		t.Errorf("Finder = %q, want find_by_owner", opts.Finder)
	}
	if len(opts.IDs) != 3 || opts.IDs[0] != "4" || opts.IDs[2] != "6" {
		t.Errorf("IDs = %v, want [4 5 6]", opts.IDs)
	}
	if opts.Conditions["status"] != "active" {
		t.Errorf("Conditions = %v", opts.Conditions)
	}
	if opts.Count["select"] != "id" {
		t.Errorf("Count = %v", opts.Count)
	}
	if opts.Params["include"] != "author" {
		t.Errorf("Params = %v, want include passed through", opts.Params)
	}
	if opts.TotalEntries != nil {
		t.Errorf("TotalEntries = %d, want nil", *opts.TotalEntries)
	}

	q := opts.Query()
	if q.Order != "created_at" || q.Count == nil || q.Params["include"] != "author" {
		t.Errorf("Query() = %+v", q)
	}
}

func TestParseOptions_URLValues(t *testing.T) {
	values := url.Values{
		"page":          {"3"},
		"per_page":      {"25"},
		"total_entries": {"80"},
		"ids":           {"a,b, c"},
		"tag":           {"x", "y"},
	}

	opts, err := ParseOptions(values)
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	req, err := Parse(opts, 0)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if req.Page != 3 || req.PerPage != 25 || req.TotalEntries == nil || *req.TotalEntries != 80 {
		t.Errorf("Parse() = %+v", req)
	}
	if len(opts.IDs) != 3 || opts.IDs[2] != "c" {
		t.Errorf("IDs = %v, want [a b c]", opts.IDs)
	}
	if tags, ok := opts.Params["tag"].([]string); !ok || len(tags) != 2 {
		t.Errorf("Params[tag] = %v, want both values", opts.Params["tag"])
	}
}

func TestParseOptions_CountAndTotalFromMap(t *testing.T) {
	opts, err := ParseOptions(map[string]any{
		"page":          1,
		"count":         map[string]any{"distinct": true},
		"total_entries": 0,
	})
	if err != nil {
		t.Fatalf("ParseOptions() error = %v", err)
	}
	if _, err := Parse(opts, 0); !errors.Is(err, ErrMutuallyExclusiveCountOptions) {
		t.Errorf("Parse() error = %v, want ErrMutuallyExclusiveCountOptions", err)
	}
}

func TestParseOptions_BadValues(t *testing.T) {
	tests := []struct {
		name    string
		raw     map[string]any
		wantErr error
	}{
		{name: "page not a number", raw: map[string]any{"page": "abc"}, wantErr: ErrInvalidPage},
		{name: "fractional page", raw: map[string]any{"page": 1.5}, wantErr: ErrInvalidPage},
		{name: "per page not a number", raw: map[string]any{"page": 1, "per_page": "ten"}, wantErr: ErrInvalidPerPage},
		{name: "total not a number", raw: map[string]any{"page": 1, "total_entries": struct{}{}}, wantErr: ErrInvalidTotalEntries},
		{name: "count not a mapping", raw: map[string]any{"page": 1, "count": "yes"}, wantErr: ErrInvalidOptionsType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseOptions(tt.raw); !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseOptions() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
