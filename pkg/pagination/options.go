package pagination

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// DefaultPerPage is the page size used when neither the caller nor the
	// paginator configuration supplies one.
	DefaultPerPage = 30

	// DefaultFinder names the plain lookup finder. The identifier-list
	// shortcut only applies to it.
	DefaultFinder = "find"

	// DefaultOrder is the sort key Each applies when the caller sets none.
	DefaultOrder = "id"
)

// Options is the typed pagination request.
//
// Page is a pointer so that an absent page (nil) can be told apart from a
// present one. It is taken as given and must be at least 1; ParseOptions
// maps a present but empty page value to 1.
type Options struct {
	Page         *int
	PerPage      int
	TotalEntries *int

	// Count holds options forwarded to the count collaborator only.
	Count map[string]any

	Finder     string
	IDs        []string
	Conditions map[string]any
	Order      string

	// Params carries every other option through to the collaborators untouched.
	Params map[string]any
}

// Request is the normalized (page, per_page, total_entries) triple.
type Request struct {
	Page         int  `validate:"min=1"`
	PerPage      int  `validate:"gt=0"`
	TotalEntries *int `validate:"omitempty,min=0"`
}

// Query is the non-pagination part of Options handed to Fetch and Count.
type Query struct {
	Finder     string
	IDs        []string
	Conditions map[string]any
	Order      string
	Params     map[string]any

	// Count is only populated on the query passed to Count.
	Count map[string]any
}

var validate = validator.New()

// IntPtr returns a pointer to n. Handy for Options.Page and Options.TotalEntries.
func IntPtr(n int) *int {
	return &n
}

// Parse validates opts and derives the pagination triple.
// defaultPerPage is the per-entity default; values <= 0 fall back to DefaultPerPage.
func Parse(opts Options, defaultPerPage int) (Request, error) {
	if opts.Page == nil {
		return Request{}, ErrMissingPageParameter
	}
	if opts.Count != nil && opts.TotalEntries != nil {
		return Request{}, ErrMutuallyExclusiveCountOptions
	}

	perPage := opts.PerPage
	if perPage == 0 {
		perPage = defaultPerPage
		if perPage <= 0 {
			perPage = DefaultPerPage
		}
	}

	req := Request{
		Page:         *opts.Page,
		PerPage:      perPage,
		TotalEntries: opts.TotalEntries,
	}
	if err := validate.Struct(req); err != nil {
		return Request{}, translateValidation(req, err)
	}
	// the offset (page-1)*per_page must fit in an int
	if req.Page-1 > math.MaxInt/req.PerPage {
		return Request{}, fmt.Errorf("%w: page %d out of range for per_page %d", ErrInvalidPage, req.Page, req.PerPage)
	}
	return req, nil
}

func translateValidation(req Request, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	switch verrs[0].Field() {
	case "Page":
		return fmt.Errorf("%w: got %d", ErrInvalidPage, req.Page)
	case "PerPage":
		return fmt.Errorf("%w: got %d", ErrInvalidPerPage, req.PerPage)
	case "TotalEntries":
		return fmt.Errorf("%w: got %d", ErrInvalidTotalEntries, *req.TotalEntries)
	}
	return err
}

// IsDefaultFinder reports whether the options use the plain lookup finder.
func (o Options) IsDefaultFinder() bool {
	return o.Finder == "" || o.Finder == DefaultFinder
}

// Query returns the collaborator-facing part of the options.
func (o Options) Query() Query {
	return Query{
		Finder:     o.Finder,
		IDs:        o.IDs,
		Conditions: o.Conditions,
		Order:      o.Order,
		Params:     o.Params,
		Count:      o.Count,
	}
}

// ParseOptions converts a mapping-like value into Options. Keys are matched
// case-insensitively and may carry a leading colon, so "page", ":page" and
// "Page" are the same key.
//
// Accepted inputs are Options, *Options, url.Values and any map keyed by
// strings (or by interface values holding strings). Anything else fails
// with ErrInvalidOptionsType.
func ParseOptions(raw any) (Options, error) {
	switch v := raw.(type) {
	case nil:
		return Options{}, fmt.Errorf("%w: got nil", ErrInvalidOptionsType)
	case Options:
		return v, nil
	case *Options:
		if v == nil {
			return Options{}, fmt.Errorf("%w: got nil *Options", ErrInvalidOptionsType)
		}
		return *v, nil
	case url.Values:
		m := make(map[string]any, len(v))
		for key, values := range v {
			switch len(values) {
			case 0:
				m[key] = nil
			case 1:
				m[key] = values[0]
			default:
				m[key] = values
			}
		}
		return optionsFromMap(m)
	case map[string]any:
		return optionsFromMap(v)
	}

	m, ok := stringKeyedMap(raw)
	if !ok {
		return Options{}, fmt.Errorf("%w: got %T", ErrInvalidOptionsType, raw)
	}
	return optionsFromMap(m)
}

// stringKeyedMap copies any map whose keys are strings into map[string]any.
func stringKeyedMap(raw any) (map[string]any, bool) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Map {
		return nil, false
	}

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := iter.Key()
		if key.Kind() == reflect.Interface {
			key = key.Elem()
		}
		if key.Kind() != reflect.String {
			return nil, false
		}
		out[key.String()] = iter.Value().Interface()
	}
	return out, true
}

func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(key), ":"))
	key = strings.ReplaceAll(key, "-", "_")
	switch key {
	case "perpage":
		return "per_page"
	case "totalentries":
		return "total_entries"
	}
	return key
}

func optionsFromMap(m map[string]any) (Options, error) {
	var opts Options
	for rawKey, value := range m {
		key := normalizeKey(rawKey)
		switch key {
		case "page":
			n, err := optionalInt(value)
			if err != nil {
				return Options{}, fmt.Errorf("%w: page %v: %v", ErrInvalidPage, value, err)
			}
			if n == nil {
				n = IntPtr(1)
			}
			opts.Page = n
		case "per_page":
			n, err := optionalInt(value)
			if err != nil {
				return Options{}, fmt.Errorf("%w: per_page %v: %v", ErrInvalidPerPage, value, err)
			}
			if n != nil {
				opts.PerPage = *n
			}
		case "total_entries":
			n, err := optionalInt(value)
			if err != nil {
				return Options{}, fmt.Errorf("%w: total_entries %v: %v", ErrInvalidTotalEntries, value, err)
			}
			opts.TotalEntries = n
		case "count":
			if isFalsy(value) {
				continue
			}
			cm, ok := asMap(value)
			if !ok {
				return Options{}, fmt.Errorf("%w: count options must be a mapping, got %T", ErrInvalidOptionsType, value)
			}
			opts.Count = cm
		case "finder":
			if !isFalsy(value) {
				opts.Finder = fmt.Sprint(value)
			}
		case "order":
			if !isFalsy(value) {
				opts.Order = fmt.Sprint(value)
			}
		case "ids":
			if !isFalsy(value) {
				opts.IDs = asStrings(value)
			}
		case "conditions":
			if isFalsy(value) {
				continue
			}
			cm, ok := asMap(value)
			if !ok {
				return Options{}, fmt.Errorf("%w: conditions must be a mapping, got %T", ErrInvalidOptionsType, value)
			}
			opts.Conditions = cm
		default:
			if opts.Params == nil {
				opts.Params = make(map[string]any)
			}
			opts.Params[rawKey] = value
		}
	}
	return opts, nil
}

// isFalsy treats nil, false and the empty string as "present without a value".
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// optionalInt returns nil for falsy values and the integer value otherwise.
func optionalInt(v any) (*int, error) {
	if isFalsy(v) {
		return nil, nil
	}
	switch t := v.(type) {
	case int:
		return IntPtr(t), nil
	case int8:
		return IntPtr(int(t)), nil
	case int16:
		return IntPtr(int(t)), nil
	case int32:
		return IntPtr(int(t)), nil
	case int64:
		return IntPtr(int(t)), nil
	case uint:
		return IntPtr(int(t)), nil
	case uint8:
		return IntPtr(int(t)), nil
	case uint16:
		return IntPtr(int(t)), nil
	case uint32:
		return IntPtr(int(t)), nil
	case uint64:
		return IntPtr(int(t)), nil
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return nil, err
		}
		return IntPtr(int(n)), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return nil, err
		}
		return IntPtr(n), nil
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
		return optionalInt(t[0])
	}
	return nil, fmt.Errorf("unsupported type %T", v)
}

func floatToInt(f float64) (*int, error) {
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("not an integer")
	}
	return IntPtr(int(f)), nil
}

func asMap(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case map[string]string:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, true
	}
	return stringKeyedMap(v)
}

// asStrings converts an identifier collection into strings. A single string
// is split on commas so that "ids=1,2,3" from a query string works.
func asStrings(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case string:
		parts := strings.Split(t, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []string{fmt.Sprint(v)}
	}
	out := make([]string, rv.Len())
	for i := range out {
		out[i] = fmt.Sprint(rv.Index(i).Interface())
	}
	return out
}
