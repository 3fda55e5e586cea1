package cache

import (
	"testing"

	"github.com/Sternrassler/pagewindow/pkg/pagination"
)

func TestCountKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CountKey
		want string
	}{
		{
			name: "source only",
			key:  CountKey{Source: "users"},
			want: "pagewindow:count:users",
		},
		{
			name: "order does not change the key",
			key: CountKey{
				Source: "users",
				Query:  pagination.Query{Order: "-id"},
			},
			want: "pagewindow:count:users",
		},
		{
			name: "conditions sorted",
			key: CountKey{
				Source: "users",
				Query: pagination.Query{
					Conditions: map[string]any{"role": "admin", "active": true},
				},
			},
			want: "pagewindow:count:users:cond.active=true:cond.role=admin",
		},
		{
			name: "custom finder with ids",
			key: CountKey{
				Source: "orders",
				Query: pagination.Query{
					Finder: "find_by_owner",
					IDs:    []string{"7", "3"},
				},
			},
			want: "pagewindow:count:orders:finder=find_by_owner:ids=7,3",
		},
		{
			name: "default finder omitted",
			key: CountKey{
				Source: "orders",
				Query:  pagination.Query{Finder: pagination.DefaultFinder},
			},
			want: "pagewindow:count:orders",
		},
		{
			name: "count options and params",
			key: CountKey{
				Source: "posts",
				Query: pagination.Query{
					Count:  map[string]any{"select": "id"},
					Params: map[string]any{"include": "author"},
				},
			},
			want: "pagewindow:count:posts:count.select=id:param.include=author",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if got != tt.want {
				t.Errorf("CountKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCountKey_Determinism ensures same input always produces same key
func TestCountKey_Determinism(t *testing.T) {
	key := CountKey{
		Source: "users",
		Query: pagination.Query{
			Conditions: map[string]any{"a": 1, "b": 2, "c": 3, "d": 4},
			Params:     map[string]any{"x": "1", "y": "2"},
		},
	}

	first := key.String()
	for i := 0; i < 10; i++ {
		if result := key.String(); result != first {
			t.Errorf("result[%d] = %v, want %v (not deterministic)", i, result, first)
		}
	}
}

func TestSourcePattern(t *testing.T) {
	if got := SourcePattern("users"); got != "pagewindow:count:users:*" {
		t.Errorf("SourcePattern() = %v", got)
	}
}
