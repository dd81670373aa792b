package sommelier

import (
	"encoding/json"
	"testing"
)

func TestLooseInt(t *testing.T) {
	cases := []struct {
		raw  string
		want *int
	}{
		{`2019`, intPtr(2019)},
		{`2019.6`, intPtr(2020)},
		{`"2019"`, intPtr(2019)},
		{`"85%"`, intPtr(85)},
		{`"NV"`, nil},
		{`null`, nil},
		{`true`, nil},
		{`{}`, nil},
	}
	for _, tc := range cases {
		var v looseInt
		if err := json.Unmarshal([]byte(tc.raw), &v); err != nil {
			t.Fatalf("%s: unexpected error %v", tc.raw, err)
		}
		switch {
		case tc.want == nil && v.v != nil:
			t.Fatalf("%s: expected unset, got %d", tc.raw, *v.v)
		case tc.want != nil && (v.v == nil || *v.v != *tc.want):
			t.Fatalf("%s: expected %d, got %v", tc.raw, *tc.want, v.v)
		}
	}
}

func intPtr(v int) *int { return &v }
