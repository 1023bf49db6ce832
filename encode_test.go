package jsonrpc11

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSet_Marshal(t *testing.T) {
	out, err := json.Marshal(NewSet("a"))
	require.NoError(t, err)
	require.JSONEq(t, `["a"]`, string(out))

	// Element order is unspecified; compare as a set.
	out, err = json.Marshal(NewSet("a", "b", "b", "c"))
	require.NoError(t, err)
	var elems []string
	require.NoError(t, json.Unmarshal(out, &elems))
	require.ElementsMatch(t, []string{"a", "b", "c"}, elems)

	out, err = json.Marshal(Set{})
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(out))
}

// TestNormalizeParams checks the domain-value to wire-value rewrite by
// marshaling normalized params. Cases stick to single-element sets so the
// output is deterministic.
func TestNormalizeParams(t *testing.T) {
	tt := []struct {
		name   string
		input  []interface{}
		expect string
	}{
		{
			name:   "nil params",
			input:  nil,
			expect: `[]`,
		},
		{
			name:   "bare set",
			input:  []interface{}{map[string]struct{}{"a": {}}},
			expect: `[["a"]]`,
		},
		{
			name:   "named Set type",
			input:  []interface{}{NewSet("a")},
			expect: `[["a"]]`,
		},
		{
			name: "set nested in a mapping",
			input: []interface{}{map[string]interface{}{
				"method_params":         map[string]struct{}{"a": {}},
				"intermediate_outgoing": NewSet("b"),
			}},
			expect: `[{"method_params": ["a"], "intermediate_outgoing": ["b"]}]`,
		},
		{
			name:   "set nested in a sequence",
			input:  []interface{}{[]interface{}{map[string]struct{}{"a": {}}, "x"}},
			expect: `[[["a"], "x"]]`,
		},
		{
			name:   "typed set keys",
			input:  []interface{}{map[int]struct{}{7: {}}},
			expect: `[[7]]`,
		},
		{
			name:   "plain mapping untouched",
			input:  []interface{}{map[string]bool{"a": true}},
			expect: `[{"a": true}]`,
		},
		{
			name:   "scalars and null pass through",
			input:  []interface{}{1, "two", 3.5, true, nil},
			expect: `[1, "two", 3.5, true, null]`,
		},
		{
			name:   "typed string slice",
			input:  []interface{}{[]string{"a", "b"}},
			expect: `[["a", "b"]]`,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			out, err := json.Marshal(normalizeParams(tc.input))
			require.NoError(t, err)
			require.JSONEq(t, tc.expect, string(out))
		})
	}
}

func TestNormalizeValue_Pointers(t *testing.T) {
	set := map[string]struct{}{"a": {}}
	out, err := json.Marshal(normalizeParams([]interface{}{&set}))
	require.NoError(t, err)
	require.JSONEq(t, `[["a"]]`, string(out))

	var nilMap *map[string]struct{}
	out, err = json.Marshal(normalizeParams([]interface{}{nilMap}))
	require.NoError(t, err)
	require.JSONEq(t, `[null]`, string(out))
}
