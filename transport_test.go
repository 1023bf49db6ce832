package jsonrpc11

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRequest_Marshal tests the JSON conversion of the request envelope.
func TestRequest_Marshal(t *testing.T) {
	tt := []struct {
		name   string
		input  *txRequest
		expect string
	}{
		{
			name: "basic request",
			input: &txRequest{
				Method: "Workspace.ver",
				Params: []interface{}{},
				ID:     "6046425",
			},
			expect: `{
				"method": "Workspace.ver",
				"params": [],
				"version": "1.1",
				"id": "6046425"
			}`,
		},
		{
			name:  "nil params encode as empty array",
			input: &txRequest{Method: "m.f", ID: "1"},
			expect: `{
				"method": "m.f",
				"params": [],
				"version": "1.1",
				"id": "1"
			}`,
		},
		{
			name: "positional params keep order",
			input: &txRequest{
				Method: "m.f",
				Params: []interface{}{map[string]interface{}{"workspace": "foo"}, 1, "x"},
				ID:     "2",
			},
			expect: `{
				"method": "m.f",
				"params": [{"workspace": "foo"}, 1, "x"],
				"version": "1.1",
				"id": "2"
			}`,
		},
		{
			name: "context included when set",
			input: &txRequest{
				Method:  "m.f",
				Params:  []interface{}{},
				ID:      "3",
				Context: map[string]interface{}{"service_ver": "beta"},
			},
			expect: `{
				"method": "m.f",
				"params": [],
				"version": "1.1",
				"id": "3",
				"context": {"service_ver": "beta"}
			}`,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			output, err := json.Marshal(tc.input)
			require.NoError(t, err)
			require.JSONEq(t, tc.expect, string(output))
		})
	}
}

func TestIDSource(t *testing.T) {
	decimal := regexp.MustCompile(`^[0-9]+$`)

	ids := newIDSource()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := ids.Next()
		require.Regexp(t, decimal, id)
		seen[id] = true
	}
	// No uniqueness guarantee, but 100 collisions would mean a broken source.
	require.Greater(t, len(seen), 1)
}

func TestErrorObject_ServiceError(t *testing.T) {
	strptr := func(s string) *string { return &s }

	tt := []struct {
		name   string
		input  *errorObject
		expect *ServiceError
	}{
		{
			name: "all members",
			input: &errorObject{
				Name: "JSONRPCError", Code: -32500,
				Message: strptr("no such workspace"),
				Data:    strptr("trace"),
			},
			expect: &ServiceError{Name: "JSONRPCError", Code: -32500, Message: "no such workspace", Data: "trace"},
		},
		{
			name:   "null message becomes empty string",
			input:  &errorObject{Name: "E", Code: 1},
			expect: &ServiceError{Name: "E", Code: 1, Message: "", Data: ""},
		},
		{
			name: "error member supplies data",
			input: &errorObject{
				Name: "E", Code: 1,
				Message: strptr("m"),
				Error:   strptr("from error member"),
			},
			expect: &ServiceError{Name: "E", Code: 1, Message: "m", Data: "from error member"},
		},
		{
			name: "empty data falls through to error member",
			input: &errorObject{
				Name: "E", Code: 1,
				Message: strptr("m"),
				Data:    strptr(""),
				Error:   strptr("fallback"),
			},
			expect: &ServiceError{Name: "E", Code: 1, Message: "m", Data: "fallback"},
		},
		{
			name: "data wins over error member",
			input: &errorObject{
				Name: "E", Code: 1,
				Message: strptr("m"),
				Data:    strptr("d"),
				Error:   strptr("e"),
			},
			expect: &ServiceError{Name: "E", Code: 1, Message: "m", Data: "d"},
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expect, tc.input.serviceError())
		})
	}
}

func TestServiceError_Error(t *testing.T) {
	err := &ServiceError{Name: "E", Code: -1, Message: "m", Data: "d"}
	require.Equal(t, "E: -1. m\nd", err.Error())
}

func TestMediaType(t *testing.T) {
	tt := []struct {
		input  string
		expect string
	}{
		{"application/json", "application/json"},
		{"application/json; charset=utf-8", "application/json"},
		{"APPLICATION/JSON", "application/json"},
		{"text/plain", "text/plain"},
		{"", ""},
	}
	for _, tc := range tt {
		require.Equal(t, tc.expect, mediaType(tc.input), "content type %q", tc.input)
	}
}
