package jsonrpc11

import (
	"encoding/json"
	"math/rand"
	"mime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// protocolVersion is the fixed version string sent in every request envelope.
const protocolVersion = "1.1"

// txRequest is the JSON-RPC 1.1 request envelope.
type txRequest struct {
	Method string
	Params []interface{}
	// ID is a fresh random decimal string per request. The protocol never
	// correlates responses by id over this transport; it exists for envelope
	// shape compliance only.
	ID string
	// Context is an optional call context mapping. It is reserved for the
	// dynamic-service feature and currently always nil.
	Context map[string]interface{}
}

func (r *txRequest) MarshalJSON() ([]byte, error) {
	type plain struct {
		Method  string                 `json:"method"`
		Params  []interface{}          `json:"params"`
		Version string                 `json:"version"`
		ID      string                 `json:"id"`
		Context map[string]interface{} `json:"context,omitempty"`
	}
	p := plain{
		Method:  r.Method,
		Params:  r.Params,
		Version: protocolVersion,
		ID:      r.ID,
		Context: r.Context,
	}
	if p.Params == nil {
		p.Params = []interface{}{}
	}
	return json.Marshal(&p)
}

// errorObject is the "error" member of a 1.1 error envelope. Pointer fields
// distinguish absent members from empty ones.
type errorObject struct {
	Name    string  `json:"name"`
	Code    int     `json:"code"`
	Message *string `json:"message"`
	Data    *string `json:"data"`
	Error   *string `json:"error"`
}

// serviceError converts the wire object into a ServiceError, substituting
// empty strings for absent members. "data" is the JSON-RPC 2.0 spelling and
// "error" the 1.1 one; the first non-empty of the two is kept.
func (e *errorObject) serviceError() *ServiceError {
	se := &ServiceError{Name: e.Name, Code: e.Code}
	if e.Message != nil {
		se.Message = *e.Message
	}
	switch {
	case e.Data != nil && *e.Data != "":
		se.Data = *e.Data
	case e.Error != nil && *e.Error != "":
		se.Data = *e.Error
	}
	return se
}

// mediaType extracts the media type from a Content-Type header value,
// ignoring parameters such as charset. Values that fail to parse are matched
// verbatim after trimming.
func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

// idSource produces the random decimal-string request ids the envelope
// requires. Collisions are not mitigated; ids are fire and forget.
type idSource struct {
	mut sync.Mutex
	rng *rand.Rand
}

func newIDSource() *idSource {
	return &idSource{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *idSource) Next() string {
	s.mut.Lock()
	defer s.mut.Unlock()
	return strconv.FormatUint(s.rng.Uint64(), 10)
}
