package odata

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/querycodec/internal/querystring"
)

// EntityURL returns the URL of one entity of the collection at base:
// base('id'). The id is percent-encoded as a URI component and any
// trailing "/" on base is dropped. An empty id means the entity does not
// exist yet and base is returned unchanged, which is where it is created.
func EntityURL(base, id string) string {
	if id == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "('" + querystring.EscapeComponent(id) + "')"
}

// Envelope is a collection response body.
type Envelope struct {
	Context  string            `json:"@odata.context,omitempty"`
	Count    *int64            `json:"@odata.count,omitempty"`
	NextLink string            `json:"@odata.nextLink,omitempty"`
	Value    []json.RawMessage `json:"value"`
}

// ParseEnvelope reads a collection response. The OData form
// {"value": [...]} is unwrapped; a bare array is taken as the items
// themselves, and any other object as a single item.
func ParseEnvelope(body []byte) (Envelope, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return Envelope{}, fmt.Errorf("parse envelope: empty body")
	}
	if trimmed == "null" {
		return Envelope{Value: []json.RawMessage{}}, nil
	}

	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(body, &items); err != nil {
			return Envelope{}, fmt.Errorf("parse envelope: %w", err)
		}
		return Envelope{Value: items}, nil
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return Envelope{}, fmt.Errorf("parse envelope: %w", err)
	}
	if raw, ok := probe["value"]; ok && strings.HasPrefix(strings.TrimSpace(string(raw)), "[") {
		var env Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return Envelope{}, fmt.Errorf("parse envelope: %w", err)
		}
		return env, nil
	}
	return Envelope{Value: []json.RawMessage{json.RawMessage(trimmed)}}, nil
}
