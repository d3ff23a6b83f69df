package entity

import "encoding/json"

// Payload holds the opaque data stored with an extraction. The stored text
// is classified at read time: text that parses as JSON is Structured and
// re-emitted without being decoded, anything else is carried as Raw text.
type Payload struct {
	structured json.RawMessage
	raw        string
}

// ParsePayload classifies stored text by attempting a JSON parse.
func ParsePayload(text string) Payload {
	if json.Valid([]byte(text)) {
		return Payload{structured: json.RawMessage(text)}
	}
	return Payload{raw: text}
}

// IsZero reports whether no payload is present.
func (p Payload) IsZero() bool {
	return p.structured == nil && p.raw == ""
}

// IsStructured reports whether the payload parsed as JSON.
func (p Payload) IsStructured() bool {
	return p.structured != nil
}

// Structured returns the serialized JSON value, or nil for Raw payloads.
func (p Payload) Structured() json.RawMessage {
	return p.structured
}

// Raw returns the fallback text, empty for Structured payloads.
func (p Payload) Raw() string {
	return p.raw
}

// MarshalJSON emits the structured value verbatim, the raw text as a JSON
// string, or null when no payload is present.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch {
	case p.structured != nil:
		return p.structured, nil
	case p.raw != "":
		return json.Marshal(p.raw)
	default:
		return []byte("null"), nil
	}
}
