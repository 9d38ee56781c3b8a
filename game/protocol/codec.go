package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrMalformed   = errors.New("malformed message")
	ErrUnknownType = errors.New("unknown message type")
)

// envelope is the outer JSON object of every message
type envelope struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps msg in its typed envelope
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", msg.Type(), err)
	}
	return json.Marshal(envelope{Type: msg.Type(), Data: data})
}

// requiredFields lists data fields that have no meaningful zero value
var requiredFields = map[Type][]string{
	TypeMove: {"piece"},
}

// Decode parses one envelope into its concrete message. Unknown fields
// inside data are ignored; a missing data object decodes to the zero
// message unless the type has required fields.
func Decode(frame []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	msg := newMessage(env.Type)
	if msg == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}

	hasData := len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null"))
	if hasData {
		if err := json.Unmarshal(env.Data, msg); err != nil {
			return nil, fmt.Errorf("%w: %s data: %v", ErrMalformed, env.Type, err)
		}
	}
	if err := checkRequired(env.Type, env.Data, hasData); err != nil {
		return nil, err
	}
	return msg, nil
}

func checkRequired(typ Type, data json.RawMessage, hasData bool) error {
	fields := requiredFields[typ]
	if len(fields) == 0 {
		return nil
	}
	var present map[string]json.RawMessage
	if hasData {
		if err := json.Unmarshal(data, &present); err != nil {
			return fmt.Errorf("%w: %s data: %v", ErrMalformed, typ, err)
		}
	}
	for _, name := range fields {
		if v, ok := present[name]; !ok || bytes.Equal(v, []byte("null")) {
			return fmt.Errorf("%w: %s requires %q", ErrMalformed, typ, name)
		}
	}
	return nil
}

// MustEncode encodes messages whose fields cannot fail to marshal
func MustEncode(msg Message) []byte {
	data, err := Encode(msg)
	if err != nil {
		panic(err)
	}
	return data
}
