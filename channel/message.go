package channel

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"

	"github.com/wippyai/webbridge/errors"
	"github.com/wippyai/webbridge/internal/coerce"
)

// Reserved message keys.
const (
	KeyOpcode  = "$opcode"
	KeyTarget  = "$target"
	KeyOperand = "$operand"
)

// Reserved opcodes.
const (
	OpCreate  = "+"
	OpDispose = "-"
)

// Message is an inbound message from the script side.
type Message struct {
	Opcode  string
	Target  int
	Operand any
	// Raw is set for payloads without an opcode; Payload then holds the
	// body exactly as received.
	Raw     bool
	Payload any
}

// Args returns the operand as an argument list. An absent operand is an
// empty list; a present operand that is not a sequence reports false.
// Byte strings are single values, not sequences.
func (m Message) Args() ([]any, bool) {
	switch v := m.Operand.(type) {
	case nil:
		return []any{}, true
	case []any:
		return v, true
	case []byte, json.RawMessage:
		return nil, false
	}
	rv := reflect.ValueOf(m.Operand)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

var cborDecoder = func() cbor.DecMode {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	return dm
}()

// ParseMessage decodes a message body. Bodies may be decoded maps, JSON
// text or bytes, or CBOR bytes. Anything else, and any map without
// $opcode, is returned as a raw message.
func ParseMessage(body any) (Message, error) {
	decoded, err := decode(body)
	if err != nil {
		return Message{}, err
	}
	fields, ok := decoded.(map[string]any)
	if !ok {
		return Message{Raw: true, Payload: body}, nil
	}
	if len(fields) == 0 {
		return Message{}, errors.EmptyPayload()
	}

	rawOp, ok := fields[KeyOpcode]
	if !ok {
		return Message{Raw: true, Payload: body}, nil
	}
	opcode, ok := rawOp.(string)
	if !ok {
		return Message{}, errors.Malformed(errors.PhaseDecode, "$opcode must be a string", rawOp)
	}

	msg := Message{Opcode: opcode, Operand: fields[KeyOperand], Payload: body}
	if rawTarget, ok := fields[KeyTarget]; ok && rawTarget != nil {
		n, ok := coerce.ToInt64(rawTarget)
		if !ok || n < 0 || int64(int(n)) != n {
			return Message{}, errors.Malformed(errors.PhaseDecode, "$target must be a non-negative integer", rawTarget)
		}
		msg.Target = int(n)
	}
	return msg, nil
}

func decode(body any) (any, error) {
	switch v := body.(type) {
	case nil:
		return nil, errors.EmptyPayload()
	case map[string]any:
		return v, nil
	case string:
		if v == "" {
			return nil, errors.EmptyPayload()
		}
		return decodeBytes([]byte(v)), nil
	case []byte:
		if len(v) == 0 {
			return nil, errors.EmptyPayload()
		}
		return decodeBytes(v), nil
	case json.RawMessage:
		if len(v) == 0 {
			return nil, errors.EmptyPayload()
		}
		return decodeBytes(v), nil
	}
	return body, nil
}

// decodeBytes tries JSON then CBOR; undecodable bytes come back unchanged.
func decodeBytes(b []byte) any {
	var out any
	if json.Unmarshal(b, &out) == nil {
		return out
	}
	if cborDecoder.Unmarshal(b, &out) == nil {
		return out
	}
	return b
}
