package dispatcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lam0glia/marketplace-relay/domain"
)

var errEmptyPayload = errors.New("empty payload")

// decode unmarshals data keeping numbers as json.Number so IDs are relayed
// exactly as the client sent them.
func decode(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	return dec.Decode(v)
}

// text renders a scalar ID (string or number) as a string. Anything else,
// including null, is empty.
func text(v any) string {
	return domain.FormatID(v)
}

// label renders an order number for a notification message.
func label(v any) string {
	if s := text(v); s != "" {
		return s
	}

	return fmt.Sprint(v)
}

// target reads an identifier sent either as a bare JSON string or as an
// object carrying it under key.
func target(data json.RawMessage, key string) string {
	var bare any
	if err := decode(data, &bare); err != nil {
		return ""
	}

	if obj, ok := bare.(map[string]any); ok {
		return text(obj[key])
	}

	return text(bare)
}
