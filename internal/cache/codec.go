package cache

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Extension is the file suffix of persisted artifacts.
const Extension = ".msgpack"

// encode serializes v. Equal values give equal bytes as long as v holds no
// maps other than the ones msgpack sorts (see ContentKey).
func encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// decode deserializes an artifact. Times come back in the local zone;
// artifacts with dates restore them in a DecodeMsgpack method.
func decode(data []byte, v interface{}) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode artifact: %w", err)
	}
	return nil
}
