package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrCorruptIdentity is returned by DecodeIdentity when the persisted blob
// is not a parseable identity.
var ErrCorruptIdentity = errors.New("corrupt persisted identity")

// EncodeIdentity serializes an identity for persistence.
func EncodeIdentity(id Identity) ([]byte, error) {
	data, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("encode identity: %w", err)
	}
	return data, nil
}

// DecodeIdentity parses a persisted identity blob. A blob that is not valid
// JSON, or that decodes to an identity without an ID, is corrupt.
func DecodeIdentity(data []byte) (Identity, error) {
	var id Identity
	if err := json.Unmarshal(data, &id); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrCorruptIdentity, err)
	}
	if id.ID == 0 {
		return Identity{}, ErrCorruptIdentity
	}
	return id, nil
}
