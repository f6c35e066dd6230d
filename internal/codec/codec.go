// Package codec (de)serializes protocol envelopes for the message channel.
// The schema is tagged and versionable: unknown fields are ignored on
// decode, so older and newer devices can share a topic.
package codec

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/soundmesh/device/internal/domain"
)

var ErrDecode = errors.New("malformed envelope")

func Marshal(env *domain.Envelope) ([]byte, error) {
	raw, err := msgpack.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	return raw, nil
}

func Unmarshal(data []byte) (*domain.Envelope, error) {
	var env domain.Envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if env.Ident == "" {
		return nil, fmt.Errorf("%w: missing ident", ErrDecode)
	}

	return &env, nil
}
