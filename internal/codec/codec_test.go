package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundmesh/device/internal/domain"
)

func TestRoundTrip(t *testing.T) {
	in := &domain.Envelope{
		Kind:          domain.KindNotify,
		Ident:         "dev-1",
		Recipients:    []string{"dev-2"},
		SeqNr:         7,
		StateUpdateID: 1_700_000_000_000,
		DeviceState: domain.DeviceState{
			SwVersion:      "soundmesh-v0.2",
			Name:           "kitchen",
			IsActive:       true,
			BecameActiveAt: 1_699_999_999_000,
			Volume:         0xFFFF,
		},
		State: &domain.State{
			Status:              domain.StatusPlaying,
			PositionMs:          31_337,
			PositionMeasuredAt:  1_700_000_000_001,
			PlayingTrackIndex:   1,
			Tracks:              []domain.TrackRef{{ID: "T1"}, {ID: "T2"}},
			PlayingFromFallback: true,
		},
	}

	raw, err := Marshal(in)
	require.NoError(t, err)

	out, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	_, err := Unmarshal([]byte{0xc1, 0xff, 0x00})
	require.ErrorIs(t, err, ErrDecode)
}

func TestUnmarshalRejectsMissingIdent(t *testing.T) {
	raw, err := Marshal(&domain.Envelope{Kind: domain.KindHello})
	require.NoError(t, err)

	_, err = Unmarshal(raw)
	require.ErrorIs(t, err, ErrDecode)
}
