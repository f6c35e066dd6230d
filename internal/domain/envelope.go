package domain

// MessageKind identifies the purpose of an Envelope on the shared topic.
type MessageKind uint8

const (
	KindUnknown MessageKind = iota
	KindHello
	KindGoodbye
	KindNotify
	KindLoad
	KindPlay
	KindPause
	KindSeek
	KindNext
	KindPrev
	KindVolume
	KindVolumeUp
	KindVolumeDown
	KindShuffle
	KindRepeat
	KindReplace
)

func (k MessageKind) String() string {
	switch k {
	case KindHello:
		return "hello"
	case KindGoodbye:
		return "goodbye"
	case KindNotify:
		return "notify"
	case KindLoad:
		return "load"
	case KindPlay:
		return "play"
	case KindPause:
		return "pause"
	case KindSeek:
		return "seek"
	case KindNext:
		return "next"
	case KindPrev:
		return "prev"
	case KindVolume:
		return "volume"
	case KindVolumeUp:
		return "volume_up"
	case KindVolumeDown:
		return "volume_down"
	case KindShuffle:
		return "shuffle"
	case KindRepeat:
		return "repeat"
	case KindReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Envelope is a single protocol message exchanged over the shared user topic.
// An empty Recipients list means broadcast.
type Envelope struct {
	Kind          MessageKind `msgpack:"kind" json:"kind"`
	Ident         string      `msgpack:"ident" json:"ident"`
	Recipients    []string    `msgpack:"recipients,omitempty" json:"recipients,omitempty"`
	SeqNr         uint32      `msgpack:"seq_nr" json:"seq_nr"`
	StateUpdateID int64       `msgpack:"state_update_id" json:"state_update_id"`
	Volume        uint32      `msgpack:"volume,omitempty" json:"volume,omitempty"`
	PositionMs    uint32      `msgpack:"position_ms,omitempty" json:"position_ms,omitempty"`
	DeviceState   DeviceState `msgpack:"device_state" json:"device_state"`
	State         *State      `msgpack:"state,omitempty" json:"state,omitempty"`
}

type CapabilityKind uint8

const (
	CapCanBePlayer CapabilityKind = iota + 1
	CapDeviceType
	CapEqConnectID
	CapSupportsLogout
	CapSupportsRename
	CapIsObservable
	CapVolumeSteps
	CapSupportedContexts
	CapSupportedTypes
)

type Capability struct {
	Kind         CapabilityKind `msgpack:"kind" json:"kind"`
	IntValues    []int64        `msgpack:"int_values,omitempty" json:"int_values,omitempty"`
	StringValues []string       `msgpack:"string_values,omitempty" json:"string_values,omitempty"`
}

// DeviceState is the sender's self-description attached to every outbound
// envelope. BecameActiveAt is meaningful only while IsActive is true.
type DeviceState struct {
	SwVersion      string       `msgpack:"sw_version" json:"sw_version"`
	Name           string       `msgpack:"name" json:"name"`
	IsActive       bool         `msgpack:"is_active" json:"is_active"`
	BecameActiveAt int64        `msgpack:"became_active_at" json:"became_active_at"`
	Volume         uint32       `msgpack:"volume" json:"volume"`
	Capabilities   []Capability `msgpack:"capabilities,omitempty" json:"capabilities,omitempty"`
}
