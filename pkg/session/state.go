package session

// State is the lifecycle position of one Engine.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateHandshaking
	StateJoined
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateHandshaking:
		return "handshaking"
	case StateJoined:
		return "joined"
	case StateTerminated:
		return "terminated"
	default:
		return "disconnected"
	}
}
