package liveclient

// Status is the phase of a connection.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Cause tells why the connection last entered StatusConnected.
type Cause int

const (
	CauseNone Cause = iota
	CauseFirstConnect
	CauseReconnect
)

func (c Cause) String() string {
	switch c {
	case CauseFirstConnect:
		return "first_connect"
	case CauseReconnect:
		return "reconnect"
	default:
		return "none"
	}
}

// ConnectionState is a copy of the manager state. The credential itself is never exposed.
type ConnectionState struct {
	Status        Status
	Cause         Cause
	HasCredential bool
	AttemptCount  int
	LastError     error
}

type trigger int

const (
	triggerInitialize trigger = iota
	triggerAck
	triggerRejected
	triggerTransportError
	triggerDrop
	triggerExhausted
	triggerTeardown
)

func (t trigger) String() string {
	switch t {
	case triggerInitialize:
		return "initialize"
	case triggerAck:
		return "ack"
	case triggerRejected:
		return "rejected"
	case triggerTransportError:
		return "transport_error"
	case triggerDrop:
		return "drop"
	case triggerExhausted:
		return "exhausted"
	case triggerTeardown:
		return "teardown"
	default:
		return "unknown"
	}
}

type transition struct {
	to    Status
	cause Cause
}

// transitions is the full state machine. Pairs missing from it are rejected.
var transitions = map[Status]map[trigger]transition{
	StatusDisconnected: {
		triggerInitialize: {to: StatusConnecting},
		triggerTeardown:   {to: StatusDisconnected},
	},
	StatusConnecting: {
		triggerAck:            {to: StatusConnected, cause: CauseFirstConnect},
		triggerRejected:       {to: StatusDisconnected},
		triggerTransportError: {to: StatusReconnecting},
		triggerTeardown:       {to: StatusDisconnected},
	},
	StatusConnected: {
		triggerDrop:     {to: StatusReconnecting},
		triggerTeardown: {to: StatusDisconnected},
	},
	StatusReconnecting: {
		triggerAck:            {to: StatusConnected, cause: CauseReconnect},
		triggerTransportError: {to: StatusReconnecting},
		triggerRejected:       {to: StatusDisconnected},
		triggerExhausted:      {to: StatusDisconnected},
		triggerTeardown:       {to: StatusDisconnected},
	},
}

func next(from Status, t trigger) (transition, bool) {
	tr, ok := transitions[from][t]
	return tr, ok
}
