package registry

// State is where an accessory stands in the pairing lifecycle
type State int

const (
	// Scanned means the accessory was seen but not admitted
	Scanned State = iota
	// Connecting means a BLE connect was issued
	Connecting
	// LinkUp means the BLE link is up and the OOB handshake is pending
	LinkUp
	// RangingStarting means the ranging engine was asked to open a session
	RangingStarting
	// Ranging means PHONE_CONFIG was sent and samples flow
	Ranging
	// Terminated means the accessory was torn down
	Terminated
)

func (s State) String() string {
	return []string{"Scanned", "Connecting", "LinkUp", "RangingStarting", "Ranging", "Terminated"}[s]
}

// MarshalText lets states travel as names in JSON
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// RangingRequested reports whether the ranging engine was asked to open a session
func (s State) RangingRequested() bool { return s == RangingStarting || s == Ranging }
