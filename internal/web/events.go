package web

// Message types. The first byte of every websocket message is one of these.
const (
	// server -> client: [Frame, width, height, packed bits...]
	Frame byte = 1
	// server -> client: [Sound, 0|1]
	Sound byte = 2
	// server -> client: [Status, status text...]
	Status byte = 3

	// client -> server: [Key, key 0..F, 0|1]
	Key byte = 10
	// client -> server: [Control, ControlReset]
	Control byte = 11
)

const (
	ControlReset byte = 1
)
