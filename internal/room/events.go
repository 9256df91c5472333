package room

// Outbound wire messages. Each payload carries a type tag so clients can
// route without an extra envelope.

const (
	msgTypeState          = "state"
	msgTypeUserAppeared   = "user-appeared"
	msgTypeUserMoved      = "user-moved"
	msgTypeUserSpoke      = "user-spoke"
	msgTypeMessageRemoved = "message-removed"
	msgTypeUserLeft       = "user-left"
)

// stateMessage seeds a newly joined connection with the world as it stood
// before its own join was applied.
type stateMessage struct {
	Type  string              `json:"type"`
	Users map[string]UserInfo `json:"users"`
}

type userAppearedMessage struct {
	Type string   `json:"type"`
	Name string   `json:"name"`
	Info UserInfo `json:"info"`
}

type userMovedMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type userSpokeMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Text string `json:"text"`
}

type messageRemovedMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

type userLeftMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}
