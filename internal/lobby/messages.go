package lobby

type Msg interface{ isLobbyMsg() }

type Join struct {
	Name  string
	Ep    Endpoint
	Reply chan JoinResult
}

func (Join) isLobbyMsg() {}

type JoinResult struct {
	PlayerID string
	Err      error
}

type Start struct{ PlayerID string }

func (Start) isLobbyMsg() {}

type Answer struct {
	PlayerID string
	Text     string
}

func (Answer) isLobbyMsg() {}

// Disconnect starts the reconnect grace window for the player bound to the
// given endpoint. It never removes the player directly.
type Disconnect struct {
	PlayerID   string
	EndpointID string
}

func (Disconnect) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

// Internal events, injected through the same inbox as client messages so
// every mutation is serialized by the lobby loop.

type tick struct{ gen int }

func (tick) isLobbyMsg() {}

type reapPlayer struct {
	playerID   string
	endpointID string
}

func (reapPlayer) isLobbyMsg() {}

type expireEmpty struct{ gen int }

func (expireEmpty) isLobbyMsg() {}
