package lobby

import "errors"

// Precondition violations reported back to the originating connection.
// The error strings double as the user-visible message in the error envelope.
var ErrLobbyFull = errors.New("lobby is full")
var ErrNotHost = errors.New("only the host can start the game")
var ErrNotReady = errors.New("need at least two players and a non-empty word list")
var ErrGameAlreadyRunning = errors.New("game already running")
var ErrLobbyNotFound = errors.New("lobby not found")
