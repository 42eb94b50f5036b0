// Package protocol defines the JSON envelopes exchanged with clients over
// the websocket transport.
package protocol

import (
	"encoding/json"

	"github.com/wordduel/wordduel-backend/internal/words"
)

// Inbound message types.
const (
	TypeCreateLobby = "createLobby"
	TypeJoinLobby   = "joinLobby"
	TypeStartGame   = "startGame"
	TypeAnswer      = "answer"
)

// ClientMessage is the tagged inbound envelope. Fields beyond Type are only
// meaningful for the kinds that declare them.
type ClientMessage struct {
	Type   string       `json:"type"`
	Name   string       `json:"name,omitempty"`
	Code   string       `json:"code,omitempty"`
	Mode   string       `json:"mode,omitempty"`
	Words  []words.Pair `json:"words,omitempty"`
	Answer string       `json:"answer,omitempty"`
}

// PlayerInfo is the roster entry embedded in playerJoined/playerLeft.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
}

// Result is one line of the final scoreboard.
type Result struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Word is the client-facing view of a queue entry. The answer deliberately
// never leaves the server.
type Word struct {
	Question string `json:"question"`
}

func marshal(v any) []byte {
	payload, _ := json.Marshal(v)
	return payload
}

func LobbyCreated(code string, timeLimit int) []byte {
	return marshal(struct {
		Type      string `json:"type"`
		Code      string `json:"code"`
		TimeLimit int    `json:"timeLimit"`
	}{"lobbyCreated", code, timeLimit})
}

func PlayerJoined(players []PlayerInfo, newPlayer string) []byte {
	return marshal(struct {
		Type      string       `json:"type"`
		Players   []PlayerInfo `json:"players"`
		NewPlayer string       `json:"newPlayer"`
	}{"playerJoined", players, newPlayer})
}

func NewHost(hostName string) []byte {
	return marshal(struct {
		Type     string `json:"type"`
		HostName string `json:"hostName"`
	}{"newHost", hostName})
}

func PlayerLeft(playerName string, players []PlayerInfo) []byte {
	return marshal(struct {
		Type       string       `json:"type"`
		PlayerName string       `json:"playerName"`
		Players    []PlayerInfo `json:"players"`
	}{"playerLeft", playerName, players})
}

func GameStarted(timeLimit int) []byte {
	return marshal(struct {
		Type      string `json:"type"`
		TimeLimit int    `json:"timeLimit"`
	}{"gameStarted", timeLimit})
}

func NextWord(question string) []byte {
	return marshal(struct {
		Type string `json:"type"`
		Word Word   `json:"word"`
	}{"nextWord", Word{Question: question}})
}

// Finished tells one player their personal queue is exhausted while the
// opponent may still be racing.
func Finished(score int) []byte {
	return marshal(struct {
		Type  string `json:"type"`
		Score int    `json:"score"`
	}{"finished", score})
}

func Timer(timeLeft int) []byte {
	return marshal(struct {
		Type     string `json:"type"`
		TimeLeft int    `json:"timeLeft"`
	}{"timer", timeLeft})
}

func Correct(score int) []byte {
	return marshal(struct {
		Type  string `json:"type"`
		Score int    `json:"score"`
	}{"correct", score})
}

func Incorrect(score int, correctAnswer string) []byte {
	return marshal(struct {
		Type          string `json:"type"`
		Score         int    `json:"score"`
		CorrectAnswer string `json:"correctAnswer"`
	}{"incorrect", score, correctAnswer})
}

func GameOver(winners []string, maxScore int, results []Result) []byte {
	return marshal(struct {
		Type     string   `json:"type"`
		Winners  []string `json:"winners"`
		MaxScore int      `json:"maxScore"`
		Results  []Result `json:"results"`
	}{"gameOver", winners, maxScore, results})
}

func Error(message string) []byte {
	return marshal(struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}{"error", message})
}
