package main

// Player holds the roster data we store server-side and send to clients.
type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Score  int    `json:"score"`
}

// Messages coming from clients. Type selects the variant; anything
// outside the closed set below is dropped at the transport boundary.
type ClientMessage struct {
	Type     string      `json:"type"`               // "join-room", "start-game", "submit-answer"
	RoomCode string      `json:"roomCode,omitempty"` // all variants; "AUTO" requests assignment on join
	Player   *WirePlayer `json:"player,omitempty"`   // join-room
	Answer   string      `json:"answer,omitempty"`   // submit-answer
}

// WirePlayer is the join payload; the server assigns id and score.
type WirePlayer struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// LobbyUpdateMessage is broadcast on every roster change and on game restart.
type LobbyUpdateMessage struct {
	Type     string   `json:"type"` // "lobby-update"
	RoomCode string   `json:"roomCode"`
	Players  []Player `json:"players"`
	HostID   string   `json:"hostId"`
}

// NewGameMessage signals clients to reset their view for a fresh game.
type NewGameMessage struct {
	Type string `json:"type"` // "new-game"
}

// GameStateMessage is the per-tick snapshot of the active round.
type GameStateMessage struct {
	Type        string `json:"type"` // "game-state"
	Movie       *Movie `json:"movie"`
	SceneIndex  int    `json:"sceneIndex"`
	ElapsedTime int    `json:"elapsedTime"`
	Clue        string `json:"clue"`
	GameOver    bool   `json:"gameOver"`
}

// AnswerResultMessage is broadcast to the room on a correct guess, or
// sent only to the guessing client on an incorrect one.
type AnswerResultMessage struct {
	Type       string   `json:"type"` // "answer-result"
	Correct    bool     `json:"correct"`
	PlayerName string   `json:"playerName,omitempty"`
	Answer     string   `json:"answer,omitempty"`
	Players    []Player `json:"players,omitempty"`
}

// GameOverMessage carries the final standings, sorted by descending score.
type GameOverMessage struct {
	Type    string   `json:"type"` // "game-over"
	Players []Player `json:"players"`
}
