package protocol

// ScoreUpdatePayload is sent for every accepted tag scan.
type ScoreUpdatePayload struct {
	PlayerID       string `json:"player_id"`
	PlayerNickname string `json:"player_nickname,omitempty"`
	Points         int    `json:"points"`
	TagID          string `json:"tag_id"`
}

// DisplayName returns the nickname, falling back to the player id.
func (p ScoreUpdatePayload) DisplayName() string {
	if p.PlayerNickname != "" {
		return p.PlayerNickname
	}
	return p.PlayerID
}

// GameStartedPayload announces a new running game.
type GameStartedPayload struct {
	GameID    int64  `json:"game_id"`
	StartTime string `json:"start_time"`
}

// PlayerJoinedPayload announces a player joining the running game.
type PlayerJoinedPayload struct {
	GameID   int64  `json:"game_id"`
	PlayerID string `json:"player_id"`
}

// JoinGamePayload asks the server to add a player to a game.
type JoinGamePayload struct {
	GameID   int64  `json:"game_id"`
	PlayerID string `json:"player_id"`
}
