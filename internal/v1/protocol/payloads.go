package protocol

// --- Client → server request payloads ---

type CreateRoomRequest struct {
	PlayerName string `json:"player_name"`
}

type JoinRoomRequest struct {
	RoomID     string `json:"room_id"`
	PlayerName string `json:"player_name"`
}

type SpectateRoomRequest struct {
	RoomID        string `json:"room_id"`
	SpectatorName string `json:"spectator_name"`
}

type PlaceStoneRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type RematchResponseRequest struct {
	Accepted bool `json:"accepted"`
}

type ReconnectRequest struct {
	PlayerName string `json:"player_name"`
}

// --- Server → client payloads ---

type ErrorPayload struct {
	Message string `json:"message"`
}

// Ack is the SUCCESS payload for operations with no extra context.
type Ack struct {
	Message string `json:"message"`
}

// CreateRoomSuccess and friends are SUCCESS payloads carrying the
// operation-specific context alongside the human-readable message.
type CreateRoomSuccess struct {
	Message   string     `json:"message"`
	RoomID    string     `json:"room_id"`
	YourColor StoneColor `json:"your_color"`
	Role      string     `json:"role"`
}

type JoinRoomSuccess struct {
	Message     string         `json:"message"`
	RoomID      string         `json:"room_id"`
	YourColor   StoneColor     `json:"your_color"`
	Role        string         `json:"role"`
	Board       [][]StoneColor `json:"board"`
	CurrentTurn StoneColor     `json:"current_turn"`
}

type SpectateRoomSuccess struct {
	Message     string         `json:"message"`
	RoomID      string         `json:"room_id"`
	Role        string         `json:"role"`
	Board       [][]StoneColor `json:"board"`
	CurrentTurn StoneColor     `json:"current_turn"`
	Status      RoomStatus     `json:"status"`
}

type ReconnectSuccess struct {
	Message       string         `json:"message"`
	RoomID        string         `json:"room_id"`
	YourColor     StoneColor     `json:"your_color"`
	Role          string         `json:"role"`
	Board         [][]StoneColor `json:"board"`
	CurrentTurn   StoneColor     `json:"current_turn"`
	GameStatus    RoomStatus     `json:"game_status"`
	RemainingTime int            `json:"remaining_time,omitempty"`
}

// RoomInfo is the per-room entry of ROOM_LIST and the body of ROOM_UPDATE.
type RoomInfo struct {
	RoomID         string          `json:"room_id"`
	Status         RoomStatus      `json:"status"`
	PlayerCount    int             `json:"player_count"`
	SpectatorCount int             `json:"spectator_count"`
	Players        []string        `json:"players"`
	CurrentTurn    StoneColor      `json:"current_turn"`
	ReadyStatus    map[string]bool `json:"ready_status"`
	TimeLimit      int             `json:"time_limit"`
}

type RoomListPayload struct {
	Rooms []RoomInfo `json:"rooms"`
}

type UserJoinedPayload struct {
	PlayerName string `json:"player_name"`
	Role       string `json:"role"`
}

type UserLeftPayload struct {
	PlayerName string `json:"player_name"`
	Role       string `json:"role"`
}

type ReadyStatusPayload struct {
	ReadyStatus map[string]bool `json:"ready_status"`
}

type PlayerInfo struct {
	Name  string     `json:"name"`
	Color StoneColor `json:"color"`
}

type GameStartPayload struct {
	CurrentTurn StoneColor     `json:"current_turn"`
	Players     []PlayerInfo   `json:"players"`
	Board       [][]StoneColor `json:"board,omitempty"`
}

type BoardUpdatePayload struct {
	X     int            `json:"x"`
	Y     int            `json:"y"`
	Color StoneColor     `json:"color"`
	Board [][]StoneColor `json:"board"`
}

type TurnChangePayload struct {
	CurrentTurn StoneColor `json:"current_turn"`
}

type TimerUpdatePayload struct {
	RemainingTime int `json:"remaining_time"`
}

// TimeUpPayload reports the color whose clock expired.
type TimeUpPayload struct {
	Player StoneColor `json:"player"`
}

// GameEndPayload closes a round. Winner is "black", "white", or "draw".
type GameEndPayload struct {
	Winner     string `json:"winner"`
	WinnerName string `json:"winner_name"`
	Reason     string `json:"reason,omitempty"`
}

type PlayerDisconnectedPayload struct {
	PlayerName string `json:"player_name"`
}

type PlayerReconnectedPayload struct {
	PlayerName string `json:"player_name"`
}

type GamePausedPayload struct {
	Reason string `json:"reason"`
}

type GameResumedPayload struct{}

type ForfeitPayload struct {
	Winner     StoneColor `json:"winner"`
	WinnerName string     `json:"winner_name"`
	PlayerName string     `json:"player_name"`
	Reason     string     `json:"reason"`
}

type RematchPayload struct {
	RequestingPlayer string `json:"requesting_player"`
	Message          string `json:"message"`
	Timeout          int    `json:"timeout"`
}

type RematchDeclinedPayload struct {
	Message    string `json:"message"`
	DeclinedBy string `json:"declined_by"`
}

type ChatBroadcast struct {
	Sender  string `json:"sender"`
	Role    string `json:"role"`
	Message string `json:"message"`
}
