package game

import (
	"net/http"
	"time"

	"github.com/mkuballa/blitzquiz/internal/types"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type ClientMessage struct {
	BaseMessage
	Create    *CreateRoom   `json:"create_room,omitempty"`
	Join      *JoinRoom     `json:"join_room,omitempty"`
	Reconnect *JoinRoom     `json:"reconnect,omitempty"`
	Leave     *LeaveRoom    `json:"leave_room,omitempty"`
	Start     *StartGame    `json:"start_game,omitempty"`
	Submit    *SubmitAnswer `json:"submit_answer,omitempty"`
	Next      *NextQuestion `json:"next_question,omitempty"`
	Control   *AdminControl `json:"admin_control,omitempty"`
	Kick      *KickPlayer   `json:"kick,omitempty"`
	Jammer    *UseJammer    `json:"use_jammer,omitempty"`
	UserId    int           `json:"-"`
	client    *Client       `json:"-"`
}

func (cm *ClientMessage) GetUserId() int {
	if cm.UserId != 0 {
		return cm.UserId
	}
	if cm.client != nil {
		return cm.client.user.Id
	}
	return 0
}

// roomCode returns the room the message is addressed to, or "" for
// messages handled by the coordinator itself.
func (cm *ClientMessage) roomCode() string {
	switch {
	case cm.Join != nil:
		return cm.Join.RoomCode
	case cm.Reconnect != nil:
		return cm.Reconnect.RoomCode
	case cm.Leave != nil:
		return cm.Leave.RoomCode
	case cm.Start != nil:
		return cm.Start.RoomCode
	case cm.Submit != nil:
		return cm.Submit.RoomCode
	case cm.Next != nil:
		return cm.Next.RoomCode
	case cm.Control != nil:
		return cm.Control.RoomCode
	case cm.Kick != nil:
		return cm.Kick.RoomCode
	case cm.Jammer != nil:
		return cm.Jammer.RoomCode
	}
	return ""
}

type CreateRoom struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty,omitempty"`
}

type JoinRoom struct {
	RoomCode string `json:"room_code"`
}

type LeaveRoom struct {
	RoomCode string `json:"room_code"`
}

type StartGame struct {
	RoomCode string `json:"room_code"`
}

type SubmitAnswer struct {
	RoomCode string `json:"room_code"`
	AnswerId int    `json:"answer_id"`
	// ElapsedMs is the client's own elapsed-time measurement. It is a
	// display hint only; scoring always uses the server clock.
	ElapsedMs int64 `json:"elapsed_ms,omitempty"`
}

type NextQuestion struct {
	RoomCode string `json:"room_code"`
}

type AdminControl struct {
	RoomCode string `json:"room_code"`
	Action   string `json:"action"`
}

type KickPlayer struct {
	RoomCode     string `json:"room_code"`
	TargetUserId int    `json:"target_user_id"`
}

type UseJammer struct {
	RoomCode     string `json:"room_code"`
	TargetUserId int    `json:"target_user_id"`
}

type ServerMessage struct {
	BaseMessage
	Response *Response `json:"response,omitempty"`
	Event    *Event    `json:"event,omitempty"`
	// UserId directs the message to every connection of one user
	// instead of a room audience.
	UserId     int     `json:"-"`
	SkipClient *Client `json:"-"`
}

type Response struct {
	ResponseCode int    `json:"response_code"`
	Error        string `json:"error,omitempty"`
	Data         any    `json:"data,omitempty"`
}

type Event struct {
	RoomState      *RoomState      `json:"room_state,omitempty"`
	PlayerJoined   *PlayerJoined   `json:"player_joined,omitempty"`
	NewQuestion    *types.Question `json:"new_question,omitempty"`
	PlayerAnswered *PlayerAnswered `json:"player_answered,omitempty"`
	AnswerResult   *AnswerResult   `json:"answer_result,omitempty"`
	GameFinished   *GameFinished   `json:"game_finished,omitempty"`
	Kicked         *Kicked         `json:"kicked,omitempty"`
	JammerAttack   *JammerAttack   `json:"jammer_attack,omitempty"`
	XpAward        *XpAward        `json:"xp_award,omitempty"`
}

type RoomState struct {
	RoomCode        string          `json:"room_code"`
	Status          string          `json:"status"`
	Mode            string          `json:"mode"`
	Difficulty      string          `json:"difficulty,omitempty"`
	Paused          bool            `json:"paused,omitempty"`
	QuestionNumber  int             `json:"question_number"`
	Players         []types.Player  `json:"players"`
	Question        *types.Question `json:"question,omitempty"`
	TimeRemainingMs int64           `json:"time_remaining_ms,omitempty"`
	You             *PlayerState    `json:"you,omitempty"`
}

type PlayerState struct {
	Score  int  `json:"score"`
	Streak int  `json:"streak"`
	Alive  bool `json:"alive"`
}

type PlayerJoined struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// PlayerAnswered tells the room someone answered without revealing
// whether they were right.
type PlayerAnswered struct {
	UserId int `json:"user_id"`
}

type AnswerResult struct {
	Correct    bool `json:"correct"`
	ScoreDelta int  `json:"score_delta"`
	TotalScore int  `json:"total_score"`
	Streak     int  `json:"streak"`
	Eliminated bool `json:"eliminated,omitempty"`
}

type GameFinished struct {
	Leaderboard []types.LeaderboardEntry `json:"leaderboard"`
	Reason      string                   `json:"reason,omitempty"`
}

type Kicked struct {
	RoomCode string `json:"room_code"`
}

type JammerAttack struct {
	FromUserId int   `json:"from_user_id"`
	DurationMs int64 `json:"duration_ms"`
}

type XpAward struct {
	XpGained  int  `json:"xp_gained"`
	TotalXp   int  `json:"total_xp"`
	Level     int  `json:"level"`
	LeveledUp bool `json:"leveled_up"`
}

func NoErrOK(id int, data any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func NoErrAccepted(id int) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusAccepted,
		},
	}
}

func ErrUnauthorized(id int) *ServerMessage {
	return errResponse(id, http.StatusUnauthorized, "unauthorized")
}

func ErrNotParticipant(id int) *ServerMessage {
	return errResponse(id, http.StatusForbidden, "not a participant")
}

func ErrRoomNotFound(id int) *ServerMessage {
	return errResponse(id, http.StatusNotFound, "room not found")
}

func ErrNotActive(id int) *ServerMessage {
	return errResponse(id, http.StatusConflict, "room not active")
}

func ErrDuplicateSubmission(id int) *ServerMessage {
	return errResponse(id, http.StatusConflict, "already answered")
}

func ErrInternalError(id int) *ServerMessage {
	return errResponse(id, http.StatusInternalServerError, "internal server error")
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return errResponse(id, http.StatusServiceUnavailable, "service unavailable")
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := errResponse(0, http.StatusBadRequest, "invalid message format")
	if id > 0 {
		msg.Id = id
	}
	return msg
}

func errResponse(id, code int, text string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			Error:        text,
		},
	}
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
