package game

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/mkuballa/blitzquiz/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestErrorResponses(t *testing.T) {
	tt := []struct {
		name     string
		msg      *ServerMessage
		code     int
		errorStr string
	}{
		{"unauthorized", ErrUnauthorized(1), http.StatusUnauthorized, "unauthorized"},
		{"not participant", ErrNotParticipant(1), http.StatusForbidden, "not a participant"},
		{"room not found", ErrRoomNotFound(1), http.StatusNotFound, "room not found"},
		{"not active", ErrNotActive(1), http.StatusConflict, "room not active"},
		{"duplicate submission", ErrDuplicateSubmission(1), http.StatusConflict, "already answered"},
		{"internal error", ErrInternalError(1), http.StatusInternalServerError, "internal server error"},
		{"service unavailable", ErrServiceUnavailable(1), http.StatusServiceUnavailable, "service unavailable"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, 1, tc.msg.Id, "expected message id to be echoed")
			assert.Equal(t, tc.code, tc.msg.Response.ResponseCode)
			assert.Equal(t, tc.errorStr, tc.msg.Response.Error)
			assert.False(t, tc.msg.Timestamp.IsZero(), "expected timestamp to be set")
		})
	}
}

func TestErrInvalidMessage(t *testing.T) {
	msg := ErrInvalidMessage(5)
	assert.Equal(t, 5, msg.Id)
	assert.Equal(t, http.StatusBadRequest, msg.Response.ResponseCode)

	// Unparseable messages have no usable id.
	msg = ErrInvalidMessage(-1)
	assert.Equal(t, 0, msg.Id)
}

func TestClientMessage_roomCode(t *testing.T) {
	tt := []struct {
		name     string
		msg      *ClientMessage
		expected string
	}{
		{"join", &ClientMessage{Join: &JoinRoom{RoomCode: "AAAAAA"}}, "AAAAAA"},
		{"reconnect", &ClientMessage{Reconnect: &JoinRoom{RoomCode: "BBBBBB"}}, "BBBBBB"},
		{"leave", &ClientMessage{Leave: &LeaveRoom{RoomCode: "CCCCCC"}}, "CCCCCC"},
		{"start", &ClientMessage{Start: &StartGame{RoomCode: "DDDDDD"}}, "DDDDDD"},
		{"submit", &ClientMessage{Submit: &SubmitAnswer{RoomCode: "EEEEEE"}}, "EEEEEE"},
		{"next", &ClientMessage{Next: &NextQuestion{RoomCode: "FFFFFF"}}, "FFFFFF"},
		{"control", &ClientMessage{Control: &AdminControl{RoomCode: "GGGGGG"}}, "GGGGGG"},
		{"kick", &ClientMessage{Kick: &KickPlayer{RoomCode: "HHHHHH"}}, "HHHHHH"},
		{"jammer", &ClientMessage{Jammer: &UseJammer{RoomCode: "IIIIII"}}, "IIIIII"},
		{"create", &ClientMessage{Create: &CreateRoom{Mode: "multiplayer"}}, ""},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.msg.roomCode())
		})
	}
}

func TestNewQuestionEvent_neverLeaksCorrectness(t *testing.T) {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			NewQuestion: &types.Question{
				Id:               7,
				Text:             "sample",
				TimeLimitSeconds: 30,
				QuestionNumber:   1,
				Options: []types.AnswerOption{
					{Id: 71, Text: "right"},
					{Id: 72, Text: "wrong"},
				},
			},
		},
	}

	raw, err := json.Marshal(msg)
	assert.NoError(t, err)
	assert.NotContains(t, string(raw), "correct", "expected serialized question to omit correctness")
}

func TestServerMessage_internalFieldsNotSerialized(t *testing.T) {
	msg := &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event:       &Event{Kicked: &Kicked{RoomCode: "ABC123"}},
		UserId:      42,
	}

	raw, err := json.Marshal(msg)
	assert.NoError(t, err)

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(raw, &decoded))
	assert.NotContains(t, decoded, "UserId")
	assert.NotContains(t, decoded, "user_id")
}
