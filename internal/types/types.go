package types

import "time"

type User struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Avatar       string    `json:"avatar,omitempty"`
	IsAdmin      bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

// Player is a participant's public view within one room.
type Player struct {
	UserId   int    `json:"user_id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
	Score    int    `json:"score"`
	Streak   int    `json:"streak"`
	Alive    bool   `json:"alive"`
}

// AnswerOption is an answer choice as sent to clients. The correctness
// flag lives only in the database model and is never serialized here.
type AnswerOption struct {
	Id   int    `json:"id"`
	Text string `json:"text"`
}

// Question is the client-facing view of the current question.
type Question struct {
	Id               int            `json:"id"`
	Text             string         `json:"text"`
	Type             string         `json:"type"`
	CodeSnippet      string         `json:"code_snippet,omitempty"`
	TimeLimitSeconds int            `json:"time_limit_seconds"`
	QuestionNumber   int            `json:"question_number"`
	Options          []AnswerOption `json:"options"`
}

type LeaderboardEntry struct {
	UserId    int    `json:"user_id"`
	Username  string `json:"username"`
	Score     int    `json:"score"`
	MaxStreak int    `json:"max_streak"`
}
