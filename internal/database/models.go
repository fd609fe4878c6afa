package database

import "time"

type User struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	Avatar       string
	IsAdmin      bool
	Xp           int
	Level        int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Question struct {
	Id               int
	Text             string
	Type             string
	Difficulty       string
	CodeSnippet      string
	TimeLimitSeconds int
	Options          []AnswerOption
}

type AnswerOption struct {
	Id         int
	QuestionId int
	Text       string
	Correct    bool
}

// GameSession is the durable record of one room, written when the game
// starts and finalized when it ends. Live state stays in memory.
type GameSession struct {
	Id         string
	RoomCode   string
	HostUserId int
	Mode       string
	Difficulty string
	Status     string
	CreatedAt  time.Time
	StartedAt  time.Time
	FinishedAt time.Time
}

type Participation struct {
	Id        int
	SessionId string
	UserId    int
	Username  string
	Score     int
	Streak    int
	Alive     bool
	JoinedAt  time.Time
}

type XpAward struct {
	XpGained  int
	TotalXp   int
	Level     int
	LeveledUp bool
}

type CreateAccountParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Avatar       string
}

type CreateSessionParams struct {
	RoomCode   string
	HostUserId int
	Mode       string
	Difficulty string
}
