package database

import "context"

type QuizRepository interface {
	Ping() error
	CreateAccount(ctx context.Context, params CreateAccountParams) (User, error)
	GetAccountById(ctx context.Context, accountId int) (User, error)
	GetAccountByEmail(ctx context.Context, email string) (User, error)
	// GetRandomQuestion picks a question uniformly at random from the pool
	// matching difficulty (empty string means any), excluding the given ids.
	// Returns sql.ErrNoRows when the pool is exhausted.
	GetRandomQuestion(ctx context.Context, difficulty string, excludeIds []int) (Question, error)
	CreateSession(ctx context.Context, params CreateSessionParams) (string, error)
	RecordParticipation(ctx context.Context, sessionId string, userId int) error
	UpdateParticipation(ctx context.Context, sessionId string, userId, score, streak int, alive bool) error
	FinishSession(ctx context.Context, sessionId string) error
	AwardXp(ctx context.Context, userId, amount int) (XpAward, error)
	GetSessionByRoomCode(ctx context.Context, roomCode string) (GameSession, error)
	GetSessionResults(ctx context.Context, sessionId string) ([]Participation, error)
}
