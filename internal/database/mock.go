package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockQuizRepository struct {
	mock.Mock
}

func (m *MockQuizRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockQuizRepository) CreateAccount(ctx context.Context, params CreateAccountParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockQuizRepository) GetAccountById(ctx context.Context, accountId int) (User, error) {
	args := m.Called(accountId)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockQuizRepository) GetAccountByEmail(ctx context.Context, email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockQuizRepository) GetRandomQuestion(ctx context.Context, difficulty string, excludeIds []int) (Question, error) {
	args := m.Called(difficulty, excludeIds)
	return args.Get(0).(Question), args.Error(1)
}
func (m *MockQuizRepository) CreateSession(ctx context.Context, params CreateSessionParams) (string, error) {
	args := m.Called(params)
	return args.String(0), args.Error(1)
}
func (m *MockQuizRepository) RecordParticipation(ctx context.Context, sessionId string, userId int) error {
	args := m.Called(sessionId, userId)
	return args.Error(0)
}
func (m *MockQuizRepository) UpdateParticipation(ctx context.Context, sessionId string, userId, score, streak int, alive bool) error {
	args := m.Called(sessionId, userId, score, streak, alive)
	return args.Error(0)
}
func (m *MockQuizRepository) FinishSession(ctx context.Context, sessionId string) error {
	args := m.Called(sessionId)
	return args.Error(0)
}
func (m *MockQuizRepository) AwardXp(ctx context.Context, userId, amount int) (XpAward, error) {
	args := m.Called(userId, amount)
	return args.Get(0).(XpAward), args.Error(1)
}
func (m *MockQuizRepository) GetSessionByRoomCode(ctx context.Context, roomCode string) (GameSession, error) {
	args := m.Called(roomCode)
	return args.Get(0).(GameSession), args.Error(1)
}
func (m *MockQuizRepository) GetSessionResults(ctx context.Context, sessionId string) ([]Participation, error) {
	args := m.Called(sessionId)
	if results, ok := args.Get(0).([]Participation); ok {
		return results, args.Error(1)
	}
	return nil, args.Error(1)
}
