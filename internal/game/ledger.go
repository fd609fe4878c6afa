package game

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ledgerGraceWindow is how long an entry for a superseded question is kept
// before it becomes eligible for removal. Expiry only bounds memory; the
// room rejects submissions for stale questions independently.
const ledgerGraceWindow = 5 * time.Minute

type ledgerKey struct {
	roomCode   string
	questionId int
	userId     int
}

type ledgerEntry struct {
	answerId   int
	recordedAt time.Time
}

// AnswerLedger guarantees at most one accepted answer submission per
// (room, question, participant), safe under concurrent callers.
type AnswerLedger struct {
	mu      sync.Mutex
	entries map[ledgerKey]ledgerEntry
	clock   clockwork.Clock
}

func NewAnswerLedger(clock clockwork.Clock) *AnswerLedger {
	return &AnswerLedger{
		entries: make(map[ledgerKey]ledgerEntry),
		clock:   clock,
	}
}

// TryRecord records the submission if no submission exists for the key.
// Exactly one concurrent caller for a given key observes true; every
// later call observes false.
func (l *AnswerLedger) TryRecord(roomCode string, questionId, userId, answerId int) bool {
	key := ledgerKey{roomCode: roomCode, questionId: questionId, userId: userId}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.entries[key]; exists {
		return false
	}

	l.entries[key] = ledgerEntry{
		answerId:   answerId,
		recordedAt: l.clock.Now(),
	}
	return true
}

// Sweep removes entries belonging to the room's superseded questions once
// they have aged past the grace window. Called by the room when it
// advances; never touches entries for the current question.
func (l *AnswerLedger) Sweep(roomCode string, currentQuestionId int) {
	cutoff := l.clock.Now().Add(-ledgerGraceWindow)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, entry := range l.entries {
		if key.roomCode != roomCode || key.questionId == currentQuestionId {
			continue
		}
		if entry.recordedAt.Before(cutoff) {
			delete(l.entries, key)
		}
	}
}

// DropRoom removes all entries for a room when it is torn down.
func (l *AnswerLedger) DropRoom(roomCode string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key := range l.entries {
		if key.roomCode == roomCode {
			delete(l.entries, key)
		}
	}
}
