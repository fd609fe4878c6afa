package game

import (
	"context"
	"log"
	"time"

	"github.com/mkuballa/blitzquiz/internal/database"
)

const (
	persistQueueSize  = 512
	persistJobTimeout = 3 * time.Second
	persistMaxRetries = 3
	persistRetryDelay = 250 * time.Millisecond
)

type participationUpdate struct {
	userId int
	score  int
	streak int
	alive  bool
}

type xpAwardJob struct {
	userId int
	amount int
	client *Client
}

// persistJob is one unit of write-behind work. Exactly one of the
// operation fields is set.
type persistJob struct {
	roomCode      string
	createSession *database.CreateSessionParams
	roster        []int
	recordUser    int
	update        *participationUpdate
	finish        bool
	awardXp       *xpAwardJob
}

// persistWriter applies game state to the database asynchronously so
// that rooms never block on storage. In-memory room state stays
// authoritative; a failed write is retried a few times and then
// dropped with a log line, never rolled back into the room.
type persistWriter struct {
	db    database.QuizRepository
	log   *log.Logger
	jobs  chan persistJob
	done  chan struct{}
	// sessions maps room codes to the session row ids minted by
	// CreateSession. Only the worker goroutine touches it.
	sessions map[string]string
}

func newPersistWriter(db database.QuizRepository, logger *log.Logger) *persistWriter {
	return &persistWriter{
		db:       db,
		log:      logger,
		jobs:     make(chan persistJob, persistQueueSize),
		done:     make(chan struct{}),
		sessions: make(map[string]string),
	}
}

func (pw *persistWriter) start() {
	go pw.run()
}

func (pw *persistWriter) stop() {
	close(pw.jobs)
	<-pw.done
}

// enqueue never blocks the caller. A full queue drops the job, which
// only loses durability, not game state.
func (pw *persistWriter) enqueue(job persistJob) {
	select {
	case pw.jobs <- job:
	default:
		pw.log.Printf("persist queue full, dropping job for room %q", job.roomCode)
	}
}

func (pw *persistWriter) run() {
	defer close(pw.done)

	for job := range pw.jobs {
		pw.apply(job)
	}
}

func (pw *persistWriter) apply(job persistJob) {
	var lastErr error
	for attempt := 0; attempt < persistMaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(persistRetryDelay)
		}

		if lastErr = pw.applyOnce(job); lastErr == nil {
			return
		}
	}

	pw.log.Printf("persist job for room %q failed after %d attempts: %v",
		job.roomCode, persistMaxRetries, lastErr)
}

func (pw *persistWriter) applyOnce(job persistJob) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistJobTimeout)
	defer cancel()

	switch {
	case job.createSession != nil:
		sessionId, err := pw.db.CreateSession(ctx, *job.createSession)
		if err != nil {
			return err
		}
		pw.sessions[job.roomCode] = sessionId

		for _, userId := range job.roster {
			if err := pw.db.RecordParticipation(ctx, sessionId, userId); err != nil {
				pw.log.Printf("record participation for user %d in %q: %v",
					userId, job.roomCode, err)
			}
		}
		return nil
	case job.recordUser != 0:
		sessionId, ok := pw.sessions[job.roomCode]
		if !ok {
			return nil
		}
		return pw.db.RecordParticipation(ctx, sessionId, job.recordUser)
	case job.update != nil:
		sessionId, ok := pw.sessions[job.roomCode]
		if !ok {
			return nil
		}
		u := job.update
		return pw.db.UpdateParticipation(ctx, sessionId, u.userId, u.score, u.streak, u.alive)
	case job.finish:
		sessionId, ok := pw.sessions[job.roomCode]
		if !ok {
			return nil
		}
		if err := pw.db.FinishSession(ctx, sessionId); err != nil {
			return err
		}
		delete(pw.sessions, job.roomCode)
		return nil
	case job.awardXp != nil:
		award, err := pw.db.AwardXp(ctx, job.awardXp.userId, job.awardXp.amount)
		if err != nil {
			return err
		}

		if job.awardXp.client != nil {
			job.awardXp.client.queueMessage(&ServerMessage{
				BaseMessage: BaseMessage{Timestamp: Now()},
				Event: &Event{
					XpAward: &XpAward{
						XpGained:  job.awardXp.amount,
						TotalXp:   award.TotalXp,
						Level:     award.Level,
						LeveledUp: award.LeveledUp,
					},
				},
			})
		}
		return nil
	}

	return nil
}
