package game

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mkuballa/blitzquiz/internal/database"
	"github.com/mkuballa/blitzquiz/internal/types"
)

const (
	// idleRoomTimeout unloads a room once no client has been connected
	// for this long. Finished rooms use the server's grace period instead.
	idleRoomTimeout = time.Minute

	questionFetchTimeout = 5 * time.Second

	jammerDurationMs = 3000
)

type GameMode string

const (
	ModeMultiplayer      GameMode = "multiplayer"
	ModeSurvivalNormal   GameMode = "survival_normal"
	ModeSurvivalHardcore GameMode = "survival_hardcore"
)

func ValidMode(mode string) bool {
	switch GameMode(mode) {
	case ModeMultiplayer, ModeSurvivalNormal, ModeSurvivalHardcore:
		return true
	}
	return false
}

type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusActive   RoomStatus = "active"
	StatusFinished RoomStatus = "finished"
)

const (
	ActionPause  = "pause"
	ActionResume = "resume"
	ActionSkip   = "skip"
	ActionAnnul  = "annul"
	ActionEnd    = "end"
)

// Participant is a user's membership and running performance within one
// room. Created on first join, never deleted, only marked eliminated.
type Participant struct {
	User      types.User
	Score     int
	Streak    int
	MaxStreak int
	Alive     bool
	JoinedAt  time.Time
}

// liveQuestion is the room's current question together with its serving
// state. startedAt is the only authority for elapsed-time scoring.
type liveQuestion struct {
	q         database.Question
	number    int
	startedAt time.Time
	annulled  bool
}

type exitReq struct {
	unloaded bool
}

// Room owns one game session's lifecycle. All state mutations happen on
// the room goroutine (run), so operations within a room are serialized
// while different rooms proceed in parallel.
type Room struct {
	code       string
	host       types.User
	mode       GameMode
	difficulty string

	status    RoomStatus
	seq       int
	current   *liveQuestion
	pausedAt  time.Time
	asked     []int
	startedAt time.Time

	participants map[int]*Participant

	gs     *GameServer
	db     database.QuizRepository
	ledger *AnswerLedger
	clock  clockwork.Clock
	log    *log.Logger

	clients    map[*Client]struct{}
	userMap    map[int]map[*Client]struct{}
	clientLock sync.RWMutex

	joinChan      chan *ClientMessage
	leaveChan     chan *ClientMessage
	clientMsgChan chan *ClientMessage

	// killTimer unloads the room when idle, and after the grace period
	// once the game is finished.
	killTimer   clockwork.Timer
	gracePeriod time.Duration
	exit        chan exitReq
	done        chan struct{}
}

// Code returns the room's join code.
func (r *Room) Code() string {
	return r.code
}

func (r *Room) run() {
	r.log.Printf("starting room %q", r.code)
	r.killTimer = r.clock.NewTimer(idleRoomTimeout)
	defer close(r.done)

	for {
		select {
		case msg := <-r.joinChan:
			r.handleJoin(msg)
		case msg := <-r.leaveChan:
			r.handleLeave(msg)
		case msg := <-r.clientMsgChan:
			r.dispatch(msg)
		case <-r.killTimer.Chan():
			r.handleRoomTimeout()
		case e := <-r.exit:
			r.handleRoomExit(e)
			return
		}
	}
}

func (r *Room) dispatch(msg *ClientMessage) {
	switch {
	case msg.Start != nil:
		r.handleStart(msg)
	case msg.Submit != nil:
		r.handleSubmit(msg)
	case msg.Next != nil:
		r.handleNext(msg)
	case msg.Control != nil:
		r.handleControl(msg)
	case msg.Kick != nil:
		r.handleKick(msg)
	case msg.Jammer != nil:
		r.handleJammer(msg)
	default:
		msg.client.queueMessage(ErrInvalidMessage(msg.Id))
	}
}

// handleJoin serves first joins, rejoins and reconnects alike: the
// participant record is created at most once and an existing record is
// never reset, so a reconnecting client resumes exactly where it was.
func (r *Room) handleJoin(msg *ClientMessage) {
	c := msg.client
	userId := msg.GetUserId()

	p, rejoined := r.participants[userId]
	if !rejoined {
		p = &Participant{
			User:     c.user,
			Alive:    true,
			JoinedAt: r.clock.Now(),
		}
		r.participants[userId] = p

		if r.gs != nil && r.gs.persist != nil && r.status != StatusWaiting {
			r.gs.persist.enqueue(persistJob{
				roomCode:   r.code,
				recordUser: userId,
			})
		}
	}

	if r.status != StatusFinished {
		r.killTimer.Stop()
	}

	r.addClient(c)

	c.queueMessage(NoErrOK(msg.Id, r.roomState(userId)))

	if !rejoined {
		r.broadcast(&ServerMessage{
			BaseMessage: BaseMessage{Timestamp: Now()},
			Event: &Event{
				PlayerJoined: &PlayerJoined{
					UserId:   userId,
					Username: c.user.Username,
					Avatar:   c.user.Avatar,
				},
			},
			SkipClient: c,
		})
	}
}

func (r *Room) handleLeave(msg *ClientMessage) {
	r.removeClient(msg.client)

	// Disconnect cleanup sends leaves with no message id; only explicit
	// leaves get an acknowledgement.
	if msg.Id != 0 {
		msg.client.queueMessage(NoErrOK(msg.Id, nil))
	}
}

func (r *Room) handleStart(msg *ClientMessage) {
	if msg.GetUserId() != r.host.Id {
		msg.client.queueMessage(ErrUnauthorized(msg.Id))
		return
	}

	if r.status != StatusWaiting {
		msg.client.queueMessage(ErrNotActive(msg.Id))
		return
	}

	r.status = StatusActive
	r.startedAt = r.clock.Now()

	if r.gs != nil && r.gs.persist != nil {
		roster := make([]int, 0, len(r.participants))
		for userId := range r.participants {
			roster = append(roster, userId)
		}
		r.gs.persist.enqueue(persistJob{
			roomCode: r.code,
			createSession: &database.CreateSessionParams{
				RoomCode:   r.code,
				HostUserId: r.host.Id,
				Mode:       string(r.mode),
				Difficulty: r.difficulty,
			},
			roster: roster,
		})
	}

	msg.client.queueMessage(NoErrOK(msg.Id, nil))
	r.broadcastRoomState()

	r.advanceQuestion(msg, true)
}

func (r *Room) handleNext(msg *ClientMessage) {
	if msg.GetUserId() != r.host.Id {
		msg.client.queueMessage(ErrUnauthorized(msg.Id))
		return
	}

	r.advanceQuestion(msg, false)
}

// advanceQuestion picks the next question at random, excluding every
// question already asked in this room. An exhausted pool ends the game.
func (r *Room) advanceQuestion(msg *ClientMessage, internal bool) {
	if r.status != StatusActive {
		if msg != nil && !internal {
			msg.client.queueMessage(ErrNotActive(msg.Id))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), questionFetchTimeout)
	defer cancel()

	question, err := r.db.GetRandomQuestion(ctx, r.difficulty, r.asked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.finish("question pool exhausted")
			return
		}

		r.log.Printf("room %q: GetRandomQuestion: %v", r.code, err)
		if msg != nil && !internal {
			msg.client.queueMessage(ErrServiceUnavailable(msg.Id))
		}
		return
	}

	r.seq++
	r.current = &liveQuestion{
		q:         question,
		number:    r.seq,
		startedAt: r.clock.Now(),
	}
	r.pausedAt = time.Time{}
	r.asked = append(r.asked, question.Id)

	r.ledger.Sweep(r.code, question.Id)

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			NewQuestion: r.questionView(),
		},
	})
}

func (r *Room) handleSubmit(msg *ClientMessage) {
	userId := msg.GetUserId()

	p, ok := r.participants[userId]
	if !ok {
		msg.client.queueMessage(ErrNotParticipant(msg.Id))
		return
	}

	if r.status != StatusActive || r.current == nil || r.current.annulled || r.paused() {
		msg.client.queueMessage(ErrNotActive(msg.Id))
		return
	}

	option, ok := r.findOption(msg.Submit.AnswerId)
	if !ok {
		msg.client.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	limit := time.Duration(r.current.q.TimeLimitSeconds) * time.Second

	// Elapsed time comes from the question's own start timestamp; the
	// client-reported value is never trusted for scoring.
	elapsed := r.clock.Now().Sub(r.current.startedAt)
	if elapsed > limit {
		msg.client.queueMessage(ErrNotActive(msg.Id))
		return
	}
	if elapsed < 0 {
		elapsed = 0
	}

	if !r.ledger.TryRecord(r.code, r.current.q.Id, userId, option.Id) {
		r.gs.stats.Incr("AnswersRejected")
		msg.client.queueMessage(ErrDuplicateSubmission(msg.Id))
		return
	}

	// Eliminated participants keep submitting through the same path but
	// are always scored as incorrect and earn nothing further.
	correct := option.Correct && p.Alive

	result := &AnswerResult{Correct: correct}
	if correct {
		delta := Score(elapsed, limit, p.Streak)
		p.Score += delta
		p.Streak++
		if p.Streak > p.MaxStreak {
			p.MaxStreak = p.Streak
		}

		result.ScoreDelta = delta

		if r.gs != nil && r.gs.persist != nil {
			r.gs.persist.enqueue(persistJob{
				roomCode: r.code,
				awardXp: &xpAwardJob{
					userId: userId,
					amount: delta / 10,
					client: msg.client,
				},
			})
		}
	} else {
		p.Streak = 0
		if r.mode == ModeSurvivalHardcore {
			p.Alive = false
		}
	}

	result.TotalScore = p.Score
	result.Streak = p.Streak
	result.Eliminated = !p.Alive

	if r.gs != nil && r.gs.persist != nil {
		r.gs.persist.enqueue(persistJob{
			roomCode: r.code,
			update: &participationUpdate{
				userId: userId,
				score:  p.Score,
				streak: p.Streak,
				alive:  p.Alive,
			},
		})
	}

	r.gs.stats.Incr("AnswersAccepted")

	msg.client.queueMessage(&ServerMessage{
		BaseMessage: BaseMessage{Id: msg.Id, Timestamp: Now()},
		Event:       &Event{AnswerResult: result},
	})

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			PlayerAnswered: &PlayerAnswered{UserId: userId},
		},
		SkipClient: msg.client,
	})
}

func (r *Room) handleControl(msg *ClientMessage) {
	if msg.client == nil || !msg.client.user.IsAdmin {
		msg.client.queueMessage(ErrUnauthorized(msg.Id))
		return
	}

	switch msg.Control.Action {
	case ActionPause:
		if r.status != StatusActive || r.paused() {
			msg.client.queueMessage(ErrNotActive(msg.Id))
			return
		}
		r.pausedAt = r.clock.Now()
	case ActionResume:
		if !r.paused() {
			msg.client.queueMessage(ErrNotActive(msg.Id))
			return
		}
		// Shift the question start forward so paused time never counts
		// against the players.
		if r.current != nil {
			r.current.startedAt = r.current.startedAt.Add(r.clock.Now().Sub(r.pausedAt))
		}
		r.pausedAt = time.Time{}
	case ActionSkip:
		if r.status != StatusActive {
			msg.client.queueMessage(ErrNotActive(msg.Id))
			return
		}
		r.pausedAt = time.Time{}
		msg.client.queueMessage(NoErrOK(msg.Id, nil))
		r.advanceQuestion(msg, true)
		return
	case ActionAnnul:
		// Annulling voids further scoring on the current question only;
		// points already committed stay committed.
		if r.status != StatusActive || r.current == nil {
			msg.client.queueMessage(ErrNotActive(msg.Id))
			return
		}
		r.current.annulled = true
	case ActionEnd:
		if r.status == StatusFinished {
			msg.client.queueMessage(ErrNotActive(msg.Id))
			return
		}
		msg.client.queueMessage(NoErrOK(msg.Id, nil))
		r.finish("ended by admin")
		return
	default:
		msg.client.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	msg.client.queueMessage(NoErrOK(msg.Id, nil))
	r.broadcastRoomState()
}

func (r *Room) handleKick(msg *ClientMessage) {
	byUser := msg.client.user
	if byUser.Id != r.host.Id && !byUser.IsAdmin {
		msg.client.queueMessage(ErrUnauthorized(msg.Id))
		return
	}

	target := msg.Kick.TargetUserId
	if _, ok := r.participants[target]; !ok {
		msg.client.queueMessage(ErrNotParticipant(msg.Id))
		return
	}

	// Direct notice to every connection of the removed player, then
	// detach them from the room's broadcast group. The participant
	// record (score, streak) stays.
	r.gs.broadcastChan <- &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			Kicked: &Kicked{RoomCode: r.code},
		},
		UserId: target,
	}

	r.removeAllClientsForUser(target)

	msg.client.queueMessage(NoErrOK(msg.Id, nil))
	r.broadcastRoomState()
}

func (r *Room) handleJammer(msg *ClientMessage) {
	userId := msg.GetUserId()
	if _, ok := r.participants[userId]; !ok {
		msg.client.queueMessage(ErrNotParticipant(msg.Id))
		return
	}

	target := msg.Jammer.TargetUserId
	if _, ok := r.participants[target]; !ok || target == userId {
		msg.client.queueMessage(ErrInvalidMessage(msg.Id))
		return
	}

	r.gs.broadcastChan <- &ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			JammerAttack: &JammerAttack{
				FromUserId: userId,
				DurationMs: jammerDurationMs,
			},
		},
		UserId: target,
	}

	msg.client.queueMessage(NoErrAccepted(msg.Id))
}

// finish moves the room to its terminal state and publishes the final
// standings. Idempotent callers are rejected upstream via status checks.
func (r *Room) finish(reason string) {
	r.status = StatusFinished
	r.current = nil
	r.pausedAt = time.Time{}

	if r.gs != nil && r.gs.persist != nil {
		for userId, p := range r.participants {
			r.gs.persist.enqueue(persistJob{
				roomCode: r.code,
				update: &participationUpdate{
					userId: userId,
					score:  p.Score,
					streak: p.Streak,
					alive:  p.Alive,
				},
			})
		}
		r.gs.persist.enqueue(persistJob{
			roomCode: r.code,
			finish:   true,
		})
	}

	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			GameFinished: &GameFinished{
				Leaderboard: r.standings(),
				Reason:      reason,
			},
		},
	})

	r.gs.stats.Incr("GamesFinished")

	// Keep the finished room around for late reconnects and result
	// queries, then let the coordinator unload it.
	r.killTimer.Reset(r.gracePeriod)
}

// standings orders participants by score descending, ties broken by
// earliest join time.
func (r *Room) standings() []types.LeaderboardEntry {
	players := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		players = append(players, p)
	}

	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})

	leaderboard := make([]types.LeaderboardEntry, len(players))
	for i, p := range players {
		leaderboard[i] = types.LeaderboardEntry{
			UserId:    p.User.Id,
			Username:  p.User.Username,
			Score:     p.Score,
			MaxStreak: p.MaxStreak,
		}
	}

	return leaderboard
}

func (r *Room) paused() bool {
	return !r.pausedAt.IsZero()
}

func (r *Room) findOption(answerId int) (database.AnswerOption, bool) {
	for _, opt := range r.current.q.Options {
		if opt.Id == answerId {
			return opt, true
		}
	}
	return database.AnswerOption{}, false
}

// questionView is the client-facing copy of the current question, with
// correctness flags stripped.
func (r *Room) questionView() *types.Question {
	if r.current == nil {
		return nil
	}

	options := make([]types.AnswerOption, len(r.current.q.Options))
	for i, opt := range r.current.q.Options {
		options[i] = types.AnswerOption{
			Id:   opt.Id,
			Text: opt.Text,
		}
	}

	return &types.Question{
		Id:               r.current.q.Id,
		Text:             r.current.q.Text,
		Type:             r.current.q.Type,
		CodeSnippet:      r.current.q.CodeSnippet,
		TimeLimitSeconds: r.current.q.TimeLimitSeconds,
		QuestionNumber:   r.current.number,
		Options:          options,
	}
}

// roomState builds the full snapshot a joining or reconnecting client
// needs to resume: status, roster, the live question with remaining
// time, and the caller's own score and streak.
func (r *Room) roomState(forUserId int) *RoomState {
	state := &RoomState{
		RoomCode:       r.code,
		Status:         string(r.status),
		Mode:           string(r.mode),
		Difficulty:     r.difficulty,
		Paused:         r.paused(),
		QuestionNumber: r.seq,
		Players:        r.playerList(),
		Question:       r.questionView(),
	}

	if r.current != nil && !r.current.annulled {
		limit := time.Duration(r.current.q.TimeLimitSeconds) * time.Second
		ref := r.clock.Now()
		if r.paused() {
			ref = r.pausedAt
		}
		remaining := limit - ref.Sub(r.current.startedAt)
		if remaining < 0 {
			remaining = 0
		}
		state.TimeRemainingMs = remaining.Milliseconds()
	}

	if p, ok := r.participants[forUserId]; ok {
		state.You = &PlayerState{
			Score:  p.Score,
			Streak: p.Streak,
			Alive:  p.Alive,
		}
	}

	return state
}

func (r *Room) playerList() []types.Player {
	players := make([]*Participant, 0, len(r.participants))
	for _, p := range r.participants {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})

	list := make([]types.Player, len(players))
	for i, p := range players {
		list[i] = types.Player{
			UserId:   p.User.Id,
			Username: p.User.Username,
			Avatar:   p.User.Avatar,
			Score:    p.Score,
			Streak:   p.Streak,
			Alive:    p.Alive,
		}
	}

	return list
}

func (r *Room) broadcastRoomState() {
	r.broadcast(&ServerMessage{
		BaseMessage: BaseMessage{Timestamp: Now()},
		Event: &Event{
			RoomState: r.roomState(0),
		},
	})
}

func (r *Room) handleRoomTimeout() {
	r.log.Printf("room %q timed out", r.code)
	select {
	case r.gs.unloadRoomChan <- unloadRoomRequest{roomCode: r.code}:
	default:
		r.log.Printf("unload channel full, rescheduling room %q", r.code)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) handleRoomExit(e exitReq) {
	r.log.Printf("room %q is exiting", r.code)

	if e.unloaded {
		// Lingering clients get a last snapshot so they know the room
		// is gone for good rather than silently losing it.
		r.broadcastRoomState()
	}

	r.killTimer.Stop()
	r.ledger.DropRoom(r.code)

	r.clientLock.Lock()
	for c := range r.clients {
		c.delRoom(r.code)
	}
	r.clientLock.Unlock()
}

func (r *Room) addClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	r.clients[c] = struct{}{}
	if r.userMap[c.user.Id] == nil {
		r.userMap[c.user.Id] = make(map[*Client]struct{})
	}
	r.userMap[c.user.Id][c] = struct{}{}

	c.addRoom(r)
}

func (r *Room) removeClient(c *Client) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	if _, ok := r.clients[c]; !ok {
		return
	}

	delete(r.clients, c)
	c.delRoom(r.code)

	if userClients, ok := r.userMap[c.user.Id]; ok {
		delete(userClients, c)
		if len(userClients) == 0 {
			delete(r.userMap, c.user.Id)
		}
	}

	if len(r.clients) == 0 && r.status != StatusFinished {
		r.log.Printf("no clients in %q, starting kill timer", r.code)
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) removeAllClientsForUser(userId int) {
	r.clientLock.Lock()
	defer r.clientLock.Unlock()

	if userClients, ok := r.userMap[userId]; ok {
		for client := range userClients {
			delete(r.clients, client)
			client.delRoom(r.code)
		}
		delete(r.userMap, userId)
	}

	if len(r.clients) == 0 && r.status != StatusFinished {
		r.killTimer.Reset(idleRoomTimeout)
	}
}

func (r *Room) broadcast(msg *ServerMessage) {
	r.clientLock.RLock()
	defer r.clientLock.RUnlock()

	for client := range r.clients {
		if client == msg.SkipClient {
			continue
		}

		client.queueMessage(msg)
	}
}
