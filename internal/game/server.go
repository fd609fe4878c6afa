package game

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mkuballa/blitzquiz/internal/database"
	"github.com/mkuballa/blitzquiz/internal/stats"
	"github.com/mkuballa/blitzquiz/internal/types"
)

var ErrInvalidGameMode = errors.New("invalid game mode")

type unloadRoomRequest struct {
	roomCode string
}

// GameServer coordinates rooms and connections. Room lifecycle events
// flow through its run loop; in-game traffic goes directly to the room
// goroutines and never serializes here.
type GameServer struct {
	log         *log.Logger
	db          database.QuizRepository
	stats       stats.StatsProvider
	clock       clockwork.Clock
	persist     *persistWriter
	registry    *RoomRegistry
	gracePeriod time.Duration

	clients     map[*Client]struct{}
	clientsLock sync.Mutex

	joinChan       chan *ClientMessage
	RegisterChan   chan *Client
	deRegisterChan chan *Client
	// broadcastChan carries user-directed messages: every connection
	// belonging to msg.UserId receives a copy.
	broadcastChan  chan *ServerMessage
	unloadRoomChan chan unloadRoomRequest
	ledger         *AnswerLedger
	stop           chan struct{}
	done           chan struct{}
}

func NewGameServer(logger *log.Logger, db database.QuizRepository, sp stats.StatsProvider,
	clock clockwork.Clock, gracePeriod time.Duration) (*GameServer, error) {
	gs := &GameServer{
		log:            logger,
		db:             db,
		stats:          sp,
		clock:          clock,
		persist:        newPersistWriter(db, logger),
		registry:       NewRoomRegistry(),
		gracePeriod:    gracePeriod,
		clients:        make(map[*Client]struct{}),
		joinChan:       make(chan *ClientMessage, 256),
		RegisterChan:   make(chan *Client),
		deRegisterChan: make(chan *Client),
		broadcastChan:  make(chan *ServerMessage, 256),
		unloadRoomChan: make(chan unloadRoomRequest, 64),
		ledger:         NewAnswerLedger(clock),
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}

	for _, metric := range []string{
		"ActiveRooms",
		"ConnectedClients",
		"RoomsCreated",
		"GamesFinished",
		"AnswersAccepted",
		"AnswersRejected",
	} {
		gs.stats.RegisterMetric(metric)
	}

	return gs, nil
}

func (gs *GameServer) Run() {
	gs.persist.start()

	for {
		select {
		case msg := <-gs.joinChan:
			gs.routeJoin(msg)
		case client := <-gs.RegisterChan:
			gs.log.Printf("adding connection from %q", client.user.Username)
			gs.addClient(client)
		case client := <-gs.deRegisterChan:
			gs.log.Printf("removing connection from %q", client.user.Username)
			gs.removeClient(client)
		case msg := <-gs.broadcastChan:
			gs.broadcastToUser(msg)
		case req := <-gs.unloadRoomChan:
			gs.unloadRoom(req.roomCode)
		case <-gs.stop:
			gs.log.Println("shutting down rooms")
			for _, r := range gs.registry.All() {
				gs.unloadRoom(r.code)
			}

			gs.persist.stop()
			close(gs.done)
			return
		}
	}
}

func (gs *GameServer) routeJoin(msg *ClientMessage) {
	if msg.Create != nil {
		room, err := gs.CreateRoom(msg.client.user, msg.Create.Mode, msg.Create.Difficulty)
		if err != nil {
			msg.client.queueMessage(ErrInvalidMessage(msg.Id))
			return
		}

		// The creator joins their own room immediately.
		room.joinChan <- msg
		return
	}

	code := msg.roomCode()
	room, ok := gs.registry.Lookup(code)
	if !ok {
		msg.client.queueMessage(ErrRoomNotFound(msg.Id))
		return
	}

	select {
	case room.joinChan <- msg:
	default:
		gs.log.Printf("join channel full on room %q", room.code)
		msg.client.queueMessage(ErrServiceUnavailable(msg.Id))
	}
}

// CreateRoom allocates a room with a fresh code and starts its
// goroutine. The room starts in the waiting lobby state.
func (gs *GameServer) CreateRoom(host types.User, mode, difficulty string) (*Room, error) {
	if !ValidMode(mode) {
		return nil, ErrInvalidGameMode
	}

	room := gs.registry.Register(func(code string) *Room {
		return &Room{
			code:          code,
			host:          host,
			mode:          GameMode(mode),
			difficulty:    difficulty,
			status:        StatusWaiting,
			participants:  make(map[int]*Participant),
			gs:            gs,
			db:            gs.db,
			ledger:        gs.ledger,
			clock:         gs.clock,
			log:           gs.log,
			clients:       make(map[*Client]struct{}),
			userMap:       make(map[int]map[*Client]struct{}),
			joinChan:      make(chan *ClientMessage, 256),
			leaveChan:     make(chan *ClientMessage, 256),
			clientMsgChan: make(chan *ClientMessage, 256),
			gracePeriod:   gs.gracePeriod,
			exit:          make(chan exitReq),
			done:          make(chan struct{}),
		}
	})

	go room.run()

	gs.stats.Incr("RoomsCreated")
	gs.stats.Incr("ActiveRooms")

	return room, nil
}

// LookupRoom exposes live rooms to the HTTP layer.
func (gs *GameServer) LookupRoom(code string) (*Room, bool) {
	return gs.registry.Lookup(code)
}

// RegisterClient hands a freshly upgraded connection to the run loop.
func (gs *GameServer) RegisterClient(c *Client) {
	gs.RegisterChan <- c
}

func (gs *GameServer) addClient(c *Client) {
	gs.clientsLock.Lock()
	defer gs.clientsLock.Unlock()
	gs.clients[c] = struct{}{}

	gs.stats.Incr("ConnectedClients")
}

func (gs *GameServer) removeClient(c *Client) {
	gs.clientsLock.Lock()
	defer gs.clientsLock.Unlock()

	if _, ok := gs.clients[c]; !ok {
		return
	}

	delete(gs.clients, c)
	gs.stats.Decr("ConnectedClients")
}

func (gs *GameServer) broadcastToUser(msg *ServerMessage) {
	gs.clientsLock.Lock()
	defer gs.clientsLock.Unlock()

	for c := range gs.clients {
		if c.user.Id == msg.UserId {
			c.queueMessage(msg)
		}
	}
}

func (gs *GameServer) unloadRoom(code string) {
	room, ok := gs.registry.Remove(code)
	if !ok {
		return
	}

	gs.log.Printf("removing room %q", code)
	room.exit <- exitReq{unloaded: true}
	<-room.done

	gs.stats.Decr("ActiveRooms")
}

// Shutdown stops every client connection, unloads all rooms and drains
// the persistence queue. It returns early if ctx expires first.
func (gs *GameServer) Shutdown(ctx context.Context) error {
	gs.log.Println("received shutdown signal")

	gs.clientsLock.Lock()
	for c := range gs.clients {
		c.stopClient()
	}
	gs.clientsLock.Unlock()

	close(gs.stop)

	select {
	case <-gs.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
