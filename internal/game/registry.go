package game

import (
	"math/rand"
	"sync"
	"time"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

// RoomRegistry maps room codes to live rooms. Codes are never reused:
// a removed room's code stays reserved so late clients get a clean
// "room not found" instead of joining an unrelated new room.
type RoomRegistry struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	retired map[string]struct{}
	rand    *rand.Rand
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:   make(map[string]*Room),
		retired: make(map[string]struct{}),
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Register allocates a fresh code, builds the room for it and inserts it,
// all under one lock. A collision with a live or retired code retries
// with a new code rather than overwriting.
func (rr *RoomRegistry) Register(build func(code string) *Room) *Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	for {
		code := rr.randomCode()
		if _, live := rr.rooms[code]; live {
			continue
		}
		if _, used := rr.retired[code]; used {
			continue
		}

		room := build(code)
		rr.rooms[code] = room
		return room
	}
}

func (rr *RoomRegistry) Lookup(code string) (*Room, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room, ok := rr.rooms[code]
	return room, ok
}

// Remove unloads the room and retires its code.
func (rr *RoomRegistry) Remove(code string) (*Room, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	room, ok := rr.rooms[code]
	if !ok {
		return nil, false
	}

	delete(rr.rooms, code)
	rr.retired[code] = struct{}{}
	return room, true
}

func (rr *RoomRegistry) All() []*Room {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rooms := make([]*Room, 0, len(rr.rooms))
	for _, room := range rr.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (rr *RoomRegistry) Len() int {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return len(rr.rooms)
}

func (rr *RoomRegistry) randomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[rr.rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}
