package main

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"
)

const roomCodeLength = 6

// GameManager holds every live room keyed by its code. The map is the only
// state shared across rooms; each room runs its own hub goroutine.
type GameManager struct {
	mu    sync.Mutex
	hubs  map[string]*Hub
	cfg   *Config
	words *wordBank
}

func newGameManager(cfg *Config) *GameManager {
	gm := &GameManager{
		hubs:  make(map[string]*Hub),
		cfg:   cfg,
		words: newWordBank(),
	}

	go gm.tickLoop()
	if cfg.sessionTimeout > 0 {
		go gm.reaperLoop()
	}

	return gm
}

// create starts a hub under a fresh room code, retrying on the off chance
// of a collision with a live room.
func (gm *GameManager) create() *Hub {
	for {
		code := newRoomCode(roomCodeLength)

		gm.mu.Lock()
		if _, exists := gm.hubs[code]; !exists {
			h := newHub(code, gm.cfg, gm)
			gm.hubs[code] = h
			gm.mu.Unlock()

			go h.run()
			return h
		}
		gm.mu.Unlock()
	}
}

func (gm *GameManager) lookup(code string) *Hub {
	code = strings.ToUpper(strings.TrimSpace(code))

	gm.mu.Lock()
	defer gm.mu.Unlock()

	return gm.hubs[code]
}

func (gm *GameManager) remove(code string) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	delete(gm.hubs, code)
}

// newRoomCode generates a crypto-random uppercase room code.
func newRoomCode(length int) string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	out := make([]byte, length)
	for i := range out {
		out[i] = letters[int(buf[i])%len(letters)]
	}

	return string(out)
}

// tickLoop drives round timing for every room, once per second. Sends are
// non-blocking so a busy or vanished room just misses a tick.
func (gm *GameManager) tickLoop() {
	ticker := time.NewTicker(time.Second)
	for now := range ticker.C {
		gm.mu.Lock()
		hubs := make([]*Hub, 0, len(gm.hubs))
		for _, h := range gm.hubs {
			hubs = append(hubs, h)
		}
		gm.mu.Unlock()

		for _, h := range hubs {
			select {
			case h.ticks <- now:
			default:
			}
		}
	}
}

// reaperLoop periodically removes rooms that have been idle longer than
// the configured session timeout.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.cfg.sessionTimeout / 2)
	for range ticker.C {
		cutoff := time.Now().Add(-gm.cfg.sessionTimeout).Unix()

		gm.mu.Lock()
		for code, h := range gm.hubs {
			if h.lastActive.Load() < cutoff {
				delete(gm.hubs, code)
				close(h.quit)
				logf(gm.cfg, "GAMES: Reaped idle room %s", code)
			}
		}
		gm.mu.Unlock()
	}
}
