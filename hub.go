package main

import (
	"sync/atomic"
	"time"
)

type joinRequest struct {
	client  *client
	name    string
	create  bool
	errChan chan error
}

type clientAction struct {
	client *client
	msg    clientMessage
}

// advanceRequest carries the round it was scheduled for, so a delayed
// advance that outlived its round is dropped instead of applied twice.
type advanceRequest struct {
	round int
}

type stateRequest struct {
	reply chan gameData
}

// Hub owns one room: the connected clients and the game state. Everything
// is mutated on the run goroutine, draining one message at a time, so no
// two operations on the same room ever interleave.
type Hub struct {
	id      string
	game    *Game
	clients map[*client]bool

	joins    chan joinRequest
	unreg    chan *client
	actions  chan clientAction
	ticks    chan time.Time
	advances chan advanceRequest
	states   chan stateRequest
	quit     chan struct{}

	advancePending bool
	lastActive     atomic.Int64

	cfg     *Config
	manager *GameManager
}

func newHub(id string, cfg *Config, gm *GameManager) *Hub {
	h := &Hub{
		id:       id,
		game:     newGame(id, cfg.maxRounds, cfg.roundDuration, gm.words),
		clients:  make(map[*client]bool),
		joins:    make(chan joinRequest, 8),
		unreg:    make(chan *client, 16),
		actions:  make(chan clientAction, 64),
		ticks:    make(chan time.Time, 4),
		advances: make(chan advanceRequest, 4),
		states:   make(chan stateRequest, 4),
		quit:     make(chan struct{}),
		cfg:      cfg,
		manager:  gm,
	}
	h.touch()

	return h
}

func (h *Hub) run() {
	for {
		select {
		case jr := <-h.joins:
			h.handleJoin(jr)

		case c := <-h.unreg:
			if h.handleLeave(c) {
				h.manager.remove(h.id)
				return
			}

		case act := <-h.actions:
			h.handleAction(act)

		case now := <-h.ticks:
			h.handleTick(now)

		case adv := <-h.advances:
			h.handleAdvance(adv)

		case req := <-h.states:
			req.reply <- h.game.snapshotFor(h.game.currentDrawer, time.Now())

		case <-h.quit:
			h.closeAll()
			return
		}
	}
}

func (h *Hub) touch() {
	h.lastActive.Store(time.Now().Unix())
}

func (h *Hub) handleJoin(jr joinRequest) {
	h.touch()

	if err := h.game.addPlayer(jr.client.id, jr.name); err != nil {
		jr.errChan <- err
		return
	}
	if jr.create {
		h.game.hostID = jr.client.id
	}
	h.clients[jr.client] = true
	jr.errChan <- nil

	name := h.game.player(jr.client.id).Name
	now := time.Now()

	if jr.create {
		h.send(jr.client, gameCreatedMessage{
			Type:     "gameCreated",
			RoomID:   h.id,
			GameData: h.game.snapshotFor(jr.client.id, now),
		})
		logf(h.cfg, "GAMES: %q created room %s", name, h.id)

		return
	}

	h.broadcastSnapshot(func(gd gameData) any {
		return playerJoinedMessage{Type: "playerJoined", PlayerName: name, GameData: gd}
	}, nil)
	logf(h.cfg, "GAMES: %q joined room %s", name, h.id)
}

// handleLeave reports true once the roster is empty, at which point the
// room is removed from the registry and the run loop exits.
func (h *Hub) handleLeave(c *client) bool {
	h.touch()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}

	name, wasDrawer := h.game.removePlayer(c.id, time.Now())
	if name == "" {
		return len(h.game.players) == 0
	}

	if len(h.game.players) == 0 {
		logf(h.cfg, "GAMES: Room %s deleted (no players left)", h.id)
		return true
	}

	h.broadcastSnapshot(func(gd gameData) any {
		return playerLeftMessage{Type: "playerLeft", PlayerName: name, GameData: gd}
	}, nil)
	logf(h.cfg, "GAMES: %q left room %s", name, h.id)

	// The forced advance already replaced the drawer; any grace-delayed
	// advance still in flight is now stale and gets dropped by its round
	// stamp.
	if wasDrawer {
		h.advancePending = false
	}

	return false
}

func (h *Hub) handleAction(act clientAction) {
	h.touch()

	c := act.client
	g := h.game

	switch act.msg.Type {
	case actionStart:
		if c.id != g.hostID {
			logf(h.cfg, "GAMES: Ignoring start of room %s from non-host", h.id)
			return
		}
		if err := g.start(time.Now()); err != nil {
			h.send(c, errorMessage{Type: "error", Message: err.Error()})
			return
		}
		h.advancePending = false
		h.broadcastSnapshot(func(gd gameData) any {
			return gameStartedMessage{Type: "gameStarted", GameData: gd}
		}, nil)
		logf(h.cfg, "GAMES: Room %s started", h.id)

	case actionDraw:
		if g.state != statePlaying || c.id != g.currentDrawer {
			return
		}
		h.broadcast(drawMessage{
			Type:    "draw",
			X:       act.msg.X,
			Y:       act.msg.Y,
			LastX:   act.msg.LastX,
			LastY:   act.msg.LastY,
			Drawing: act.msg.Drawing,
		}, c)

	case actionClear:
		if c.id != g.currentDrawer {
			return
		}
		h.broadcast(clearCanvasMessage{Type: "clearCanvas"}, c)

	case actionGuess:
		if g.state != statePlaying {
			return
		}
		res := g.guess(c.id, act.msg.Guess, time.Now())
		if !res.correct {
			return
		}
		h.broadcast(wordGuessedMessage{
			Type:       "wordGuessed",
			PlayerName: g.player(c.id).Name,
			Word:       g.currentWord,
			Score:      res.award,
			TimeBonus:  res.timeBonus,
		}, nil)
		logf(h.cfg, "GAMES: %q guessed the word in room %s (+%d)", g.player(c.id).Name, h.id, res.award)
		if res.allGuessed {
			h.scheduleAdvance()
		}
	}
}

func (h *Hub) handleTick(now time.Time) {
	g := h.game
	if g.state != statePlaying {
		return
	}

	left := g.timeLeft(now)
	if left == 0 {
		h.scheduleAdvance()
	}

	h.broadcast(timeUpdateMessage{Type: "timeUpdate", TimeLeft: left}, nil)
}

// scheduleAdvance arms the grace-delayed round advance, at most once per
// round. The timer only enqueues a request; the actual transition happens
// on the run goroutine, which re-validates round and state first.
func (h *Hub) scheduleAdvance() {
	if h.advancePending {
		return
	}
	h.advancePending = true
	round := h.game.round

	time.AfterFunc(h.cfg.roundGrace, func() {
		select {
		case h.advances <- advanceRequest{round: round}:
		default:
		}
	})
}

func (h *Hub) handleAdvance(adv advanceRequest) {
	h.advancePending = false

	g := h.game
	if g.state != statePlaying || g.round != adv.round {
		return
	}

	g.advanceRound(time.Now())
	h.broadcastSnapshot(func(gd gameData) any {
		return roundEndedMessage{Type: "roundEnded", GameData: gd}
	}, nil)

	if g.state == stateFinished {
		logf(h.cfg, "GAMES: Room %s finished after round %d", h.id, g.round)
	}
}

// broadcastSnapshot sends a message built from each recipient's own view
// of the game, so the target word is only visible to the drawer.
func (h *Hub) broadcastSnapshot(build func(gameData) any, except *client) {
	now := time.Now()
	for c := range h.clients {
		if c == except {
			continue
		}
		h.send(c, build(h.game.snapshotFor(c.id, now)))
	}
}

func (h *Hub) broadcast(msg any, except *client) {
	for c := range h.clients {
		if c == except {
			continue
		}
		h.send(c, msg)
	}
}

// send never blocks the room; clients that cannot keep up are dropped and
// cleaned out of the roster once their reader notices the closed socket.
func (h *Hub) send(c *client, msg any) {
	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		c.close()
	}
}

// closeAll disconnects every client of this room (used by the reaper).
func (h *Hub) closeAll() {
	for c := range h.clients {
		c.close()
		delete(h.clients, c)
	}
}
