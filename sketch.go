// Sketchroom drawing-and-guessing game
//
// Participants create or join a room by short code over a single websocket
// endpoint. One participant draws while the rest guess the hidden word;
// correct guesses score 100 points plus one per second left in the round.
//
// Features:
// - One websocket endpoint at /sketch/ws; actions carry the room code
// - Rooms created with crypto-random 6-char codes, collision-checked
// - Host-only game start, drawer-only stroke and canvas-clear relay
// - Per-recipient snapshots: only the drawer ever sees the target word
// - Rounds advance on timeout, on everyone guessing, or on drawer leaving
// - Rooms are destroyed the moment their roster empties
// - Idle rooms auto-reaped after a configurable timeout
// - In-browser QR button to share the room join link, backed by go-qrcode
// - Per-connection inbound message limiter to keep floods out of rooms

package main

import (
	_ "embed"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"golang.org/x/time/rate"
)

var errRoomGone = errors.New("Game not found")

const (
	actionCreate = "createGame"
	actionJoin   = "joinGame"
	actionStart  = "startGame"
	actionDraw   = "draw"
	actionClear  = "clearCanvas"
	actionGuess  = "guessWord"
)

// clientMessage is every inbound action, discriminated by Type.
type clientMessage struct {
	Type       string  `json:"type"`
	PlayerName string  `json:"playerName,omitempty"` // createGame / joinGame
	RoomID     string  `json:"roomId,omitempty"`
	Guess      string  `json:"guess,omitempty"`   // guessWord
	X          float64 `json:"x,omitempty"`       // draw, normalized [0,1]
	Y          float64 `json:"y,omitempty"`       // draw
	LastX      float64 `json:"lastX,omitempty"`   // draw
	LastY      float64 `json:"lastY,omitempty"`   // draw
	Drawing    bool    `json:"drawing,omitempty"` // draw
}

// Messages sent to clients
type errorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

type gameCreatedMessage struct {
	Type     string   `json:"type"` // "gameCreated"
	RoomID   string   `json:"roomId"`
	GameData gameData `json:"gameData"`
}

type playerJoinedMessage struct {
	Type       string   `json:"type"` // "playerJoined"
	PlayerName string   `json:"playerName"`
	GameData   gameData `json:"gameData"`
}

type gameStartedMessage struct {
	Type     string   `json:"type"` // "gameStarted"
	GameData gameData `json:"gameData"`
}

type drawMessage struct {
	Type    string  `json:"type"` // "draw"
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	LastX   float64 `json:"lastX"`
	LastY   float64 `json:"lastY"`
	Drawing bool    `json:"drawing"`
}

type clearCanvasMessage struct {
	Type string `json:"type"` // "clearCanvas"
}

type wordGuessedMessage struct {
	Type       string `json:"type"` // "wordGuessed"
	PlayerName string `json:"playerName"`
	Word       string `json:"word"`
	Score      int    `json:"score"`
	TimeBonus  int    `json:"timeBonus"`
}

type timeUpdateMessage struct {
	Type     string `json:"type"` // "timeUpdate"
	TimeLeft int    `json:"timeLeft"`
}

type roundEndedMessage struct {
	Type     string   `json:"type"` // "roundEnded"
	GameData gameData `json:"gameData"`
}

type playerLeftMessage struct {
	Type       string   `json:"type"` // "playerLeft"
	PlayerName string   `json:"playerName"`
	GameData   gameData `json:"gameData"`
}

type client struct {
	id        string
	conn      *websocket.Conn
	send      chan any
	done      chan struct{}
	closeOnce sync.Once
	limiter   *rate.Limiter
	roomID    string // set by the read pump once a join succeeds
}

// close signals the write pump to stop. Safe to call from any goroutine,
// any number of times.
func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// trySend delivers an error notice straight to this client, bypassing any
// room. Drops the message rather than blocking the read pump.
func (c *client) trySend(msg any) {
	select {
	case c.send <- msg:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func serveSketchWS(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		c := &client{
			id:      uuid.NewString(),
			conn:    conn,
			send:    make(chan any, 32),
			done:    make(chan struct{}),
			limiter: rate.NewLimiter(rate.Limit(60), 120),
		}

		go c.writePump()
		c.readPump(cfg, gm)
	}
}

func (c *client) readPump(cfg *Config, gm *GameManager) {
	defer func() {
		if c.roomID != "" {
			if h := gm.lookup(c.roomID); h != nil {
				select {
				case h.unreg <- c:
				default:
				}
			}
		}
		c.close()
		_ = c.conn.Close()
	}()

	for {
		var msg clientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}
		if !c.limiter.Allow() {
			continue
		}

		switch msg.Type {
		case actionCreate:
			c.handleCreate(cfg, gm, msg)

		case actionJoin:
			c.handleJoin(cfg, gm, msg)

		case actionStart, actionDraw, actionClear, actionGuess:
			h := gm.lookup(msg.RoomID)
			if h == nil {
				c.trySend(errorMessage{Type: "error", Message: "Game not found"})
				continue
			}
			select {
			case h.actions <- clientAction{client: c, msg: msg}:
			default:
			}

		default:
			// ignore unknown types
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for {
		select {
		case msg := <-c.send:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) handleCreate(cfg *Config, gm *GameManager, msg clientMessage) {
	if c.roomID != "" {
		c.trySend(errorMessage{Type: "error", Message: "Already in a game"})
		return
	}
	if strings.TrimSpace(msg.PlayerName) == "" {
		c.trySend(errorMessage{Type: "error", Message: errEmptyName.Error()})
		return
	}

	h := gm.create()
	if err := c.join(h, msg.PlayerName, true); err != nil {
		c.trySend(errorMessage{Type: "error", Message: err.Error()})
		return
	}
	c.roomID = h.id
}

func (c *client) handleJoin(cfg *Config, gm *GameManager, msg clientMessage) {
	if c.roomID != "" {
		c.trySend(errorMessage{Type: "error", Message: "Already in a game"})
		return
	}

	h := gm.lookup(msg.RoomID)
	if h == nil {
		c.trySend(errorMessage{Type: "error", Message: "Game not found"})
		return
	}

	if err := c.join(h, msg.PlayerName, false); err != nil {
		c.trySend(errorMessage{Type: "error", Message: err.Error()})
		return
	}
	c.roomID = h.id
}

// join hands this client to the room's hub and waits for the verdict. The
// timeout only trips if the room died between lookup and delivery, in
// which case the join is treated as not-found.
func (c *client) join(h *Hub, name string, create bool) error {
	jr := joinRequest{client: c, name: name, create: create, errChan: make(chan error, 1)}

	select {
	case h.joins <- jr:
	case <-time.After(5 * time.Second):
		return errRoomGone
	}

	select {
	case err := <-jr.errChan:
		return err
	case <-time.After(5 * time.Second):
		return errRoomGone
	}
}

// qrHandler generates a PNG QR code linking straight to a room's join page.
func qrHandler(cfg *Config, gm *GameManager, path string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		roomID := ps.ByName("roomid")
		if gm.lookup(roomID) == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + path + "?room=" + strings.ToUpper(roomID)

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// ---- Static client ----

//go:embed assets/sketch/index.html
var sketchHTML []byte

//go:embed assets/sketch/app.css
var sketchCSS []byte

//go:embed assets/sketch/app.js
var sketchJS []byte

func staticHandler(cfg *Config, data []byte, contentType string, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, err := w.Write(data)
		if err != nil {
			errs <- err

			return
		}
	}
}

// registerSketchGame sets up routes so that:
//   - $path            → HTML client
//   - $path/ws         → shared websocket endpoint
//   - $path/qr/:roomid → PNG QR code linking to the room's join page
func registerSketchGame(cfg *Config, path string, mux *httprouter.Router, errs chan<- error) {
	gm := newGameManager(cfg)

	mux.GET(cfg.prefix+path, staticHandler(cfg, sketchHTML, "text/html; charset=utf-8", errs))

	mux.GET(cfg.prefix+"/assets/sketch/app.css", staticHandler(cfg, sketchCSS, "text/css; charset=utf-8", errs))
	mux.GET(cfg.prefix+"/assets/sketch/app.js", staticHandler(cfg, sketchJS, "text/javascript; charset=utf-8", errs))

	mux.GET(cfg.prefix+path+"/ws", serveSketchWS(cfg, gm))

	mux.GET(cfg.prefix+path+"/qr/:roomid", qrHandler(cfg, gm, path))
}
