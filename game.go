package main

import (
	"errors"
	"sort"
	"strings"
	"time"
)

type gameState string

const (
	stateWaiting  gameState = "waiting"
	statePlaying  gameState = "playing"
	stateFinished gameState = "finished"
)

var (
	errEmptyName        = errors.New("player name cannot be empty")
	errAlreadyJoined    = errors.New("already in this game")
	errGameOver         = errors.New("game has already finished")
	errAlreadyStarted   = errors.New("game has already started")
	errNotEnoughPlayers = errors.New("at least two players are needed to start")
)

// gamePlayer is one roster entry. Roster order is join order and defines
// the drawer rotation.
type gamePlayer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Score     int    `json:"score"`
	IsDrawing bool   `json:"isDrawing"`
}

// gameData is the snapshot sent to clients with most events.
type gameData struct {
	RoomID        string         `json:"roomId"`
	Players       []gamePlayer   `json:"players"`
	CurrentDrawer string         `json:"currentDrawer"`
	CurrentWord   string         `json:"currentWord"`
	GameState     string         `json:"gameState"`
	Round         int            `json:"round"`
	MaxRounds     int            `json:"maxRounds"`
	TimeLeft      int            `json:"timeLeft"`
	Scores        map[string]int `json:"scores"`
	GuessedWords  []string       `json:"guessedWords"`
}

type guessResult struct {
	correct    bool
	award      int
	timeBonus  int
	allGuessed bool
}

// Game holds the complete state of one room. It is only ever touched from
// the owning hub goroutine, so it carries no locks.
type Game struct {
	roomID        string
	hostID        string
	players       []*gamePlayer
	state         gameState
	round         int
	maxRounds     int
	currentDrawer string
	currentWord   string
	guessedBy     map[string]bool
	roundDeadline time.Time
	roundDuration time.Duration
	words         *wordBank
}

func newGame(roomID string, maxRounds int, roundDuration time.Duration, words *wordBank) *Game {
	return &Game{
		roomID:        roomID,
		state:         stateWaiting,
		maxRounds:     maxRounds,
		roundDuration: roundDuration,
		guessedBy:     make(map[string]bool),
		words:         words,
	}
}

func (g *Game) player(id string) *gamePlayer {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// addPlayer appends a new roster entry. Late joiners are allowed while the
// game is playing; they guess immediately but only enter the drawer
// rotation on a later round advance.
func (g *Game) addPlayer(id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errEmptyName
	}
	if g.state == stateFinished {
		return errGameOver
	}
	if g.player(id) != nil {
		return errAlreadyJoined
	}

	g.players = append(g.players, &gamePlayer{ID: id, Name: name})

	return nil
}

// removePlayer drops the player from the roster and the guess ledger. An
// emptied roster resets the game so the registry can discard it; a departed
// drawer force-advances the round so the rest are not left waiting.
func (g *Game) removePlayer(id string, now time.Time) (name string, wasDrawer bool) {
	for i, p := range g.players {
		if p.ID != id {
			continue
		}
		name = p.Name
		g.players = append(g.players[:i], g.players[i+1:]...)
		delete(g.guessedBy, id)
		break
	}
	if name == "" {
		return "", false
	}

	if len(g.players) == 0 {
		g.state = stateWaiting
		g.currentDrawer = ""
		g.currentWord = ""
		g.roundDeadline = time.Time{}

		return name, false
	}

	if g.state == statePlaying && g.currentDrawer == id {
		g.advanceRound(now)

		return name, true
	}

	return name, false
}

func (g *Game) start(now time.Time) error {
	if g.state != stateWaiting {
		return errAlreadyStarted
	}
	if len(g.players) < 2 {
		return errNotEnoughPlayers
	}

	g.state = statePlaying
	g.round = 0
	g.advanceRound(now)

	return nil
}

// advanceRound is the single place the drawer, word, and round counter
// change. Advancing past the final round finishes the game.
func (g *Game) advanceRound(now time.Time) {
	if g.round >= g.maxRounds {
		g.state = stateFinished
		g.currentDrawer = ""
		g.currentWord = ""
		g.roundDeadline = time.Time{}
		for _, p := range g.players {
			p.IsDrawing = false
		}

		return
	}

	previous := g.currentDrawer
	g.round++
	g.currentWord = g.words.pick()
	g.guessedBy = make(map[string]bool)
	g.roundDeadline = now.Add(g.roundDuration)

	// Next drawer is the roster entry after the previous one, wrapping
	// around. A missing previous drawer (first round, or the drawer just
	// left) selects the first entry.
	next := 0
	if previous != "" {
		for i, p := range g.players {
			if p.ID == previous {
				next = (i + 1) % len(g.players)
				break
			}
		}
	}
	g.currentDrawer = g.players[next].ID
	for _, p := range g.players {
		p.IsDrawing = p.ID == g.currentDrawer
	}
}

// guess compares a normalized guess against the target word. Correct first
// guesses award 100 points plus one per second remaining; repeats and
// mismatches change nothing.
func (g *Game) guess(playerID, text string, now time.Time) guessResult {
	if g.state != statePlaying || playerID == g.currentDrawer {
		return guessResult{}
	}
	p := g.player(playerID)
	if p == nil || g.guessedBy[playerID] {
		return guessResult{}
	}
	if !strings.EqualFold(strings.TrimSpace(text), strings.TrimSpace(g.currentWord)) {
		return guessResult{}
	}

	bonus := g.timeLeft(now)
	award := 100 + bonus
	g.guessedBy[playerID] = true
	p.Score += award

	return guessResult{
		correct:    true,
		award:      award,
		timeBonus:  bonus,
		allGuessed: len(g.guessedBy) >= len(g.players)-1,
	}
}

func (g *Game) timeLeft(now time.Time) int {
	if g.state != statePlaying {
		return 0
	}
	left := int(g.roundDeadline.Sub(now).Seconds())
	if left < 0 {
		left = 0
	}
	return left
}

// snapshotFor renders the game for one recipient. The target word is
// blanked unless the viewer is the current drawer or the game is over, so
// guessers never see the answer.
func (g *Game) snapshotFor(viewerID string, now time.Time) gameData {
	players := make([]gamePlayer, 0, len(g.players))
	scores := make(map[string]int, len(g.players))
	for _, p := range g.players {
		players = append(players, *p)
		scores[p.ID] = p.Score
	}

	guessed := make([]string, 0, len(g.guessedBy))
	for id := range g.guessedBy {
		guessed = append(guessed, id)
	}
	sort.Strings(guessed)

	word := g.currentWord
	if viewerID != g.currentDrawer && g.state != stateFinished {
		word = ""
	}

	return gameData{
		RoomID:        g.roomID,
		Players:       players,
		CurrentDrawer: g.currentDrawer,
		CurrentWord:   word,
		GameState:     string(g.state),
		Round:         g.round,
		MaxRounds:     g.maxRounds,
		TimeLeft:      g.timeLeft(now),
		Scores:        scores,
		GuessedWords:  guessed,
	}
}
