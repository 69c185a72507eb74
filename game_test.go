package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGame(t *testing.T, names ...string) (*Game, []string) {
	t.Helper()

	g := newGame("ROOM01", 3, time.Minute, newWordBank())
	ids := make([]string, 0, len(names))
	for i, name := range names {
		id := string(rune('a'+i)) + "-conn"
		require.NoError(t, g.addPlayer(id, name))
		ids = append(ids, id)
	}
	return g, ids
}

func TestAddPlayerValidation(t *testing.T) {
	g := newGame("ROOM01", 3, time.Minute, newWordBank())

	require.ErrorIs(t, g.addPlayer("a", ""), errEmptyName)
	require.ErrorIs(t, g.addPlayer("a", "   "), errEmptyName)

	require.NoError(t, g.addPlayer("a", "  alice  "))
	assert.Equal(t, "alice", g.player("a").Name)

	require.ErrorIs(t, g.addPlayer("a", "alice again"), errAlreadyJoined)
	require.Len(t, g.players, 1)
}

func TestJoinOrderIsRosterOrder(t *testing.T) {
	g, ids := newTestGame(t, "alice", "bob", "carol")

	for i, p := range g.players {
		assert.Equal(t, ids[i], p.ID)
		assert.Zero(t, p.Score)
	}
}

func TestStartRequiresTwoPlayers(t *testing.T) {
	now := time.Now()

	g, _ := newTestGame(t, "alice")
	require.ErrorIs(t, g.start(now), errNotEnoughPlayers)
	assert.Equal(t, stateWaiting, g.state)

	require.NoError(t, g.addPlayer("b-conn", "bob"))
	require.NoError(t, g.start(now))

	assert.Equal(t, statePlaying, g.state)
	assert.Equal(t, 1, g.round)
	assert.Equal(t, g.players[0].ID, g.currentDrawer)
	assert.NotEmpty(t, g.currentWord)
	assert.True(t, g.players[0].IsDrawing)
	assert.False(t, g.players[1].IsDrawing)

	require.ErrorIs(t, g.start(now), errAlreadyStarted)
}

func TestGuessScoringAndIdempotence(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob")
	require.NoError(t, g.start(now))
	guesser := ids[1]

	// Wrong guess changes nothing.
	res := g.guess(guesser, "definitely not the word", now)
	assert.False(t, res.correct)
	assert.Zero(t, g.player(guesser).Score)

	// Correct guess 40 seconds into a 60 second round scores 100+20.
	res = g.guess(guesser, g.currentWord, now.Add(40*time.Second))
	require.True(t, res.correct)
	assert.Equal(t, 20, res.timeBonus)
	assert.Equal(t, 120, res.award)
	assert.Equal(t, 120, g.player(guesser).Score)
	assert.True(t, res.allGuessed)

	// Same correct guess again scores exactly once.
	res = g.guess(guesser, g.currentWord, now.Add(41*time.Second))
	assert.False(t, res.correct)
	assert.Equal(t, 120, g.player(guesser).Score)

	// The drawer can never score off their own word.
	res = g.guess(g.currentDrawer, g.currentWord, now)
	assert.False(t, res.correct)
}

func TestGuessNormalization(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob")
	require.NoError(t, g.start(now))

	res := g.guess(ids[1], "  "+upperFirst(g.currentWord)+" ", now)
	assert.True(t, res.correct)
}

func upperFirst(s string) string {
	return string(s[0]-'a'+'A') + s[1:]
}

func TestGuessAfterDeadlineScoresNoBonus(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob")
	require.NoError(t, g.start(now))

	res := g.guess(ids[1], g.currentWord, now.Add(2*time.Minute))
	require.True(t, res.correct)
	assert.Zero(t, res.timeBonus)
	assert.Equal(t, 100, res.award)
}

func TestAllGuessedOnlyWhenEveryNonDrawerScored(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob", "carol")
	require.NoError(t, g.start(now))

	res := g.guess(ids[1], g.currentWord, now)
	require.True(t, res.correct)
	assert.False(t, res.allGuessed)

	res = g.guess(ids[2], g.currentWord, now)
	require.True(t, res.correct)
	assert.True(t, res.allGuessed)
}

func TestRotationVisitsRosterInJoinOrder(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob", "carol")
	require.NoError(t, g.start(now))

	var drawers []string
	for round := 1; round <= g.maxRounds; round++ {
		assert.Equal(t, round, g.round)
		assert.Equal(t, statePlaying, g.state)
		drawers = append(drawers, g.currentDrawer)
		g.advanceRound(now)
	}

	assert.Equal(t, ids, drawers)

	assert.Equal(t, stateFinished, g.state)
	assert.Empty(t, g.currentDrawer)
	assert.Empty(t, g.currentWord)
	for _, p := range g.players {
		assert.False(t, p.IsDrawing)
	}
}

func TestFinishedGameStaysFinished(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob")
	require.NoError(t, g.start(now))
	for i := 0; i < g.maxRounds; i++ {
		g.advanceRound(now)
	}
	require.Equal(t, stateFinished, g.state)

	res := g.guess(ids[1], "anything", now)
	assert.False(t, res.correct)
	assert.Zero(t, g.timeLeft(now))

	require.ErrorIs(t, g.addPlayer("z-conn", "zoe"), errGameOver)
}

func TestDrawerLeavingForcesAdvance(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob", "carol")
	require.NoError(t, g.start(now))
	require.Equal(t, ids[0], g.currentDrawer)

	res := g.guess(ids[1], g.currentWord, now)
	require.True(t, res.correct)

	name, wasDrawer := g.removePlayer(ids[0], now)
	assert.Equal(t, "alice", name)
	assert.True(t, wasDrawer)

	assert.Equal(t, 2, g.round)
	assert.Equal(t, ids[1], g.currentDrawer)
	assert.Empty(t, g.guessedBy, "guess ledger resets on advance")
	require.Len(t, g.players, 2)
}

func TestNonDrawerLeavingKeepsRound(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob")
	require.NoError(t, g.start(now))

	name, wasDrawer := g.removePlayer(ids[1], now)
	assert.Equal(t, "bob", name)
	assert.False(t, wasDrawer)
	assert.Equal(t, 1, g.round)
	assert.Equal(t, statePlaying, g.state)

	// The lone survivor keeps drawing with nobody to guess; accepted.
	g.advanceRound(now)
	assert.Equal(t, ids[0], g.currentDrawer)
	res := g.guess(ids[0], g.currentWord, now)
	assert.False(t, res.correct)
}

func TestLastPlayerLeavingResetsGame(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob")
	require.NoError(t, g.start(now))

	g.removePlayer(ids[0], now)
	g.removePlayer(ids[1], now)

	assert.Empty(t, g.players)
	assert.Equal(t, stateWaiting, g.state)
	assert.Empty(t, g.currentDrawer)
	assert.Empty(t, g.currentWord)
}

func TestRemoveUnknownPlayerIsNoop(t *testing.T) {
	now := time.Now()

	g, _ := newTestGame(t, "alice", "bob")
	name, wasDrawer := g.removePlayer("nobody", now)
	assert.Empty(t, name)
	assert.False(t, wasDrawer)
	require.Len(t, g.players, 2)
}

func TestSnapshotWithholdsWordFromGuessers(t *testing.T) {
	now := time.Now()

	g, ids := newTestGame(t, "alice", "bob")
	require.NoError(t, g.start(now))

	drawerView := g.snapshotFor(g.currentDrawer, now)
	assert.Equal(t, g.currentWord, drawerView.CurrentWord)

	guesserView := g.snapshotFor(ids[1], now)
	assert.Empty(t, guesserView.CurrentWord)

	assert.Equal(t, "ROOM01", guesserView.RoomID)
	assert.Equal(t, string(statePlaying), guesserView.GameState)
	assert.Equal(t, g.currentDrawer, guesserView.CurrentDrawer)
	assert.Len(t, guesserView.Players, 2)
	assert.Equal(t, map[string]int{ids[0]: 0, ids[1]: 0}, guesserView.Scores)
	assert.Empty(t, guesserView.GuessedWords)

	res := g.guess(ids[1], g.currentWord, now)
	require.True(t, res.correct)
	guesserView = g.snapshotFor(ids[1], now)
	assert.Equal(t, []string{ids[1]}, guesserView.GuessedWords)
	assert.Equal(t, res.award, guesserView.Scores[ids[1]])
}
