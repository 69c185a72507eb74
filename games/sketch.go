// Package games holds design notes for each game sketchroom serves.
//
// Sketch: one player draws, everyone else guesses.
//
// How to play
// - A player creates a room and shares its six-character code (or the QR link)
// - Friends join with the code; the creator starts the game once two or more are in
// - Each round one player is the drawer and sees the target word; the rest guess in chat
// - A correct guess scores 100 points plus one per second left in the round
// - The round ends when time runs out or everyone has guessed, after a short grace pause
// - The drawer rotates through players in join order; after the last round, high score wins
//
// Implementation details:
// - One websocket per player; every action carries the room code
// - One goroutine per room serializes all game state changes
// - Guessers never receive the target word in snapshots, only the drawer does
package games
