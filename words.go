package main

import "math/rand"

// wordBank is the static pool of target words. Lookup only, no state.
type wordBank struct {
	words []string
}

func newWordBank() *wordBank {
	return &wordBank{words: defaultWords}
}

// pick returns a uniformly random word. Repeats across rounds are allowed.
func (b *wordBank) pick() string {
	return b.words[rand.Intn(len(b.words))]
}

var defaultWords = []string{
	"cat", "dog", "house", "tree", "car", "bird", "fish", "flower", "sun", "moon",
	"star", "book", "phone", "computer", "pizza", "hamburger", "apple", "banana",
	"elephant", "giraffe", "lion", "tiger", "bear", "wolf", "fox", "rabbit",
	"butterfly", "bee", "spider", "snake", "frog", "turtle", "dolphin", "whale",
	"shark", "octopus", "crab", "lobster", "shrimp", "salmon", "tuna", "trout",
	"eagle", "hawk", "owl", "penguin", "duck", "goose", "swan", "chicken",
	"cow", "horse", "pig", "sheep", "goat", "deer", "moose", "buffalo",
	"mountain", "river", "ocean", "lake", "beach", "forest", "desert", "snow",
	"rain", "cloud", "wind", "fire", "water", "earth", "air", "light",
	"dark", "big", "small", "fast", "slow", "hot", "cold", "happy", "sad",
}
