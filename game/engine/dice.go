package engine

import (
	"math/rand/v2"
	"sync"
)

// Dice produces rolls of two six-sided dice
type Dice interface {
	Roll() Roll
}

// RandomDice draws two independent uniform values in [1, 6]
type RandomDice struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomDice seeds a dice source from the runtime's entropy
func NewRandomDice() *RandomDice {
	return &RandomDice{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededDice returns a reproducible dice source
func NewSeededDice(seed1, seed2 uint64) *RandomDice {
	return &RandomDice{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (d *RandomDice) Roll() Roll {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Roll{Die1: d.rng.IntN(DieFaces) + 1, Die2: d.rng.IntN(DieFaces) + 1}
}

// SequenceDice replays a fixed list of rolls, cycling when exhausted
type SequenceDice struct {
	mu    sync.Mutex
	rolls []Roll
	next  int
}

// NewSequenceDice returns dice that yield rolls in order
func NewSequenceDice(rolls ...Roll) *SequenceDice {
	return &SequenceDice{rolls: rolls}
}

func (d *SequenceDice) Roll() Roll {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rolls) == 0 {
		return Roll{Die1: 1, Die2: 2}
	}
	r := d.rolls[d.next%len(d.rolls)]
	d.next++
	return r
}

// Push appends rolls to the sequence
func (d *SequenceDice) Push(rolls ...Roll) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rolls = append(d.rolls, rolls...)
}
