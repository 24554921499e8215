package game

import (
	"errors"
	"strconv"

	"labVerifyServer/config"
	"labVerifyServer/crypto"
)

// Event types recorded on the chain
const (
	EventAction  = "action"
	EventTrigger = "event"
	EventRNGDraw = "rng"
	EventTurnEnd = "turn"
)

var ErrChainFinalized = errors.New("chain: record after finalize")

// HashChain is the running cumulative hash for one game session.
//
// Genesis is H(seed|version); every Record chains the previous hash into
// the next one, so altering any single recorded event changes every
// subsequent hash. Exclusively owned by one session: calls must be
// serialized in the exact order events occurred — out-of-order records
// produce a wrong but not obviously invalid hash.
type HashChain struct {
	seed       string
	version    string
	current    string
	eventCount int
	finalized  bool
}

// NewHashChain starts a chain with current = H(seed|version).
func NewHashChain(seed, version string) *HashChain {
	return &HashChain{
		seed:    seed,
		version: version,
		current: crypto.HashHex(seed + "|" + version),
	}
}

// NewSessionChain starts a chain with the protocol's current version.
func NewSessionChain(seed string) *HashChain {
	return NewHashChain(seed, config.ChainVersion)
}

// Record folds one event into the chain. Exactly once per logical
// event, in the exact order events occurred.
func (c *HashChain) Record(eventType, payload string) error {
	if c.finalized {
		return ErrChainFinalized
	}
	c.current = crypto.HashHex(c.current + "|" + eventType + "|" + payload)
	c.eventCount++
	return nil
}

// RecordAction records a player action with its canonical snapshot.
func (c *HashChain) RecordAction(snapshot string) error {
	return c.Record(EventAction, snapshot)
}

// RecordEvent records a triggered game event with its canonical snapshot.
func (c *HashChain) RecordEvent(snapshot string) error {
	return c.Record(EventTrigger, snapshot)
}

// RecordRNGDraw records a single RNG draw as its (context, value) pair.
func (c *HashChain) RecordRNGDraw(context string, value float64) error {
	return c.Record(EventRNGDraw, context+":"+strconv.FormatFloat(value, 'f', -1, 64))
}

// RecordTurnEnd records a turn boundary with the end-of-turn snapshot.
func (c *HashChain) RecordTurnEnd(snapshot string) error {
	return c.Record(EventTurnEnd, snapshot)
}

// Finalize freezes the chain and returns the final hash. Safe to call
// more than once; records after the first call fail.
func (c *HashChain) Finalize() string {
	c.finalized = true
	return c.current
}

// Current returns the running hash without freezing the chain.
func (c *HashChain) Current() string {
	return c.current
}

// EventCount returns how many events have been recorded.
func (c *HashChain) EventCount() int {
	return c.eventCount
}

// Seed returns the session seed the chain was initialized with.
func (c *HashChain) Seed() string {
	return c.seed
}
