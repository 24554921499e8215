package game

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
)

// Fixed salt mixed into the seed derivation so the draw stream is
// decoupled from any other use of the session seed (e.g. the chain genesis).
const drawSourceSalt = "lab-draw-v1"

// DrawSink receives every draw the moment it happens, in emission order.
// The hash chain builder is the intended sink.
type DrawSink func(context string, value float64)

// DrawSource is a deterministic, context-labeled random source for one
// game session. Same seed + same ordered sequence of context labels =>
// same values, on every platform and every run.
//
// One DrawSource per session, owned by the session and passed through
// the call chain. Never share one across sessions.
type DrawSource struct {
	rng   *rand.Rand
	seed  string
	turn  int
	draws []DrawRecord
	sink  DrawSink
}

// NewDrawSource creates a draw source seeded from the session seed.
func NewDrawSource(seed string) *DrawSource {
	hash := sha256.Sum256([]byte(seed + "|" + drawSourceSalt))
	seedInt := int64(binary.BigEndian.Uint64(hash[:8]))
	return &DrawSource{
		rng:  rand.New(rand.NewSource(seedInt)),
		seed: seed,
	}
}

// SetSink registers a callback invoked on every draw. Draws made before
// the sink is set are only kept in the draw log.
func (d *DrawSource) SetSink(sink DrawSink) {
	d.sink = sink
}

// SetTurn updates the turn number stamped on subsequent draw records.
func (d *DrawSource) SetTurn(turn int) {
	d.turn = turn
}

// Draw returns a value in [0, 1) for the given context label. The label
// is folded into the value, so two call sites with different labels get
// independent streams from the same generator. A label collision between
// call sites is a design bug, not a security bug.
func (d *DrawSource) Draw(context string) float64 {
	base := d.rng.Uint64()
	ctxHash := sha256.Sum256([]byte(context))
	mixed := base ^ binary.BigEndian.Uint64(ctxHash[:8])

	// Top 53 bits -> float64 in [0, 1)
	value := float64(mixed>>11) / (1 << 53)

	d.draws = append(d.draws, DrawRecord{Context: context, Value: value, Turn: d.turn})
	if d.sink != nil {
		d.sink(context, value)
	}
	return value
}

// DrawInt returns an integer in [0, n) for the given context label.
func (d *DrawSource) DrawInt(context string, n int) int {
	if n <= 0 {
		return 0
	}
	return int(d.Draw(context) * float64(n))
}

// DrawWeighted picks an index according to the given weights.
// Zero or negative total weight falls back to index 0.
func (d *DrawSource) DrawWeighted(context string, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}

	target := d.Draw(context) * total
	acc := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		acc += w
		if target < acc {
			return i
		}
	}
	return len(weights) - 1
}

// Draws returns the full draw log in emission order.
func (d *DrawSource) Draws() []DrawRecord {
	return d.draws
}
