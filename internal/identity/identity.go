// Package identity generates connection identifiers.
package identity

import (
	"math/rand/v2"
	"strconv"
	"sync/atomic"
)

const (
	prefix    = "5"
	randomMax = 100
)

var processGenerator = New()

// NextID returns the next identifier from the process-wide generator, whose
// counter is never reset while the process runs.
func NextID() string {
	return processGenerator.NextID()
}

// Generator produces identifiers of the form "5" + two random digits + a
// counter. The counter makes every identifier unique for the lifetime of the
// generator; the random digits only make neighbouring ids harder to guess.
type Generator struct {
	counter atomic.Uint64
	intN    func(n int) int
}

// New returns a Generator whose counter starts at zero.
func New() *Generator {
	return &Generator{intN: rand.IntN}
}

// NextID returns the next identifier. It is safe for concurrent use.
func (g *Generator) NextID() string {
	n := g.counter.Add(1) - 1

	r := g.intN(randomMax)
	buf := make([]byte, 0, 24)
	buf = append(buf, prefix...)
	if r < 10 {
		buf = append(buf, '0')
	}
	buf = strconv.AppendInt(buf, int64(r), 10)
	buf = strconv.AppendUint(buf, n, 10)
	return string(buf)
}
