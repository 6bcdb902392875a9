package certificates

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	codeMin = 1000
	codeMax = 9999
)

// RandomSource draws an integer uniformly from [min, max].
type RandomSource interface {
	IntInRange(min, max int) int
}

type mathRandSource struct{}

// NewRandomSource returns the default process-wide random source
func NewRandomSource() RandomSource {
	return mathRandSource{}
}

func (mathRandSource) IntInRange(min, max int) int {
	return min + rand.Intn(max-min+1)
}

// CodeGenerator produces verification codes of the form PREFIX-YYYY-NNNN.
// Codes are not registered anywhere, so collisions across sessions are possible.
type CodeGenerator struct {
	prefix string
	random RandomSource
	now    func() time.Time
}

// NewCodeGenerator creates a code generator
func NewCodeGenerator(prefix string, random RandomSource, now func() time.Time) *CodeGenerator {
	if random == nil {
		random = NewRandomSource()
	}
	if now == nil {
		now = time.Now
	}
	return &CodeGenerator{prefix: prefix, random: random, now: now}
}

// Generate draws a new code for the current year
func (g *CodeGenerator) Generate() string {
	return fmt.Sprintf("%s-%d-%d", g.prefix, g.now().Year(), g.random.IntInRange(codeMin, codeMax))
}
