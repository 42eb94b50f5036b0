package words

import (
	"math/rand"
	"strings"
)

// Pair is one question/answer entry as supplied by the word-list upload.
type Pair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Queue is an ordered sequence of pairs. It is immutable after creation;
// Shuffled returns a new Queue rather than permuting in place.
type Queue struct {
	pairs []Pair
}

func NewQueue(pairs []Pair) Queue {
	cp := make([]Pair, len(pairs))
	copy(cp, pairs)
	return Queue{pairs: cp}
}

func (q Queue) Len() int { return len(q.pairs) }

func (q Queue) At(i int) (Pair, bool) {
	if i < 0 || i >= len(q.pairs) {
		return Pair{}, false
	}
	return q.pairs[i], true
}

// Shuffled returns a uniform random permutation of the queue.
func (q Queue) Shuffled() Queue {
	cp := make([]Pair, len(q.pairs))
	copy(cp, q.pairs)
	rand.Shuffle(len(cp), func(i, j int) {
		cp[i], cp[j] = cp[j], cp[i]
	})
	return Queue{pairs: cp}
}

// Match reports whether a submitted answer matches the expected one.
// Comparison ignores leading/trailing whitespace and letter case.
func Match(submitted, expected string) bool {
	return strings.EqualFold(strings.TrimSpace(submitted), strings.TrimSpace(expected))
}
