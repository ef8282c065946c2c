package advice

import (
	"math/rand"
	"sync"
	"sync/atomic"
)

// FallbackAdvice is the pool of pre-approved generic sentences used when a
// candidate cannot be verified.
var FallbackAdvice = []string{
	"A balanced meal with lean protein, whole grains, and vegetables is recommended.",
	"Include a variety of colorful vegetables to cover a wide range of vitamins and minerals.",
	"Pair carbohydrates with a source of protein and fiber to keep energy levels steady.",
	"Stay hydrated with water throughout the day and limit sugary drinks.",
	"Choose minimally processed foods and watch portion sizes for sustainable progress.",
}

// DefaultRecommendations replace a missing or malformed recommendation list
var DefaultRecommendations = []string{
	"Try adding a portion of vegetables to increase fiber and micronutrients.",
	"Consider a lean protein source to support satiety and muscle maintenance.",
}

// DefaultPositiveFeedback replaces a missing or unusable feedback sentence
const DefaultPositiveFeedback = "Thanks for logging your meal, tracking what you eat is a great habit."

// NutritionistConsultAdvice replaces advice rejected by the quick filter
const NutritionistConsultAdvice = "Please consult a registered dietitian or nutritionist for personalized dietary guidance."

// FallbackPicker selects one entry from a pool
type FallbackPicker interface {
	Pick(pool []string) string
}

// RoundRobinPicker cycles through the pool. Safe for concurrent use.
type RoundRobinPicker struct {
	next atomic.Uint64
}

// NewRoundRobinPicker creates a picker starting at the first entry
func NewRoundRobinPicker() *RoundRobinPicker {
	return &RoundRobinPicker{}
}

// Pick returns the next entry
func (p *RoundRobinPicker) Pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	i := p.next.Add(1) - 1
	return pool[i%uint64(len(pool))]
}

// RandomPicker chooses uniformly using an injectable source
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker creates a picker seeded for reproducibility
func NewRandomPicker(seed int64) *RandomPicker {
	return &RandomPicker{rng: rand.New(rand.NewSource(seed))}
}

// Pick returns a random entry
func (p *RandomPicker) Pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return pool[p.rng.Intn(len(pool))]
}

// NewFallbackPicker builds a picker by strategy name, defaulting to round robin
func NewFallbackPicker(strategy string, seed int64) FallbackPicker {
	if strategy == "random" {
		return NewRandomPicker(seed)
	}
	return NewRoundRobinPicker()
}
