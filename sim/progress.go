package sim

import (
	"log"
)

// Progress receives coarse progress events from long-running operations.
// Implementations must be safe for concurrent use: the parallel loader
// and the projection engine call Step from multiple goroutines. Nothing
// in the toolkit depends on a Progress sink for correctness.
type Progress interface {
	Step(stage string, done, total int)
}

type nullProgress struct{}

func (nullProgress) Step(string, int, int) {}

// NullProgress returns a sink that discards every event. It is the
// default wherever a Progress option is left unset.
func NullProgress() Progress { return nullProgress{} }

// LogProgress writes every Every-th event (and the final one) to the
// standard logger.
type LogProgress struct {
	Every int
}

func (p LogProgress) Step(stage string, done, total int) {
	every := p.Every
	if every < 1 {
		every = 25
	}
	if done%every == 0 || done == total {
		log.Printf("%s: %d/%d", stage, done, total)
	}
}
