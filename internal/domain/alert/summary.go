package alert

import (
	"fmt"
	"time"
)

// Outcome is the result of one delivery attempt.
type Outcome struct {
	// Recipient is the backend-specific identifier.
	Recipient string
	// Err is nil on success.
	Err error
	// Duration is how long the attempt took.
	Duration time.Duration
}

// OK reports whether the delivery succeeded.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// Summary aggregates the outcomes of one broadcast.
type Summary struct {
	// ID correlates log lines of one broadcast.
	ID string
	// Channel is the backend name.
	Channel string
	// Outcomes holds one entry per recipient, administrator first.
	Outcomes []Outcome
}

// Total is the number of recipients attempted.
func (s *Summary) Total() int {
	return len(s.Outcomes)
}

// Delivered counts successful outcomes.
func (s *Summary) Delivered() int {
	n := 0

	for _, o := range s.Outcomes {
		if o.OK() {
			n++
		}
	}

	return n
}

// Failed returns the unsuccessful outcomes.
func (s *Summary) Failed() []Outcome {
	var failed []Outcome

	for _, o := range s.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}

	return failed
}

// String renders "N of M delivered".
func (s *Summary) String() string {
	return fmt.Sprintf("%d of %d delivered", s.Delivered(), s.Total())
}
