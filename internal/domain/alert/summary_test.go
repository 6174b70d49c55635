package alert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSummary aggregates mixed outcomes.
func TestSummary(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	s := &Summary{
		Channel: "telegram",
		Outcomes: []Outcome{
			{Recipient: "1"},
			{Recipient: "2", Err: &DeliveryError{Recipient: "2", Err: boom}},
			{Recipient: "3"},
		},
	}

	require.Equal(t, 3, s.Total())
	require.Equal(t, 2, s.Delivered())
	require.Len(t, s.Failed(), 1)
	require.Equal(t, "2 of 3 delivered", s.String())

	err := s.Failed()[0].Err
	require.ErrorIs(t, err, ErrDelivery)
	require.ErrorIs(t, err, boom)
}
