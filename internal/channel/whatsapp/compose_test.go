package whatsapp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
)

// TestCompose checks the bold layout and that user markup cannot leak.
func TestCompose(t *testing.T) {
	t.Parallel()

	report := &alert.Report{
		Name:       "*Ana* _la_ ~grande~",
		Phone:      "600111222",
		Location:   alert.Coordinates{Latitude: 38.5, Longitude: -0.15},
		ReceivedAt: time.Now(),
	}

	text := Compose(report)
	require.Contains(t, text, "🆘 *"+alert.Headline+"* 🆘")
	require.Contains(t, text, "*Nombre:* Ana la grande\n")
	require.Contains(t, text, "*Teléfono:* 600111222\n")
	require.Contains(t, text, "*Ubicación:* 38.500000, -0.150000\n")
	require.Contains(t, text, "https://maps.google.com/?q=38.5,-0.15")
	require.Contains(t, text, alert.CallToAction)
}
