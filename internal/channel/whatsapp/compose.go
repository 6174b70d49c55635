package whatsapp

import (
	"fmt"
	"strings"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
)

// markupStripper removes WhatsApp formatting characters; the platform has no escape syntax.
var markupStripper = strings.NewReplacer("*", "", "_", "", "~", "", "`", "")

// Compose renders r as a WhatsApp text message.
func (c *Client) Compose(r *alert.Report) string {
	return Compose(r)
}

// Compose renders r as a WhatsApp text message with *bold* labels.
func Compose(r *alert.Report) string {
	return fmt.Sprintf(
		"🆘 *%s* 🆘\n\n"+
			"*Nombre:* %s\n"+
			"*Teléfono:* %s\n"+
			"*Ubicación:* %s\n"+
			"*Ver en Google Maps:* %s\n\n"+
			"%s",
		alert.Headline,
		markupStripper.Replace(r.Name),
		markupStripper.Replace(r.Phone),
		r.Location.String(),
		r.Location.MapsURL(),
		alert.CallToAction,
	)
}
