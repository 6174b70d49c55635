package telegram

import (
	"fmt"
	"html"

	"github.com/oshokin/lost-alarm/internal/domain/alert"
)

// Compose renders r as a Telegram HTML message.
func (b *Bot) Compose(r *alert.Report) string {
	return Compose(r)
}

// Compose renders r as a Telegram HTML message. User input is escaped.
func Compose(r *alert.Report) string {
	url := html.EscapeString(r.Location.MapsURL())

	return fmt.Sprintf(
		"🔴 <b>%s</b> 🔴\n\n"+
			"<b>Nombre:</b> %s\n"+
			"<b>Teléfono:</b> %s\n"+
			"<b>Ubicación:</b> %s\n"+
			"<b>Ver en Google Maps:</b> <a href=\"%s\">%s</a>\n\n"+
			"%s",
		alert.Headline,
		html.EscapeString(r.Name),
		html.EscapeString(r.Phone),
		r.Location.String(),
		url, url,
		alert.CallToAction,
	)
}
