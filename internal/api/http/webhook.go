package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/oshokin/lost-alarm/internal/channel/whatsapp"
	"github.com/oshokin/lost-alarm/internal/logger"
)

// handleWebhookVerify answers Meta's subscription handshake.
func (h *handler) handleWebhookVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	challenge, ok := whatsapp.VerifyChallenge(
		q.Get("hub.mode"),
		q.Get("hub.verify_token"),
		q.Get("hub.challenge"),
		h.opts.Webhook.VerifyToken,
	)
	if !ok {
		logger.Warn(r.Context(), "WhatsApp webhook verification failed")
		http.Error(w, "Verificación fallida", http.StatusForbidden)

		return
	}

	logger.Info(r.Context(), "WhatsApp webhook verified")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, challenge)
}

// handleWebhook acknowledges the delivery, then routes inbound WhatsApp
// messages to the command handler. Meta redelivers unacknowledged webhooks,
// so replies are sent after the response.
func (h *handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Error al procesar webhook", err)
		return
	}

	msgs, statuses, err := whatsapp.ParseWebhook(body)

	switch {
	case errors.Is(err, whatsapp.ErrUnknownObject):
		writeError(w, http.StatusBadRequest, "Objeto no reconocido", nil)
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, "Error al procesar webhook", err)
		return
	}

	logger.DebugKV(ctx, "WhatsApp webhook received", "messages", len(msgs), "statuses", statuses)

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	if len(msgs) == 0 {
		return
	}

	replyCtx := context.WithoutCancel(ctx)

	h.replies.Go(func() {
		h.opts.Webhook.Responder.Respond(replyCtx, msgs, h.opts.Webhook.Handler)
	})
}
