package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/domain/alert"
)

const (
	// businessAccountObject is the only webhook object this service handles.
	businessAccountObject = "whatsapp_business_account"
	// messagesField marks changes that carry messages or statuses.
	messagesField = "messages"
	// subscribeMode is the hub.mode of a verification request.
	subscribeMode = "subscribe"
)

// ErrUnknownObject is returned for webhook payloads that are not WhatsApp Business events.
var ErrUnknownObject = errors.New("unrecognized webhook object")

// webhookPayload mirrors the parts of the Meta webhook body that are read.
type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Messages []struct {
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
				} `json:"messages"`
				Statuses []json.RawMessage `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// ParseWebhook extracts text messages and counts delivery statuses.
func ParseWebhook(body []byte) (messages []channel.Message, statuses int, err error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, 0, fmt.Errorf("decode webhook: %w", err)
	}

	if payload.Object != businessAccountObject {
		return nil, 0, ErrUnknownObject
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			if change.Field != messagesField {
				continue
			}

			statuses += len(change.Value.Statuses)

			for _, m := range change.Value.Messages {
				if m.Type != "text" || m.From == "" {
					continue
				}

				messages = append(messages, channel.Message{From: alert.CanonicalPhone(m.From), Text: m.Text.Body})
			}
		}
	}

	return messages, statuses, nil
}

// VerifyChallenge implements the webhook verification handshake.
// It returns the challenge to echo and whether the request is legitimate.
func VerifyChallenge(mode, token, challenge, expectedToken string) (string, bool) {
	if expectedToken == "" || mode != subscribeMode || token != expectedToken {
		return "", false
	}

	return challenge, true
}
