package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oshokin/lost-alarm/internal/channel"
	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/domain/alert"
	"github.com/oshokin/lost-alarm/internal/logger"
	"github.com/oshokin/lost-alarm/internal/version"
)

// maxErrorBody caps how much of a failed response ends up in the error.
const maxErrorBody = 4 << 10

var (
	errMissingCredentials = errors.New("whatsapp api url, phone number id and access token are required")
	errUnexpectedStatus   = errors.New("unexpected whatsapp api status")
)

// Client sends text messages through the Cloud API.
type Client struct {
	// messagesURL is {api_url}/{phone_number_id}/messages.
	messagesURL string
	// accessToken is sent as a bearer token.
	accessToken string
	// http performs the requests.
	http *http.Client
}

var _ channel.Backend = (*Client)(nil)

// textMessage is the Cloud API request body for a text message.
type textMessage struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		Body string `json:"body"`
	} `json:"text"`
}

// New validates cfg and builds a client. A nil client gets one with cfg.Timeout.
func New(cfg config.WhatsApp, client *http.Client) (*Client, error) {
	if cfg.APIURL == "" || cfg.PhoneNumberID == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("%w: %w", alert.ErrBackendInit, errMissingCredentials)
	}

	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		messagesURL: strings.TrimRight(cfg.APIURL, "/") + "/" + cfg.PhoneNumberID + "/messages",
		accessToken: cfg.AccessToken,
		http:        client,
	}, nil
}

// Name implements channel.Backend.
func (c *Client) Name() string {
	return channel.WhatsApp
}

// Send posts a text message to the phone number in recipient.
func (c *Client) Send(ctx context.Context, recipient, text string) error {
	msg := textMessage{
		MessagingProduct: "whatsapp",
		To:               recipient,
		Type:             "text",
	}
	msg.Text.Body = text

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode whatsapp message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send whatsapp request: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return fmt.Errorf("%w: %s: %s", errUnexpectedStatus, resp.Status, bytes.TrimSpace(details))
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// Respond answers inbound messages through handler, one reply per message.
// Failures are logged; the webhook must still be acknowledged.
func (c *Client) Respond(ctx context.Context, msgs []channel.Message, handler channel.InboundHandler) {
	for _, msg := range msgs {
		msgCtx := logger.WithKV(ctx, "from", msg.From)

		reply := handler.Reply(msgCtx, msg)
		if reply == "" {
			continue
		}

		if err := c.Send(msgCtx, msg.From, reply); err != nil {
			logger.ErrorKV(msgCtx, "Failed to reply on WhatsApp", "error", err)
		}
	}
}
