package zalo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/Rrens/order-intake/internal/domain"
)

// platform button types
const (
	buttonQuery = "oa.query.show"
	buttonPhone = "oa.open.phone"
)

type recipient struct {
	UserID string `json:"user_id"`
}

type csButton struct {
	Title   string `json:"title"`
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type csAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		Buttons []csButton `json:"buttons"`
	} `json:"payload"`
}

type csMessage struct {
	Text       string        `json:"text"`
	Attachment *csAttachment `json:"attachment,omitempty"`
}

type csRequest struct {
	Recipient recipient `json:"recipient"`
	Message   csMessage `json:"message"`
}

func toCSMessage(reply domain.Reply) csMessage {
	msg := csMessage{Text: reply.Text}
	if len(reply.Buttons) == 0 {
		return msg
	}

	att := &csAttachment{Type: "template"}
	for _, b := range reply.Buttons {
		btn := csButton{Title: b.Label, Type: buttonQuery, Payload: b.Payload}
		if b.ActionType == domain.ActionDialPhone {
			btn.Type = buttonPhone
			btn.Payload = map[string]string{"phone_code": b.Payload}
		}
		att.Payload.Buttons = append(att.Payload.Buttons, btn)
	}
	msg.Attachment = att
	return msg
}

// Send delivers a customer-service message with optional buttons
func (c *Client) Send(ctx context.Context, customerID string, reply domain.Reply) error {
	body, err := json.Marshal(csRequest{
		Recipient: recipient{UserID: customerID},
		Message:   toCSMessage(reply),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	_, err = c.call(ctx, func(ctx context.Context, token string) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+"/v3.0/oa/message/cs", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("access_token", token)
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// conversationMessage is one entry of the OA conversation listing
type conversationMessage struct {
	MessageID string `json:"message_id"`
	Src       int    `json:"src"`
	Time      int64  `json:"time"`
	Type      string `json:"type"`
	Message   string `json:"message"`
}

// src values
const srcUser = 1

// FetchHistory returns the latest text messages with the customer, oldest first
func (c *Client) FetchHistory(ctx context.Context, customerID string) ([]domain.HistoryMessage, error) {
	query, err := json.Marshal(map[string]any{"user_id": customerID, "offset": 0, "count": c.historyCount})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	data, err := c.call(ctx, func(ctx context.Context, token string) (*http.Request, error) {
		u := c.apiBase + "/v2.0/oa/conversation?data=" + url.QueryEscape(string(query))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("access_token", token)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch conversation: %w", err)
	}

	var entries []conversationMessage
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
	}

	history := make([]domain.HistoryMessage, 0, len(entries))
	for _, e := range entries {
		if e.Type != "" && e.Type != "text" {
			continue
		}
		history = append(history, domain.HistoryMessage{
			ID:             e.MessageID,
			CustomerID:     customerID,
			Text:           e.Message,
			IsFromCustomer: e.Src == srcUser,
			Timestamp:      time.UnixMilli(e.Time).UTC(),
		})
	}

	// the API lists newest first
	slices.Reverse(history)
	return history, nil
}
