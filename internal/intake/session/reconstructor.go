// Package session rebuilds a customer's dialog position from chat history.
package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/intake/dialog"
	"github.com/Rrens/order-intake/internal/intake/intent"
)

// Reconstructor recomputes sessions from a history provider
type Reconstructor struct {
	machine *dialog.Machine
	history domain.HistoryProvider
	timeout time.Duration
}

// NewReconstructor creates a reconstructor
func NewReconstructor(machine *dialog.Machine, history domain.HistoryProvider, timeout time.Duration) *Reconstructor {
	return &Reconstructor{
		machine: machine,
		history: history,
		timeout: timeout,
	}
}

// Reconstruct fetches the customer's history and replays it. It never
// fails: a history error or an empty history yields an idle session.
func (r *Reconstructor) Reconstruct(ctx context.Context, customerID string, reg *domain.Registration) *domain.ConversationSession {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	history, err := r.history.FetchHistory(ctx, customerID)
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Str("call", "fetch_history").Msg("Failed to fetch history, starting idle")
		return idle(customerID)
	}
	if len(history) == 0 {
		log.Debug().Str("customer_id", customerID).Msg("No history, starting idle")
		return idle(customerID)
	}

	return Replay(r.machine, customerID, history, reg)
}

// Bounds locates the current session in history (oldest first). It
// returns the index of the latest start marker and whether the session
// is still open, i.e. no end marker follows it.
func Bounds(m *dialog.Machine, history []domain.HistoryMessage) (start int, active bool) {
	start, end := -1, -1
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if !msg.IsFromCustomer {
			continue
		}
		switch m.Classify(msg.Text) {
		case intent.EndSession:
			if end == -1 {
				end = i
			}
		case intent.StartSession:
			start = i
		}
		if start != -1 {
			break
		}
	}
	return start, start != -1 && end == -1
}

// Replay derives the session by feeding the open session's customer
// messages through the dialog machine. Effects are not executed. The
// registered phone applies from its registration time onwards.
func Replay(m *dialog.Machine, customerID string, history []domain.HistoryMessage, reg *domain.Registration) *domain.ConversationSession {
	start, active := Bounds(m, history)
	if !active {
		return idle(customerID)
	}

	s := idle(customerID)
	for _, msg := range history[start:] {
		if !msg.IsFromCustomer {
			continue
		}
		if reg != nil && reg.Phone != "" && !msg.Timestamp.Before(reg.RegisteredAt) {
			s.CustomerPhone = reg.Phone
		}
		s = m.Step(s, msg.Text, msg.Timestamp).Session
	}
	s.Messages = append([]domain.HistoryMessage(nil), history[start:]...)
	return s
}

func idle(customerID string) *domain.ConversationSession {
	s := domain.NewIdleSession(customerID)
	s.Messages = []domain.HistoryMessage{}
	return s
}
