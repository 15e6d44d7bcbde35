package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/intake/dialog"
	"github.com/Rrens/order-intake/internal/intake/reply"
	"github.com/Rrens/order-intake/internal/intake/session"
	"github.com/Rrens/order-intake/internal/security"
)

const busyReplyTimeout = 5 * time.Second

// Dependencies are the collaborators of the intake service.
// Messages, Assistant, Audit, Limiter and Lock are optional.
type Dependencies struct {
	Machine       *dialog.Machine
	Composer      *reply.Composer
	Reconstructor *session.Reconstructor
	Sessions      domain.SessionStore
	Registrations domain.RegistrationStore
	Orders        domain.OrderService
	Sender        domain.Sender
	Messages      domain.MessageLog
	Assistant     domain.Assistant
	Audit         domain.AuditSink
	Limiter       domain.RateLimiter
	Lock          domain.CustomerLock
}

// Options tune the intake service
type Options struct {
	OrderTimeout   time.Duration
	SendTimeout    time.Duration
	MaxSaveRetries int
	ListLimit      int
}

// IntakeService handles one inbound chat message end to end
type IntakeService struct {
	deps      Dependencies
	opts      Options
	sequencer *Sequencer
	now       func() time.Time
}

// NewIntakeService creates a new intake service
func NewIntakeService(deps Dependencies, opts Options) *IntakeService {
	if opts.MaxSaveRetries < 1 {
		opts.MaxSaveRetries = 1
	}
	if opts.ListLimit < 1 {
		opts.ListLimit = 5
	}
	return &IntakeService{
		deps:      deps,
		opts:      opts,
		sequencer: NewSequencer(),
		now:       time.Now,
	}
}

// HandleEvent processes a validated webhook event and returns the reply
// that was sent. Every path yields a reply: failures of collaborators, and
// a turn that expires while queued, degrade the reply instead of failing
// the call.
func (s *IntakeService) HandleEvent(ctx context.Context, ev domain.InboundEvent) (domain.Reply, error) {
	customerID := ev.Sender.ID

	if !ev.IsText() {
		out := dialog.Fixed(domain.NewIdleSession(customerID), dialog.ReplyUnsupported)
		r := s.deps.Composer.Compose(out)
		s.send(ctx, customerID, r)
		return r, nil
	}

	if s.deps.Limiter != nil {
		allowed, err := s.deps.Limiter.Allow(ctx, customerID)
		if err != nil {
			log.Warn().Err(err).Str("customer_id", customerID).Msg("Rate limiter unavailable")
		} else if !allowed {
			out := dialog.Fixed(domain.NewIdleSession(customerID), dialog.ReplySlowDown)
			r := s.deps.Composer.Compose(out)
			s.send(ctx, customerID, r)
			return r, nil
		}
	}

	var r domain.Reply
	err := s.sequencer.Do(ctx, customerID, func() {
		r = s.turn(ctx, customerID, ev.Text(), ev.OccurredAt())
	})
	if err != nil {
		// the turn never started; tell the customer to resend instead of dropping it
		log.Warn().Err(err).Str("customer_id", customerID).Int("queued", s.sequencer.Pending(customerID)).Msg("Turn expired while queued")
		r = s.deps.Composer.Compose(dialog.Fixed(domain.NewIdleSession(customerID), dialog.ReplyBusy))
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), busyReplyTimeout)
		defer cancel()
		s.send(sctx, customerID, r)
	}
	return r, nil
}

// Drain waits for in-flight turns
func (s *IntakeService) Drain() {
	s.sequencer.Wait()
}

func (s *IntakeService) turn(ctx context.Context, customerID, text string, at time.Time) domain.Reply {
	started := s.now()

	if s.deps.Lock != nil {
		release, err := s.deps.Lock.Acquire(ctx, customerID)
		if err != nil {
			log.Error().Err(err).Str("customer_id", customerID).Str("call", "acquire_lock").Msg("Proceeding without customer lock")
		} else {
			defer release()
		}
	}

	var (
		out       dialog.Outcome
		committed bool
		turnErr   error
	)
	reg, err := s.registration(ctx, customerID)
	if err != nil {
		// without the phone the machine would treat the customer as new and
		// reset the order in progress, so nothing is computed or saved
		out = dialog.Fixed(domain.NewIdleSession(customerID), dialog.ReplyUnavailable)
		turnErr = err
	} else {
		out, committed, turnErr = s.step(ctx, customerID, text, at, reg)
		if committed {
			turnErr = s.runEffect(ctx, &out, at)
		} else {
			out.Reply = dialog.ReplyUnavailable
		}
	}

	r := s.deps.Composer.Compose(out)
	if committed {
		s.appendMessages(ctx, customerID, text, r.Text, at)
	}
	if err := s.send(ctx, customerID, r); err != nil && turnErr == nil {
		turnErr = err
	}

	log.Info().
		Str("customer_id", customerID).
		Str("intent", string(out.Intent)).
		Str("from", string(out.From)).
		Str("to", string(out.Session.State)).
		Str("effect", string(out.Effect)).
		Bool("committed", committed).
		Dur("duration", s.now().Sub(started)).
		Msg("Turn handled")

	s.record(ctx, customerID, text, out, turnErr, started)
	return r
}

// step computes the transition and commits it, recomputing from the fresh
// record on a version conflict. An uncommitted outcome must not be acted on.
func (s *IntakeService) step(ctx context.Context, customerID, text string, at time.Time, reg *domain.Registration) (dialog.Outcome, bool, error) {
	var out dialog.Outcome
	for attempt := 1; ; attempt++ {
		current := s.load(ctx, customerID, reg)
		out = s.deps.Machine.Step(current, text, at)

		err := s.deps.Sessions.Save(ctx, out.Session)
		if err == nil {
			return out, true, nil
		}
		if errors.Is(err, domain.ErrVersionConflict) && attempt < s.opts.MaxSaveRetries {
			log.Debug().Str("customer_id", customerID).Int("attempt", attempt).Msg("Session changed concurrently, recomputing")
			continue
		}
		log.Error().Err(err).Str("customer_id", customerID).Str("call", "save_session").Msg("Failed to save session")
		return out, false, fmt.Errorf("failed to save session: %w", err)
	}
}

// load returns the stored session, or rebuilds it from history when none is stored
func (s *IntakeService) load(ctx context.Context, customerID string, reg *domain.Registration) *domain.ConversationSession {
	current, err := s.deps.Sessions.Load(ctx, customerID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Error().Err(err).Str("customer_id", customerID).Str("call", "load_session").Msg("Failed to load session, rebuilding from history")
		}
		current = s.deps.Reconstructor.Reconstruct(ctx, customerID, reg)
		current.Version = 0
	}

	current.CustomerID = customerID
	if reg != nil {
		current.CustomerPhone = reg.Phone
	}
	return current
}

// registration returns nil for an unregistered customer and an error only
// when the store could not answer
func (s *IntakeService) registration(ctx context.Context, customerID string) (*domain.Registration, error) {
	reg, err := s.deps.Registrations.Get(ctx, customerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Str("call", "get_registration").Msg("Failed to get registration")
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}
	return reg, nil
}

// runEffect performs the side effect of a committed outcome and fills its
// result fields
func (s *IntakeService) runEffect(ctx context.Context, out *dialog.Outcome, at time.Time) error {
	customerID := out.Session.CustomerID
	phone := out.Session.CustomerPhone

	switch out.Effect {
	case dialog.EffectRegister:
		reg := &domain.Registration{CustomerID: customerID, Phone: out.Phone, RegisteredAt: at, UpdatedAt: s.now().UTC()}
		if err := s.deps.Registrations.Save(ctx, reg); err != nil {
			log.Error().Err(err).Str("customer_id", customerID).Str("call", "save_registration").Msg("Failed to save registration")
			out.Reply = dialog.ReplyRegisterFailed
			return err
		}
		log.Info().Str("customer_id", customerID).Str("phone", security.MaskPhone(out.Phone)).Msg("Customer registered")

	case dialog.EffectCreateOrder:
		octx, cancel := s.timeout(ctx, s.opts.OrderTimeout)
		defer cancel()
		result, err := s.deps.Orders.CreateOrder(octx, *out.Order)
		if err != nil {
			log.Error().Err(err).Str("customer_id", customerID).Str("call", "create_order").Msg("Failed to create order")
			out.Reply = dialog.ReplyOrderFailed
			return err
		}
		out.Created = result

	case dialog.EffectTrackOrder:
		octx, cancel := s.timeout(ctx, s.opts.OrderTimeout)
		defer cancel()
		summary, err := s.deps.Orders.TrackOrder(octx, phone, out.OrderCode)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			out.Reply = dialog.ReplyOrderNotFound
		case err != nil:
			log.Error().Err(err).Str("customer_id", customerID).Str("call", "track_order").Msg("Failed to track order")
			out.Reply = dialog.ReplyLookupFailed
			return err
		default:
			out.Tracked = summary
		}

	case dialog.EffectListOrders:
		octx, cancel := s.timeout(ctx, s.opts.OrderTimeout)
		defer cancel()
		orders, err := s.deps.Orders.ListOrders(octx, phone, s.opts.ListLimit)
		if err != nil {
			log.Error().Err(err).Str("customer_id", customerID).Str("call", "list_orders").Msg("Failed to list orders")
			out.Reply = dialog.ReplyLookupFailed
			return err
		}
		out.Orders = orders

	case dialog.EffectAssist:
		if s.deps.Assistant == nil {
			return nil
		}
		answer, err := s.deps.Assistant.Answer(ctx, out.Question)
		if err != nil {
			log.Warn().Err(err).Str("customer_id", customerID).Str("call", "assistant").Msg("Assistant failed")
			return nil
		}
		out.Answer = answer
	}
	return nil
}

func (s *IntakeService) appendMessages(ctx context.Context, customerID, text, replyText string, at time.Time) {
	if s.deps.Messages == nil {
		return
	}
	msgs := []*domain.HistoryMessage{
		{CustomerID: customerID, Text: text, IsFromCustomer: true, Timestamp: at},
		{CustomerID: customerID, Text: replyText, IsFromCustomer: false, Timestamp: s.now().UTC()},
	}
	for _, m := range msgs {
		if err := s.deps.Messages.Append(ctx, m); err != nil {
			log.Error().Err(err).Str("customer_id", customerID).Str("call", "append_message").Msg("Failed to append message")
			return
		}
	}
}

func (s *IntakeService) send(ctx context.Context, customerID string, r domain.Reply) error {
	sctx, cancel := s.timeout(ctx, s.opts.SendTimeout)
	defer cancel()
	if err := s.deps.Sender.Send(sctx, customerID, r); err != nil {
		log.Error().Err(err).Str("customer_id", customerID).Str("call", "send").Msg("Failed to send reply")
		return err
	}
	return nil
}

func (s *IntakeService) record(ctx context.Context, customerID, text string, out dialog.Outcome, turnErr error, started time.Time) {
	if s.deps.Audit == nil {
		return
	}
	if out.Phone != "" {
		text = strings.ReplaceAll(text, out.Phone, security.MaskPhone(out.Phone))
	}
	entry := &domain.TurnAudit{
		CustomerID: customerID,
		Text:       text,
		Intent:     string(out.Intent),
		FromState:  out.From,
		ToState:    out.Session.State,
		Effect:     string(out.Effect),
		DurationMs: s.now().Sub(started).Milliseconds(),
		CreatedAt:  started.UTC(),
	}
	if turnErr != nil {
		entry.Error = turnErr.Error()
	}
	if err := s.deps.Audit.Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("customer_id", customerID).Msg("Failed to record turn")
	}
}

func (s *IntakeService) timeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
