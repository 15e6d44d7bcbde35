package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/order-intake/internal/api/response"
	"github.com/Rrens/order-intake/internal/domain"
)

var validate = validator.New()

// EventHandler processes one inbound platform event
type EventHandler interface {
	HandleEvent(ctx context.Context, ev domain.InboundEvent) (domain.Reply, error)
}

// WebhookHandler receives platform webhook deliveries
type WebhookHandler struct {
	events  EventHandler
	timeout time.Duration
}

// NewWebhookHandler creates a new webhook handler. timeout bounds one
// turn independently of the inbound request.
func NewWebhookHandler(events EventHandler, timeout time.Duration) *WebhookHandler {
	return &WebhookHandler{events: events, timeout: timeout}
}

// Zalo handles POST /webhook/zalo
func (h *WebhookHandler) Zalo(w http.ResponseWriter, r *http.Request) {
	var ev domain.InboundEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&ev); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	if err := validate.Struct(ev); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			response.BadRequest(w, fieldErrors(validationErrors))
			return
		}
		response.BadRequest(w, err.Error())
		return
	}

	// The platform may drop the connection before the turn is done; the
	// turn still has to finish so state, order and reply stay consistent.
	ctx := context.WithoutCancel(r.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	reply, err := h.events.HandleEvent(ctx, ev)
	if err != nil {
		log.Error().Err(err).Str("customer_id", ev.Sender.ID).Msg("Failed to handle event")
		response.InternalError(w, "failed to handle event")
		return
	}

	response.OK(w, reply.Wire())
}

func fieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, e := range errs {
		field := e.Namespace()
		switch e.Tag() {
		case "required", "required_if":
			out[field] = "field is required"
		case "numeric":
			out[field] = "must be numeric"
		case "max":
			out[field] = "must be at most " + e.Param() + " characters"
		default:
			out[field] = "validation failed on " + e.Tag()
		}
	}
	return out
}
