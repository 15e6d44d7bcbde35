package dialog

import (
	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/intake/intent"
)

// Effect is a side effect the caller must run after committing the session
type Effect string

const (
	EffectNone        Effect = ""
	EffectRegister    Effect = "register"
	EffectCreateOrder Effect = "create_order"
	EffectTrackOrder  Effect = "track_order"
	EffectListOrders  Effect = "list_orders"
	EffectAssist      Effect = "assist"
)

// ReplyKind selects the reply template
type ReplyKind string

const (
	ReplyGreeting             ReplyKind = "greeting"
	ReplyFarewell             ReplyKind = "farewell"
	ReplyRegistered           ReplyKind = "registered"
	ReplyRegisterFormat       ReplyKind = "register_format"
	ReplyRegisterFailed       ReplyKind = "register_failed"
	ReplyNeedRegistration     ReplyKind = "need_registration"
	ReplyAskProductCode       ReplyKind = "ask_product_code"
	ReplyInvalidProductCode   ReplyKind = "invalid_product_code"
	ReplyAskDimensions        ReplyKind = "ask_dimensions"
	ReplyInvalidDimensions    ReplyKind = "invalid_dimensions"
	ReplyAskQuantity          ReplyKind = "ask_quantity"
	ReplyInvalidQuantity      ReplyKind = "invalid_quantity"
	ReplyAskConfirmation      ReplyKind = "ask_confirmation"
	ReplyConfirmNotUnderstood ReplyKind = "confirm_not_understood"
	ReplyAskMerge             ReplyKind = "ask_merge"
	ReplyCancelled            ReplyKind = "cancelled"
	ReplyNoOrderInProgress    ReplyKind = "no_order_in_progress"
	ReplyOrderCreated         ReplyKind = "order_created"
	ReplyOrderFailed          ReplyKind = "order_failed"
	ReplyTrackPrompt          ReplyKind = "track_prompt"
	ReplyOrderDetail          ReplyKind = "order_detail"
	ReplyOrderNotFound        ReplyKind = "order_not_found"
	ReplyOrderList            ReplyKind = "order_list"
	ReplyLookupFailed         ReplyKind = "lookup_failed"
	ReplyHelp                 ReplyKind = "help"
	ReplyUnknown              ReplyKind = "unknown"
	ReplyUnsupported          ReplyKind = "unsupported"
	ReplySlowDown             ReplyKind = "slow_down"
	ReplyInvalidOrderLine     ReplyKind = "invalid_order_line"
	ReplyBusy                 ReplyKind = "busy"
	ReplyUnavailable          ReplyKind = "unavailable"
)

// Notice is a one-line remark placed before the reply
type Notice string

const (
	NoticeNone      Notice = ""
	NoticeItemAdded Notice = "item_added"
	NoticeMerged    Notice = "merged"
	NoticeDiscarded Notice = "discarded"
)

// Outcome is the result of one transition plus the data needed to
// compose the reply. The Result fields are filled by the caller once the
// effect has run.
type Outcome struct {
	Intent  intent.Intent
	From    domain.DialogState
	Session *domain.ConversationSession
	Reply   ReplyKind
	Notice  Notice

	Effect    Effect
	Order     *domain.OrderRequest
	Phone     string
	OrderCode string
	Question  string

	// Duplicate is the existing line a new item collides with
	Duplicate *domain.OrderLineItem

	Created *domain.OrderResult
	Tracked *domain.OrderSummary
	Orders  []domain.OrderSummary
	Answer  string
}

// Fixed returns an outcome that leaves the session untouched
func Fixed(session *domain.ConversationSession, kind ReplyKind) Outcome {
	return Outcome{
		Intent:  intent.Unknown,
		From:    session.State,
		Session: session.Clone(),
		Reply:   kind,
	}
}
