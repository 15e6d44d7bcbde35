package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrVersionConflict  = errors.New("session version conflict")
	ErrLockNotAcquired  = errors.New("customer lock not acquired")
	ErrUnknownCustomer  = errors.New("unknown customer")
	ErrUnknownProduct   = errors.New("unknown product")
	ErrIncompleteItem   = errors.New("order item is incomplete")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrPlatformRejected = errors.New("platform rejected request")
)

// SessionStore is the authoritative per-customer session record.
// Save succeeds only when session.Version still matches the stored version
// (0 for a new record) and increments session.Version on success.
type SessionStore interface {
	Load(ctx context.Context, customerID string) (*ConversationSession, error)
	Save(ctx context.Context, session *ConversationSession) error
}

// MessageLog stores the conversation so sessions can be replayed
type MessageLog interface {
	Append(ctx context.Context, msg *HistoryMessage) error
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]HistoryMessage, error)
}

// HistoryProvider returns a customer's history, oldest first
type HistoryProvider interface {
	FetchHistory(ctx context.Context, customerID string) ([]HistoryMessage, error)
}

// RegistrationStore maps customers to phone numbers
type RegistrationStore interface {
	Get(ctx context.Context, customerID string) (*Registration, error)
	Save(ctx context.Context, reg *Registration) error
}

// OrderService creates and looks up orders in the ERP
type OrderService interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*OrderResult, error)
	ListOrders(ctx context.Context, phone string, limit int) ([]OrderSummary, error)
	TrackOrder(ctx context.Context, phone, orderCode string) (*OrderSummary, error)
}

// Sender delivers a reply to a customer
type Sender interface {
	Send(ctx context.Context, customerID string, reply Reply) error
}

// Assistant answers free text the dialog does not understand
type Assistant interface {
	Answer(ctx context.Context, question string) (string, error)
}

// AuditSink records handled turns
type AuditSink interface {
	Record(ctx context.Context, entry *TurnAudit) error
}

// CustomerLock serialises deliveries for one customer across processes
type CustomerLock interface {
	Acquire(ctx context.Context, customerID string) (release func(), err error)
}

// RateLimiter limits inbound messages per customer
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// HistoryFromLog adapts a MessageLog into a HistoryProvider
type HistoryFromLog struct {
	Log   MessageLog
	Limit int
}

// FetchHistory implements HistoryProvider
func (h HistoryFromLog) FetchHistory(ctx context.Context, customerID string) ([]HistoryMessage, error) {
	return h.Log.ListByCustomer(ctx, customerID, h.Limit)
}
