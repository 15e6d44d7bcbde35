package domain

import (
	"fmt"
	"time"
)

// DialogState is the step of the ordering dialog a customer is in
type DialogState string

const (
	StateIdle                    DialogState = "idle"
	StateWaitingForProductCode   DialogState = "waiting_for_product_code"
	StateWaitingForDimensions    DialogState = "waiting_for_dimensions"
	StateWaitingForQuantity      DialogState = "waiting_for_quantity"
	StateWaitingForConfirmation  DialogState = "waiting_for_confirmation"
	StateAddingMoreItems         DialogState = "adding_more_items"
	StateWaitingForMergeDecision DialogState = "waiting_for_merge_decision"
)

// Valid reports whether s is a known state
func (s DialogState) Valid() bool {
	switch s {
	case StateIdle, StateWaitingForProductCode, StateWaitingForDimensions, StateWaitingForQuantity,
		StateWaitingForConfirmation, StateAddingMoreItems, StateWaitingForMergeDecision:
		return true
	}
	return false
}

// HoldsCurrentItem reports whether the state requires a current item under construction
func (s DialogState) HoldsCurrentItem() bool {
	switch s {
	case StateWaitingForProductCode, StateWaitingForDimensions, StateWaitingForQuantity,
		StateWaitingForConfirmation, StateAddingMoreItems, StateWaitingForMergeDecision:
		return true
	}
	return false
}

// ConversationSession is the projection of where a customer is in the dialog.
// It is recomputed from history or loaded from a SessionStore on every turn.
type ConversationSession struct {
	CustomerID    string           `json:"customer_id"`
	CustomerPhone string           `json:"-"`
	State         DialogState      `json:"dialog_state"`
	PendingOrder  *PartialOrder    `json:"pending_order,omitempty"`
	Active        bool             `json:"active"`
	SessionStart  time.Time        `json:"session_start"`
	Messages      []HistoryMessage `json:"-"`
	Version       int64            `json:"version"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewIdleSession returns a session with no dialog in progress
func NewIdleSession(customerID string) *ConversationSession {
	return &ConversationSession{
		CustomerID: customerID,
		State:      StateIdle,
	}
}

// Registered reports whether the customer has a phone number on file
func (s *ConversationSession) Registered() bool {
	return s.CustomerPhone != ""
}

// Reset drops any order in progress and returns to Idle
func (s *ConversationSession) Reset() {
	s.State = StateIdle
	s.PendingOrder = nil
}

// Clone returns a deep copy so a transition never mutates its input
func (s *ConversationSession) Clone() *ConversationSession {
	if s == nil {
		return nil
	}
	c := *s
	c.PendingOrder = s.PendingOrder.Clone()
	if s.Messages != nil {
		c.Messages = append([]HistoryMessage(nil), s.Messages...)
	}
	return &c
}

// Validate checks the state/pending order invariants
func (s *ConversationSession) Validate() error {
	if !s.State.Valid() {
		return fmt.Errorf("unknown dialog state %q", s.State)
	}
	if s.State == StateIdle && s.PendingOrder != nil {
		return fmt.Errorf("idle session must not carry a pending order")
	}
	if s.State.HoldsCurrentItem() && (s.PendingOrder == nil || s.PendingOrder.CurrentItem == nil) {
		return fmt.Errorf("state %s requires a current item", s.State)
	}
	if s.State == StateWaitingForMergeDecision && s.PendingOrder.PendingAction == ActionNone {
		return fmt.Errorf("merge decision requires a pending action")
	}
	return nil
}
