// Package dialog is the ordering state machine. Step is pure: it never
// performs I/O and never mutates the session it is given.
package dialog

import (
	"time"

	"github.com/Rrens/order-intake/internal/domain"
	"github.com/Rrens/order-intake/internal/intake/extract"
	"github.com/Rrens/order-intake/internal/intake/intent"
	"github.com/Rrens/order-intake/internal/intake/order"
)

// Machine drives the dialog
type Machine struct {
	classifier *intent.Classifier
}

// NewMachine creates a machine using the given classifier
func NewMachine(classifier *intent.Classifier) *Machine {
	return &Machine{classifier: classifier}
}

// Classify exposes the machine's classifier
func (m *Machine) Classify(text string) intent.Intent {
	return m.classifier.Classify(text)
}

// Step computes the next session and reply for one inbound message
func (m *Machine) Step(session *domain.ConversationSession, text string, at time.Time) Outcome {
	next := session.Clone()
	in := m.classifier.Classify(text)
	out := Outcome{Intent: in, From: session.State, Session: next}

	switch in {
	case intent.StartSession:
		next.Reset()
		next.Active = true
		next.SessionStart = at
		out.Reply = ReplyGreeting
		return out
	case intent.EndSession:
		next.Reset()
		next.Active = false
		out.Reply = ReplyFarewell
		return out
	case intent.Register:
		phone, ok := extract.Phone(text)
		if !ok {
			out.Reply = ReplyRegisterFormat
			return out
		}
		next.CustomerPhone = phone
		if next.PendingOrder != nil {
			next.PendingOrder.CustomerPhone = phone
		}
		out.Effect = EffectRegister
		out.Phone = phone
		out.Reply = ReplyRegistered
		return out
	}

	if !next.Registered() {
		next.Reset()
		out.Reply = ReplyNeedRegistration
		return out
	}
	if err := next.Validate(); err != nil {
		next.Reset()
	}
	if next.PendingOrder != nil {
		next.PendingOrder.CustomerPhone = next.CustomerPhone
	}

	switch next.State {
	case domain.StateWaitingForProductCode:
		m.productCode(&out, text)
	case domain.StateWaitingForDimensions:
		m.dimensions(&out, text)
	case domain.StateWaitingForQuantity:
		m.quantity(&out, text)
	case domain.StateWaitingForConfirmation, domain.StateAddingMoreItems:
		m.confirmation(&out)
	case domain.StateWaitingForMergeDecision:
		m.mergeDecision(&out)
	default:
		m.idle(&out, text)
	}
	return out
}

func (m *Machine) idle(out *Outcome, text string) {
	s := out.Session
	s.Reset()

	switch out.Intent {
	case intent.OneShotOrder:
		req, err := order.Build(s.CustomerID, s.CustomerPhone, extract.OrderLines(text))
		if err != nil {
			out.Reply = ReplyUnknown
			return
		}
		out.Effect = EffectCreateOrder
		out.Order = &req
		out.Reply = ReplyOrderCreated
	case intent.StartOrder:
		s.PendingOrder = domain.NewPartialOrder(s.CustomerPhone)
		s.State = domain.StateWaitingForProductCode
		out.Reply = ReplyAskProductCode
	case intent.TrackOrder:
		code, ok := extract.OrderCode(text)
		if !ok {
			out.Reply = ReplyTrackPrompt
			return
		}
		out.Effect = EffectTrackOrder
		out.OrderCode = code
		out.Reply = ReplyOrderDetail
	case intent.ListOrders:
		out.Effect = EffectListOrders
		out.Reply = ReplyOrderList
	case intent.Help:
		out.Reply = ReplyHelp
	case intent.Cancel, intent.Back, intent.Confirm, intent.AddItem, intent.Merge, intent.Discard:
		out.Reply = ReplyNoOrderInProgress
	default:
		if extract.HasOrderPrefix(text) {
			out.Reply = ReplyInvalidOrderLine
			return
		}
		out.Effect = EffectAssist
		out.Question = text
		out.Reply = ReplyUnknown
	}
}

func (m *Machine) productCode(out *Outcome, text string) {
	s := out.Session
	switch out.Intent {
	case intent.Cancel:
		cancel(out)
	case intent.Unknown:
		code, ok := extract.ProductCode(text)
		if !ok {
			out.Reply = ReplyInvalidProductCode
			return
		}
		s.PendingOrder.CurrentItem.ProductCode = code
		s.State = domain.StateWaitingForDimensions
		out.Reply = ReplyAskDimensions
	default:
		out.Reply = ReplyAskProductCode
	}
}

func (m *Machine) dimensions(out *Outcome, text string) {
	s := out.Session
	item := s.PendingOrder.CurrentItem
	switch out.Intent {
	case intent.Cancel:
		cancel(out)
	case intent.Back:
		item.ProductCode = ""
		item.ClearDimensions()
		s.State = domain.StateWaitingForProductCode
		out.Reply = ReplyAskProductCode
	case intent.Unknown:
		size, ok := extract.Dimensions(text)
		if !ok {
			out.Reply = ReplyInvalidDimensions
			return
		}
		item.Height = size.Height
		item.Width = size.Width
		item.Thickness.Decimal = size.Thickness
		item.Thickness.Valid = true
		s.State = domain.StateWaitingForQuantity
		out.Reply = ReplyAskQuantity
	default:
		out.Reply = ReplyAskDimensions
	}
}

func (m *Machine) quantity(out *Outcome, text string) {
	s := out.Session
	item := s.PendingOrder.CurrentItem
	switch out.Intent {
	case intent.Cancel:
		cancel(out)
	case intent.Back:
		item.ClearDimensions()
		item.Quantity = 0
		s.State = domain.StateWaitingForDimensions
		out.Reply = ReplyAskDimensions
	case intent.Unknown:
		qty := extract.Quantity(text)
		if qty <= 0 {
			out.Reply = ReplyInvalidQuantity
			return
		}
		item.Quantity = qty
		s.State = domain.StateWaitingForConfirmation
		out.Reply = ReplyAskConfirmation
	default:
		out.Reply = ReplyAskQuantity
	}
}

func (m *Machine) confirmation(out *Outcome) {
	s := out.Session
	s.State = domain.StateWaitingForConfirmation
	switch out.Intent {
	case intent.Cancel:
		cancel(out)
	case intent.Back:
		s.PendingOrder.CurrentItem.Quantity = 0
		s.State = domain.StateWaitingForQuantity
		out.Reply = ReplyAskQuantity
	case intent.AddItem, intent.Confirm:
		action := domain.ActionAddItem
		if out.Intent == intent.Confirm {
			action = domain.ActionConfirm
		}
		line, err := order.Promote(s.PendingOrder.CurrentItem)
		if err != nil {
			resume(out)
			return
		}
		if idx := order.FindDuplicate(s.PendingOrder.Items, line); idx >= 0 {
			dup := s.PendingOrder.Items[idx]
			s.PendingOrder.PendingAction = action
			s.State = domain.StateWaitingForMergeDecision
			out.Duplicate = &dup
			out.Reply = ReplyAskMerge
			return
		}
		s.PendingOrder.Items = append(s.PendingOrder.Items, line)
		out.Notice = NoticeItemAdded
		continueWith(out, action)
	default:
		out.Reply = ReplyConfirmNotUnderstood
	}
}

func (m *Machine) mergeDecision(out *Outcome) {
	s := out.Session
	po := s.PendingOrder
	switch out.Intent {
	case intent.Cancel:
		cancel(out)
	case intent.Merge, intent.Discard:
		line, err := order.Promote(po.CurrentItem)
		if err != nil {
			po.PendingAction = domain.ActionNone
			resume(out)
			return
		}
		if out.Intent == intent.Merge {
			if idx := order.FindDuplicate(po.Items, line); idx >= 0 {
				po.Items = order.Merge(po.Items, idx, line)
			} else {
				po.Items = append(po.Items, line)
			}
			out.Notice = NoticeMerged
		} else {
			out.Notice = NoticeDiscarded
		}
		action := po.PendingAction
		po.PendingAction = domain.ActionNone
		continueWith(out, action)
	default:
		if line, err := order.Promote(po.CurrentItem); err == nil {
			if idx := order.FindDuplicate(po.Items, line); idx >= 0 {
				dup := po.Items[idx]
				out.Duplicate = &dup
			}
		}
		out.Reply = ReplyAskMerge
	}
}

// continueWith finishes an add-item or confirm once the current item has
// been folded into the item list
func continueWith(out *Outcome, action domain.PendingAction) {
	s := out.Session
	if action == domain.ActionConfirm {
		req, err := order.Build(s.CustomerID, s.CustomerPhone, s.PendingOrder.Items)
		s.Reset()
		if err != nil {
			out.Reply = ReplyOrderFailed
			return
		}
		out.Effect = EffectCreateOrder
		out.Order = &req
		out.Reply = ReplyOrderCreated
		return
	}
	s.PendingOrder.CurrentItem = &domain.PartialOrderItem{}
	s.State = domain.StateWaitingForProductCode
	out.Reply = ReplyAskProductCode
}

func cancel(out *Outcome) {
	out.Session.Reset()
	out.Reply = ReplyCancelled
}

// resume moves to the first step whose field is still missing
func resume(out *Outcome) {
	s := out.Session
	item := s.PendingOrder.CurrentItem
	switch {
	case item.ProductCode == "":
		s.State = domain.StateWaitingForProductCode
		out.Reply = ReplyAskProductCode
	case !item.HasDimensions():
		s.State = domain.StateWaitingForDimensions
		out.Reply = ReplyAskDimensions
	default:
		s.State = domain.StateWaitingForQuantity
		out.Reply = ReplyAskQuantity
	}
}
