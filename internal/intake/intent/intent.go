// Package intent maps chat text to a closed set of command intents.
package intent

// Intent is the classified purpose of one inbound message
type Intent string

const (
	StartSession Intent = "start_session"
	EndSession   Intent = "end_session"
	Register     Intent = "register"
	Cancel       Intent = "cancel"
	Back         Intent = "back"
	Merge        Intent = "merge"
	Discard      Intent = "discard"
	Confirm      Intent = "confirm"
	AddItem      Intent = "add_item"
	OneShotOrder Intent = "one_shot_order"
	TrackOrder   Intent = "track_order"
	ListOrders   Intent = "list_orders"
	StartOrder   Intent = "start_order"
	Help         Intent = "help"
	Unknown      Intent = "unknown"
)

// Priority is the order in which intents are tested
var Priority = []Intent{
	StartSession,
	EndSession,
	Register,
	Cancel,
	Back,
	Merge,
	Discard,
	Confirm,
	AddItem,
	OneShotOrder,
	TrackOrder,
	ListOrders,
	StartOrder,
	Help,
}

// Parse returns the intent named s
func Parse(s string) (Intent, bool) {
	for _, in := range Priority {
		if string(in) == s {
			return in, true
		}
	}
	return Unknown, false
}
