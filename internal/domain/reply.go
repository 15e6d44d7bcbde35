package domain

// ActionType tells the platform what a button does; the engine passes it through untouched
type ActionType string

const (
	ActionSendQuery ActionType = "sendQuery"
	ActionDialPhone ActionType = "dialPhone"
)

// Button is a quick-reply button
type Button struct {
	Label      string     `json:"title"`
	ActionType ActionType `json:"actionType"`
	Payload    string     `json:"payload"`
}

// Reply is the structured answer to one inbound message
type Reply struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons,omitempty"`
}

// OutboundMessage is the wire shape of a reply
type OutboundMessage struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment carries the quick-reply buttons
type Attachment struct {
	Buttons []Button `json:"buttons"`
}

// Wire converts the reply to its wire shape
func (r Reply) Wire() OutboundMessage {
	msg := OutboundMessage{Text: r.Text}
	if len(r.Buttons) > 0 {
		msg.Attachments = []Attachment{{Buttons: r.Buttons}}
	}
	return msg
}
