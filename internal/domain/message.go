package domain

import "time"

// HistoryMessage is one message of a customer conversation, inbound or outbound
type HistoryMessage struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customer_id"`
	Text           string    `json:"text"`
	IsFromCustomer bool      `json:"is_from_customer"`
	Timestamp      time.Time `json:"timestamp"`
}

// Registration maps a platform customer to a phone number
type Registration struct {
	CustomerID   string    `json:"customer_id"`
	Phone        string    `json:"phone"`
	RegisteredAt time.Time `json:"registered_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TurnAudit records how one inbound message was handled
type TurnAudit struct {
	ID         string      `json:"id" bson:"_id"`
	CustomerID string      `json:"customer_id" bson:"customer_id"`
	Text       string      `json:"text" bson:"text"`
	Intent     string      `json:"intent" bson:"intent"`
	FromState  DialogState `json:"from_state" bson:"from_state"`
	ToState    DialogState `json:"to_state" bson:"to_state"`
	Effect     string      `json:"effect,omitempty" bson:"effect,omitempty"`
	Error      string      `json:"error,omitempty" bson:"error,omitempty"`
	DurationMs int64       `json:"duration_ms" bson:"duration_ms"`
	CreatedAt  time.Time   `json:"created_at" bson:"created_at"`
}
