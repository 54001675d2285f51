package model

// Notification is a fire-and-forget email dispatched as a side effect of a
// state transition. Delivery failure never blocks the transition.
type Notification struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Content   string `json:"content"`
	Event     string `json:"event"`
}
