package outbox

// Row status values shared by every outbox adapter. The relay worker only
// picks up pending rows and flips them to sent after publishing.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
)
