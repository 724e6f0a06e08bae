package notify

// Notifier delivers operational messages. Fire-and-forget: callers never
// act on a delivery failure.
type Notifier interface {
	Send(msg string) error
}

// Nop discards every message; used when no notifier is configured.
type Nop struct{}

func (Nop) Send(string) error { return nil }
