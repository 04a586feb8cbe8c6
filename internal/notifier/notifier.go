package notifier

import "log"

// Notifier delivers operator-facing messages. Every terminal outcome of a
// live trading workflow goes through one of these.
type Notifier interface {
	Send(text string) error
}

// LogNotifier writes messages to the process log. Used when Telegram is not
// configured.
type LogNotifier struct{}

func (LogNotifier) Send(text string) error {
	log.Printf("[INFO] notify: %s", text)
	return nil
}
