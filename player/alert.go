package player

import "fmt"

type (
	// Alert is a message for the user, sent by the player to the host.
	Alert struct {
		Name     string
		Message  string
		Priority AlertPriority
	}

	AlertPriority int
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

func (p AlertPriority) String() string {
	switch p {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("AlertPriority(%d)", int(p))
}

func (a Alert) String() string {
	return fmt.Sprintf("%s: %s: %s", a.Priority, a.Name, a.Message)
}
