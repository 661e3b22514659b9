package editor

import (
	"fmt"
	"time"
)

type (
	// Alert is a message shown to the user for a while. Alerts with the same
	// non-empty Name replace each other, so a repeating condition does not
	// flood the list.
	Alert struct {
		Name     string        `json:"name,omitempty"`
		Message  string        `json:"message"`
		Priority AlertPriority `json:"priority"`
		Duration time.Duration `json:"-"`
		expires  time.Time
	}

	AlertPriority int

	// Alerts is the alert view of the model.
	Alerts Model
)

const (
	None AlertPriority = iota
	Info
	Warning
	Error
)

const defaultAlertDuration = 3 * time.Second

func (m *Model) Alerts() *Alerts { return (*Alerts)(m) }

// Add shows an unnamed alert for the default duration.
func (m *Alerts) Add(message string, priority AlertPriority) {
	m.AddAlert(Alert{Message: message, Priority: priority, Duration: defaultAlertDuration})
}

// AddNamed shows an alert, replacing a previous alert with the same name.
func (m *Alerts) AddNamed(name, message string, priority AlertPriority) {
	m.AddAlert(Alert{Name: name, Message: message, Priority: priority, Duration: defaultAlertDuration})
}

func (m *Alerts) AddAlert(a Alert) {
	a.expires = m.clock.Now().Add(a.Duration)
	if a.Name != "" {
		for i := range m.alerts {
			if m.alerts[i].Name == a.Name {
				m.alerts[i] = a
				return
			}
		}
	}
	m.alerts = append(m.alerts, a)
}

// List returns the alerts that have not expired yet, highest priority first
// and oldest first within a priority.
func (m *Alerts) List() []Alert {
	m.expire()
	ret := make([]Alert, 0, len(m.alerts))
	for p := Error; p > None; p-- {
		for _, a := range m.alerts {
			if a.Priority == p {
				ret = append(ret, a)
			}
		}
	}
	return ret
}

// Highest returns the priority of the most severe active alert.
func (m *Alerts) Highest() AlertPriority {
	m.expire()
	ret := None
	for _, a := range m.alerts {
		ret = max(ret, a.Priority)
	}
	return ret
}

func (m *Alerts) Clear() {
	m.alerts = m.alerts[:0]
}

func (m *Alerts) expire() {
	now := m.clock.Now()
	kept := m.alerts[:0]
	for _, a := range m.alerts {
		if now.Before(a.expires) {
			kept = append(kept, a)
		}
	}
	m.alerts = kept
}

func (p AlertPriority) String() string {
	switch p {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "none"
}

func (p AlertPriority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *AlertPriority) UnmarshalText(text []byte) error {
	for q := None; q <= Error; q++ {
		if q.String() == string(text) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown alert priority %q", text)
}
