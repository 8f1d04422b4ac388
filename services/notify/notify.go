// Package notify alerts organisers about new registrations.
package notify

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/devnest/devnest/core"
	"github.com/devnest/devnest/core/registration"
)

// Sender delivers a plain text alert to one channel.
type Sender interface {
	Name() string
	Send(text string) error
}

// Alerter fans a stored submission out to every Sender.
type Alerter struct {
	senders []Sender
	logger  core.Logger
	sync    bool
}

var _ registration.Notifier = (*Alerter)(nil)

func NewAlerter(logger core.Logger, senders ...Sender) *Alerter {
	return &Alerter{senders: senders, logger: logger}
}

func (a *Alerter) Empty() bool { return len(a.senders) == 0 }

func (a *Alerter) SubmissionStored(schema *registration.EventSchema, rec registration.Record) {
	text := FormatSubmission(schema, rec)
	for _, s := range a.senders {
		if a.sync {
			a.send(s, schema.Name, text)
		} else {
			go a.send(s, schema.Name, text)
		}
	}
}

func (a *Alerter) send(s Sender, event, text string) {
	if err := s.Send(text); err != nil {
		msg := fmt.Sprintf("%s alert failed", s.Name())
		a.logger.Error(msg, errors.Wrap(err, msg), map[string]interface{}{"event": event})
	}
}

// FormatSubmission renders rec as a short multi-line alert.
func FormatSubmission(schema *registration.EventSchema, rec registration.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New registration: %s\n", schema.Title)
	fmt.Fprintf(&b, "%s (%s)", rec.FullName, rec.RollNumber)
	if rec.Department != "" {
		fmt.Fprintf(&b, ", %s", rec.Department)
	}
	b.WriteString("\n")

	if rec.TeamName != "" {
		fmt.Fprintf(&b, "Team: %s\n", rec.TeamName)
	}
	if rolls := memberRolls(schema, rec); len(rolls) > 0 {
		fmt.Fprintf(&b, "Members: %s\n", strings.Join(rolls, ", "))
	}
	if rec.TransactionID != "" {
		fmt.Fprintf(&b, "Transaction: %s\n", rec.TransactionID)
	}
	fmt.Fprintf(&b, "At: %s", rec.SubmittedAt)
	return b.String()
}

func memberRolls(schema *registration.EventSchema, rec registration.Record) []string {
	var rolls []string
	for _, f := range schema.RollFields {
		if f == registration.ColRollNumber {
			continue
		}
		if v := strings.TrimSpace(rec.Value(f)); v != "" {
			rolls = append(rolls, v)
		}
	}
	return rolls
}
