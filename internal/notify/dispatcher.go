// internal/notify/dispatcher.go
package notify

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"combatrix/internal/platform/logger"
)

// Message is one rendered notification ready for delivery.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a single message. Implementations must treat each call
// independently; the dispatcher decides what to do with failures.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recipient is one addressee of a broadcast.
type Recipient struct {
	Name  string
	Email string
}

// DeliveryError records a single failed send.
type DeliveryError struct {
	Email string `json:"email"`
	Err   string `json:"error"`
}

// Result summarizes a broadcast.
type Result struct {
	Sent   int             `json:"sent"`
	Total  int             `json:"total"`
	Failed []DeliveryError `json:"failed,omitempty"`
}

// Dispatcher renders a template per recipient and delivers the result. An
// individual delivery failure is recorded and the batch continues; only a
// template error aborts, before anything is sent.
type Dispatcher struct {
	sender Sender
	log    *logger.Logger
}

func NewDispatcher(sender Sender, log *logger.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, log: log}
}

// Broadcast sends the templated message to every recipient. The template is
// executed with the shared vars plus a per-recipient "Name" key.
func (d *Dispatcher) Broadcast(ctx context.Context, subject, bodyTemplate string, recipients []Recipient, vars map[string]string) (*Result, error) {
	tmpl, err := template.New("notification").Option("missingkey=error").Parse(bodyTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	result := &Result{Total: len(recipients)}
	for _, r := range recipients {
		data := make(map[string]string, len(vars)+1)
		for k, v := range vars {
			data[k] = v
		}
		data["Name"] = r.Name

		var body bytes.Buffer
		if err := tmpl.Execute(&body, data); err != nil {
			return nil, fmt.Errorf("failed to render template for %s: %w", r.Email, err)
		}

		msg := Message{To: r.Email, Subject: subject, Body: body.String()}
		if err := d.sender.Send(ctx, msg); err != nil {
			d.log.Error("failed to send notification", "email", r.Email, "error", err)
			result.Failed = append(result.Failed, DeliveryError{Email: r.Email, Err: err.Error()})
			continue
		}
		result.Sent++
	}

	d.log.Info("broadcast finished", "sent", result.Sent, "total", result.Total, "failed", len(result.Failed))
	return result, nil
}
