// internal/notify/dispatcher_test.go
package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"combatrix/internal/platform/logger"
)

type fakeSender struct {
	sent    []Message
	failFor map[string]error
}

func (s *fakeSender) Send(ctx context.Context, msg Message) error {
	if err, ok := s.failFor[msg.To]; ok {
		return err
	}
	s.sent = append(s.sent, msg)
	return nil
}

var testRecipients = []Recipient{
	{Name: "Alice", Email: "alice@example.com"},
	{Name: "Bob", Email: "bob@example.com"},
	{Name: "Carol", Email: "carol@example.com"},
}

func TestBroadcastRendersPerRecipient(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, logger.NewNop())

	result, err := d.Broadcast(context.Background(), "Gym Closure",
		"Dear {{.Name}}, we are closed on {{.ClosureDate}}.",
		testRecipients, map[string]string{"ClosureDate": "Monday, 25 March 2024"})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 3, result.Total)
	assert.Empty(t, result.Failed)

	require.Len(t, sender.sent, 3)
	assert.Equal(t, "alice@example.com", sender.sent[0].To)
	assert.Equal(t, "Gym Closure", sender.sent[0].Subject)
	assert.Equal(t, "Dear Alice, we are closed on Monday, 25 March 2024.", sender.sent[0].Body)
	assert.Equal(t, "Dear Bob, we are closed on Monday, 25 March 2024.", sender.sent[1].Body)
}

func TestBroadcastContinuesPastFailures(t *testing.T) {
	sender := &fakeSender{failFor: map[string]error{
		"bob@example.com": errors.New("mailbox unavailable"),
	}}
	d := NewDispatcher(sender, logger.NewNop())

	result, err := d.Broadcast(context.Background(), "Hi", "Hello {{.Name}}", testRecipients, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 3, result.Total)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "bob@example.com", result.Failed[0].Email)
	assert.Contains(t, result.Failed[0].Err, "mailbox unavailable")

	// Carol is still delivered after Bob fails.
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "carol@example.com", sender.sent[1].To)
}

func TestBroadcastBadTemplateAbortsBeforeSending(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, logger.NewNop())

	_, err := d.Broadcast(context.Background(), "Hi", "Hello {{.Name", testRecipients, nil)
	require.Error(t, err)
	assert.Empty(t, sender.sent)
}

func TestBroadcastMissingVariableAborts(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(sender, logger.NewNop())

	_, err := d.Broadcast(context.Background(), "Hi", "Until {{.ResumeDate}}", testRecipients, nil)
	require.Error(t, err)
	assert.Empty(t, sender.sent)
}

func TestDryRunSenderOutput(t *testing.T) {
	var out bytes.Buffer
	s := &DryRunSender{Out: &out}

	err := s.Send(context.Background(), Message{
		To:      "alice@example.com",
		Subject: "Gym Closure",
		Body:    "Dear Alice, see you soon.",
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Would send email to: alice@example.com")
	assert.Contains(t, out.String(), "Subject: Gym Closure")
	assert.Contains(t, out.String(), "Message: Dear Alice, see you soon.")
	assert.Contains(t, out.String(), "----------------------------------------")
}
