// internal/notify/dryrun.go
package notify

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// DryRunSender prints messages instead of delivering them.
type DryRunSender struct {
	Out io.Writer
}

func (s *DryRunSender) Send(ctx context.Context, msg Message) error {
	fmt.Fprintf(s.Out, "Would send email to: %s\n", msg.To)
	fmt.Fprintf(s.Out, "Subject: %s\n", msg.Subject)
	fmt.Fprintf(s.Out, "Message: %s\n", msg.Body)
	fmt.Fprintln(s.Out, strings.Repeat("-", 40))
	return nil
}
