// cmd/notify/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"combatrix/internal/members"
	"combatrix/internal/notify"
	"combatrix/internal/platform/config"
	"combatrix/internal/platform/logger"
)

const defaultSubject = "Happy Holi - Combatrix Academy Closure Notice"

const defaultTemplate = `Dear {{.Name}},

Warm greetings from Combatrix Academy!

We wish you and your family a very Happy Holi filled with vibrant colors, joy, and prosperity.

Please note that our academy will remain CLOSED on {{.ClosureDate}} on the occasion of Holi.

Regular classes will resume from {{.ResumeDate}}.

If you have any questions or concerns, please feel free to contact us.

Best regards,
Team Combatrix
`

func main() {
	dryRun := flag.Bool("dry-run", false, "Print emails that would be sent without actually sending them")
	subject := flag.String("subject", defaultSubject, "Email subject")
	templatePath := flag.String("template", "", "Path to a message template (defaults to the closure notice)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer lg.Sync()

	body := defaultTemplate
	if *templatePath != "" {
		raw, err := os.ReadFile(*templatePath)
		if err != nil {
			lg.Fatal("failed to read template", "path", *templatePath, "error", err)
		}
		body = string(raw)
	}

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	service := members.NewService(members.NewPostgresStore(db), time.Now, lg)

	active, err := service.ListMembers(ctx, members.Filter{Status: members.FilterActive})
	if err != nil {
		lg.Fatal("failed to list active members", "error", err)
	}
	if len(active) == 0 {
		fmt.Println("No members found in the database.")
		return
	}

	recipients := make([]notify.Recipient, 0, len(active))
	for _, m := range active {
		recipients = append(recipients, notify.Recipient{Name: m.Name, Email: m.Email})
	}

	tomorrow := members.DateOnly(time.Now()).AddDate(0, 0, 1)
	resume := tomorrow.AddDate(0, 0, 3)
	vars := map[string]string{
		"ClosureDate": tomorrow.Format("Monday, 02 January 2006"),
		"ResumeDate":  resume.Format("Monday, 02 January 2006"),
	}

	var sender notify.Sender
	if *dryRun {
		sender = &notify.DryRunSender{Out: os.Stdout}
	} else {
		sender, err = notify.NewSMTPSender(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		})
		if err != nil {
			lg.Fatal("failed to create SMTP sender", "error", err)
		}
	}

	result, err := notify.NewDispatcher(sender, lg).Broadcast(ctx, *subject, body, recipients, vars)
	if err != nil {
		lg.Fatal("broadcast failed", "error", err)
	}

	fmt.Printf("Process completed. Emails sent: %d/%d\n", result.Sent, result.Total)
	if len(result.Failed) > 0 {
		fmt.Println("Failed emails:")
		for _, f := range result.Failed {
			fmt.Printf("  - %s: %s\n", f.Email, f.Err)
		}
	}
}
