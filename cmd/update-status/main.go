// cmd/update-status/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"combatrix/internal/members"
	"combatrix/internal/platform/config"
	"combatrix/internal/platform/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Show what would be updated without making changes")
	verbose := flag.Bool("verbose", false, "Show detailed output for each member")
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

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	service := members.NewService(members.NewPostgresStore(db), time.Now, lg)

	fmt.Println("Starting member status update...")
	if *dryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
	}

	result, err := service.Reconcile(ctx, *dryRun)
	if err != nil {
		lg.Fatal("reconciliation failed", "error", err)
	}

	if *verbose {
		for _, change := range result.Changes {
			verb := "Updated"
			if result.DryRun {
				verb = "Would update"
			}
			detail := "No membership"
			if change.EndDate != nil {
				if change.To == members.StatusInactive {
					detail = fmt.Sprintf("Membership expired on %s", change.EndDate.Format(members.DateLayout))
				} else {
					detail = fmt.Sprintf("Membership valid until %s", change.EndDate.Format(members.DateLayout))
				}
			}
			fmt.Printf("%s to %s: %s (%s)\n", verb, change.To.Display(), change.Name, detail)
		}
	}

	fmt.Println("\n=== UPDATE SUMMARY ===")
	fmt.Printf("Total members processed: %d\n", result.TotalProcessed)
	fmt.Printf("Updated to INACTIVE: %d\n", result.UpdatedToInactive)
	fmt.Printf("Updated to ACTIVE: %d\n", result.UpdatedToActive)
	fmt.Printf("Already correct status: %d\n", result.AlreadyCorrect)
	fmt.Printf("No membership found: %d\n", result.NoMembership)
	fmt.Printf("Skipped (deleted): %d\n", result.SkippedDeleted)

	if *dryRun {
		fmt.Println("\nDRY RUN completed - No changes were made")
	} else {
		fmt.Printf("\nStatus update completed! Updated %d members.\n", result.Updated())
	}
}
