// cmd/report/main.go
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
	"combatrix/internal/platform/config"
	"combatrix/internal/platform/logger"
	"combatrix/internal/reporting"
)

func main() {
	startDate := flag.String("start-date", "", "Start date for the report (YYYY-MM-DD)")
	endDate := flag.String("end-date", "", "End date for the report (YYYY-MM-DD)")
	outputDir := flag.String("output-dir", ".", "Output directory for the Excel file")
	filename := flag.String("filename", "", "Custom filename for the Excel file (without extension)")
	status := flag.String("status", "all", "Filter members by status (active, inactive, deleted, all)")
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

	// Bad dates and filter values are rejected before any query runs.
	filter, err := members.FilterFromQuery(*status, *startDate, *endDate)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	db, err := sqlx.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("failed to connect to database", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	store := members.NewPostgresStore(db)
	service := reporting.NewService(store, time.Now, lg)

	fmt.Println("Starting MMA Gym Monthly Report Generation...")

	summary, err := service.MonthlySummary(ctx, filter)
	if err != nil {
		lg.Fatal("failed to build monthly summary", "error", err)
	}
	details, err := service.DetailedMembershipReport(ctx, filter)
	if err != nil {
		lg.Fatal("failed to build detailed report", "error", err)
	}

	name := reporting.ReportFilename(*filename, time.Now())
	path, err := reporting.WriteExcel(*outputDir, name, summary, details)
	if err != nil {
		lg.Fatal("failed to write report", "error", err)
	}

	stats, err := service.SummaryStatistics(ctx, filter)
	if err != nil {
		lg.Fatal("failed to build summary statistics", "error", err)
	}
	fmt.Println()
	for _, line := range stats.Lines() {
		fmt.Println(line)
	}

	fmt.Printf("\nReport generated successfully: %s\n", path)
}
