package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"turnstile/internal/config"
	"turnstile/internal/database"
	"turnstile/internal/models"
	"turnstile/internal/repository"
)

var (
	venueName   = flag.String("venue", "Main Hall", "Venue name to create")
	title       = flag.String("title", "Opening Night", "Showtime title")
	sections    = flag.Int("sections", 2, "Number of sections")
	rowCount    = flag.Int("rows", 10, "Rows per section")
	seatsPerRow = flag.Int("seats", 20, "Seats per row")
	basePrice   = flag.Int64("price", 50000, "Base seat price in won")
	startsIn    = flag.Duration("starts-in", 24*time.Hour, "Showtime start offset from now")
	dryRun      = flag.Bool("dry-run", false, "Show what would be generated without making changes")
)

func main() {
	flag.Parse()

	slog.Info("Starting seat map generator...")

	cfg := config.Load()

	total := (*sections) * (*rowCount) * (*seatsPerRow)
	if *dryRun {
		slog.Info("Dry run",
			"venue", *venueName,
			"sections", *sections,
			"rows", *rowCount,
			"seats_per_row", *seatsPerRow,
			"total", total)
		return
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)
	ctx := context.Background()

	venue := &models.Venue{
		Name:    *venueName,
		Address: "1 Theater Way",
	}
	if err := repos.Venues.Create(ctx, venue); err != nil {
		slog.Error("Failed to create venue", "error", err)
		os.Exit(1)
	}
	slog.Info("Created venue", "venue_id", venue.ID, "name", venue.Name)

	for i := 0; i < *sections; i++ {
		section := fmt.Sprintf("S%d", i+1)
		if err := repos.Seats.CreateSeatMap(ctx, venue.ID, section, *rowCount, *seatsPerRow, *basePrice); err != nil {
			slog.Error("Failed to create seat map", "section", section, "error", err)
			os.Exit(1)
		}
		slog.Info("Created section", "section", section, "seats", (*rowCount)*(*seatsPerRow))
	}

	showtime := &models.Showtime{
		VenueID:  venue.ID,
		Title:    *title,
		StartsAt: time.Now().Add(*startsIn),
	}
	if err := repos.Venues.CreateShowtime(ctx, showtime); err != nil {
		slog.Error("Failed to create showtime", "error", err)
		os.Exit(1)
	}
	slog.Info("Created showtime", "showtime_id", showtime.ID, "starts_at", showtime.StartsAt)

	slog.Info("Seat map generation completed successfully!")
}
