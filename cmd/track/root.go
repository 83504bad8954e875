package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/noobzdxz-gif/Tracking-App/internal/config"
	"github.com/noobzdxz-gif/Tracking-App/internal/core"
	"github.com/noobzdxz-gif/Tracking-App/internal/log"
	"github.com/noobzdxz-gif/Tracking-App/internal/services"
	"github.com/noobzdxz-gif/Tracking-App/internal/storage"
)

var (
	flagDB     string
	flagPeriod string
	flagAnchor string
	flagStart  string
	flagEnd    string
)

var rootCmd = &cobra.Command{
	Use:   "track",
	Short: "Offline reports from the local tracking database",
	Long: `track reads the local SQLite projection directly, without the
server or the sync worker, and prints summaries or CSV exports for a
date range. Ranges are picked either with --start/--end or with
--period around an --anchor date.`,
	SilenceUsage: true,
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&flagDB, "db", config.Load().SQLiteDBPath, "Path to the SQLite database")
	rootCmd.PersistentFlags().StringVar(&flagPeriod, "period", "week", "Range period: day, week, month, year")
	rootCmd.PersistentFlags().StringVar(&flagAnchor, "anchor", "", "Anchor date (YYYY-MM-DD, default today)")
	rootCmd.PersistentFlags().StringVar(&flagStart, "start", "", "Explicit range start (YYYY-MM-DD)")
	rootCmd.PersistentFlags().StringVar(&flagEnd, "end", "", "Explicit range end (YYYY-MM-DD)")

	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
}

// openService opens the projection read-side. The CLI never publishes sync
// nudges, so the AMQP client stays nil.
func openService() (*services.EntryService, func(), error) {
	logger := log.New(log.Config{Level: slog.LevelWarn, Component: "track"})

	repo, err := storage.NewRepository(flagDB)
	if err != nil {
		return nil, nil, fmt.Errorf("open database %s: %w", flagDB, err)
	}

	service := services.NewEntryService(repo, nil, logger)
	return service, func() { _ = repo.Close() }, nil
}

// resolveRange turns the range flags into an inclusive date range.
// --start/--end win when both are present; otherwise the period is
// resolved around the anchor date.
func resolveRange() (core.DateRange, error) {
	if flagStart != "" || flagEnd != "" {
		if flagStart == "" || flagEnd == "" {
			return core.DateRange{}, fmt.Errorf("--start and --end must be given together")
		}
		start, err := core.ParseDate(flagStart)
		if err != nil {
			return core.DateRange{}, err
		}
		end, err := core.ParseDate(flagEnd)
		if err != nil {
			return core.DateRange{}, err
		}
		return core.NewDateRange(start, end)
	}

	anchor := todayDate()
	if flagAnchor != "" {
		parsed, err := core.ParseDate(flagAnchor)
		if err != nil {
			return core.DateRange{}, err
		}
		anchor = parsed
	}
	return core.ResolveRange(core.Period(flagPeriod), anchor)
}

func todayDate() core.Date {
	now := time.Now()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}
