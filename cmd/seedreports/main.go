// Command seedreports loads citizen reports from a CSV file into the report
// store. It builds every row through the same domain constructors the API
// uses, so seeded data matches what real submissions produce.
//
// Usage:
//
//	go run ./cmd/seedreports \
//	  -csv data/seed/reports.csv \
//	  -driver sqlite -dsn file:civicreport.db
//
// Expected header: user_id,category_id,address,postal_code,lat,lon,
// manifestation_type,description,status
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/civic-report-service/internal/domain"
	"github.com/couchcryptid/civic-report-service/internal/store"
	"github.com/jonboulle/clockwork"
)

var requiredColumns = []string{"user_id", "category_id", "address", "postal_code", "lat", "lon", "manifestation_type", "description"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "CSV file with one report per row")
	driver := flag.String("driver", store.DriverSQLite, "database driver (sqlite or mysql)")
	dsn := flag.String("dsn", "file:civicreport.db", "database DSN")
	at := flag.String("at", "2024-04-26T12:00:00Z", "creation timestamp for seeded reports (RFC3339)")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -csv")
	}
	createdAt, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return fmt.Errorf("parse -at: %w", err)
	}

	// Fixed clock for reproducible CreatedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(createdAt))
	defer domain.SetClock(nil)

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reports, err := parseReports(f)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}

	ctx := context.Background()
	db, err := store.Open(ctx, *driver, *dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(ctx); err != nil {
		return err
	}

	for _, r := range reports {
		if err := db.InsertReport(ctx, r); err != nil {
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}
	log.Printf("seeded %d reports into %s", len(reports), *driver)

	printStats(reports)
	return nil
}

func parseReports(r io.Reader) ([]domain.Report, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	reports := make([]domain.Report, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2
		report, err := parseRow(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func parseRow(row []string, colIdx map[string]int) (domain.Report, error) {
	category, err := domain.LookupCategory(get(row, colIdx, "category_id"))
	if err != nil {
		return domain.Report{}, err
	}
	manifestation, err := domain.ParseManifestationType(get(row, colIdx, "manifestation_type"))
	if err != nil {
		return domain.Report{}, err
	}
	lat, err := strconv.ParseFloat(get(row, colIdx, "lat"), 64)
	if err != nil {
		return domain.Report{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(get(row, colIdx, "lon"), 64)
	if err != nil {
		return domain.Report{}, fmt.Errorf("lon: %w", err)
	}

	draft := domain.NewDraft()
	draft.Address = get(row, colIdx, "address")
	draft.PostalCode = domain.NormalizePostalCode(get(row, colIdx, "postal_code"))
	draft.Coordinates = domain.Coordinates{Latitude: lat, Longitude: lon}
	draft.ManifestationType = manifestation
	draft.Description = get(row, colIdx, "description")
	draft.Step = domain.StepPreview
	if err := draft.CheckLocation(); err != nil {
		return domain.Report{}, err
	}
	if err := draft.CheckDetails(); err != nil {
		return domain.Report{}, err
	}

	status := domain.StatusPending
	switch s := domain.ReportStatus(get(row, colIdx, "status")); s {
	case "":
	case domain.StatusPending, domain.StatusInProgress, domain.StatusResolved:
		status = s
	default:
		return domain.Report{}, fmt.Errorf("unknown status %q", s)
	}

	return domain.Report{
		Submission:   domain.NewSubmission(get(row, colIdx, "user_id"), category.ID, draft),
		Status:       status,
		CategoryName: category.Name,
	}, nil
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func printStats(reports []domain.Report) {
	byCategory := map[string]int{}
	byStatus := map[domain.ReportStatus]int{}
	for _, r := range reports {
		byCategory[r.CategoryName]++
		byStatus[r.Status]++
	}

	names := make([]string, 0, len(byCategory))
	for name := range byCategory {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if byCategory[names[i]] != byCategory[names[j]] {
			return byCategory[names[i]] > byCategory[names[j]]
		}
		return names[i] < names[j]
	})

	fmt.Println("\n=== Reports by category ===")
	for _, name := range names {
		fmt.Printf("  %-28s %d\n", name, byCategory[name])
	}
	fmt.Println("\n=== Reports by status ===")
	for _, s := range []domain.ReportStatus{domain.StatusPending, domain.StatusInProgress, domain.StatusResolved} {
		fmt.Printf("  %-12s %d\n", s, byStatus[s])
	}
}
