package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rostersync/internal"
	"rostersync/internal/config"
	"rostersync/internal/export"
	"rostersync/internal/pdfsource"
	"rostersync/internal/pipeline"
	"rostersync/internal/sheets"
	"rostersync/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "extract":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pdfPath := fs.String("pdf", "", "roster pdf path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*pdfPath) == "" {
			must(fmt.Errorf("--pdf is required"))
		}

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		result, doc, elapsed, err := extractAndStore(db, *pdfPath)
		must(err)
		printSummary(result, elapsed)
		fmt.Printf("stored documentId=%d records=%d\n", doc.ID, len(result.Records))
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pdfPath := fs.String("pdf", "", "roster pdf path")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*pdfPath) == "" {
			must(fmt.Errorf("--pdf is required"))
		}

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		result, doc, elapsed, err := extractAndStore(db, *pdfPath)
		must(err)

		target := *out
		if strings.TrimSpace(target) == "" {
			base := strings.TrimSuffix(filepath.Base(*pdfPath), filepath.Ext(*pdfPath))
			target = filepath.Join(cfg.OutputDir, base+".xlsx")
		}
		must(export.RecordsToXLSX(result.Records, target))
		must(db.UpdateDocumentStatus(doc.ID, "exported"))
		printSummary(result, elapsed)
		fmt.Printf("exported %d records to %s\n", len(result.Records), target)
	case "sheets:push":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pdfPath := fs.String("pdf", "", "roster pdf path")
		worksheet := fs.String("worksheet", cfg.WorksheetName, "target worksheet")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*pdfPath) == "" {
			must(fmt.Errorf("--pdf is required"))
		}

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		result, doc, elapsed, err := extractAndStore(db, *pdfPath)
		must(err)

		ctx := context.Background()
		spreadsheetID, err := resolveSpreadsheetID(cfg)
		must(err)
		client, err := sheets.NewClient(ctx, cfg)
		must(err)
		must(client.Update(ctx, spreadsheetID, *worksheet, result.Records))
		must(db.UpdateDocumentStatus(doc.ID, "pushed"))
		printSummary(result, elapsed)
		fmt.Printf("pushed %d records to %s!%s\n", len(result.Records), spreadsheetID, *worksheet)
	case "sheets:test":
		ctx := context.Background()
		spreadsheetID, err := resolveSpreadsheetID(cfg)
		must(err)
		client, err := sheets.NewClient(ctx, cfg)
		must(err)
		title, err := client.TestConnection(ctx, spreadsheetID)
		must(err)
		fmt.Printf("connected: %s\n", title)
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		pdfPath := fs.String("pdf", "", "roster pdf path")
		out := fs.String("out", "", "output xlsx path")
		push := fs.Bool("push", false, "also push to google sheets")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*pdfPath) == "" || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--pdf and --out are required"))
		}

		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()

		result, doc, elapsed, err := extractAndStore(db, *pdfPath)
		must(err)
		must(export.RecordsToXLSX(result.Records, *out))
		status := "exported"

		if *push {
			ctx := context.Background()
			spreadsheetID, err := resolveSpreadsheetID(cfg)
			must(err)
			client, err := sheets.NewClient(ctx, cfg)
			must(err)
			must(client.Update(ctx, spreadsheetID, cfg.WorksheetName, result.Records))
			status = "pushed"
		}

		must(db.UpdateDocumentStatus(doc.ID, status))
		printSummary(result, elapsed)
		fmt.Printf("run done records=%d output=%s\n", len(result.Records), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func extractAndStore(db *storage.DB, pdfPath string) (pipeline.Result, internal.DocumentRow, time.Duration, error) {
	blob, err := os.ReadFile(pdfPath)
	if err != nil {
		return pipeline.Result{}, internal.DocumentRow{}, 0, err
	}

	src, err := pdfsource.FromBytes(blob)
	if err != nil {
		return pipeline.Result{}, internal.DocumentRow{}, 0, err
	}

	start := time.Now()
	result, err := pipeline.Extract(src, time.Now())
	if err != nil {
		return pipeline.Result{}, internal.DocumentRow{}, 0, err
	}
	elapsed := time.Since(start)

	sum := sha256.Sum256(blob)
	doc, err := db.UpsertDocument(pdfPath, hex.EncodeToString(sum[:]), result.Stats.PagesScanned, "extracted")
	if err != nil {
		return pipeline.Result{}, internal.DocumentRow{}, 0, err
	}
	if err := db.ReplaceRecords(doc.ID, result.Records); err != nil {
		return pipeline.Result{}, internal.DocumentRow{}, 0, err
	}
	timings := map[string]float64{"extractSeconds": elapsed.Seconds()}
	if err := db.InsertRun(traceID(), doc.ID, result.Stats, timings); err != nil {
		return pipeline.Result{}, internal.DocumentRow{}, 0, err
	}

	return result, doc, elapsed, nil
}

func printSummary(result pipeline.Result, elapsed time.Duration) {
	stats := result.Stats
	fmt.Printf("pages=%d lines=%d headers=%d extracted=%d skipped=%d rejected=%d fallback=%v elapsed=%.2fs\n",
		stats.PagesScanned, stats.LinesSeen, stats.HeadersFound, stats.RecordsExtracted,
		stats.LinesSkipped, stats.RecordsRejected, stats.FallbackUsed, elapsed.Seconds())
	if stats.ExtractionEmpty {
		fmt.Println("warning: document produced no extractable text")
	}

	withBirthday := 0
	byConfidence := map[internal.Confidence]int{}
	for _, rec := range result.Records {
		if rec.BirthdayValid {
			withBirthday++
		}
		byConfidence[rec.Confidence]++
	}
	fmt.Printf("records=%d withBirthday=%d missingBirthday=%d confidence high=%d medium=%d low=%d\n",
		len(result.Records), withBirthday, len(result.Records)-withBirthday,
		byConfidence[internal.ConfidenceHigh], byConfidence[internal.ConfidenceMedium], byConfidence[internal.ConfidenceLow])
}

func resolveSpreadsheetID(cfg config.Config) (string, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) != "" {
		return cfg.SpreadsheetID, nil
	}
	if strings.TrimSpace(cfg.SpreadsheetURL) != "" {
		return sheets.SpreadsheetIDFromURL(cfg.SpreadsheetURL)
	}
	return "", fmt.Errorf("missing required env var: SHEETS_SPREADSHEET_ID or SHEETS_SPREADSHEET_URL")
}

func traceID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}

func usage() {
	fmt.Println("usage: rostersync <command>")
	fmt.Println("commands:")
	fmt.Println("  extract --pdf=./roster.pdf")
	fmt.Println("  export:xlsx --pdf=./roster.pdf [--out=./out/roster.xlsx]")
	fmt.Println("  sheets:push --pdf=./roster.pdf [--worksheet=Sheet1]")
	fmt.Println("  sheets:test")
	fmt.Println("  run --pdf=./roster.pdf --out=./out/roster.xlsx [--push]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
