package storage

import (
	"path/filepath"
	"testing"

	"rostersync/internal"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpsertDocument(t *testing.T) {
	db := openTestDB(t)

	doc, err := db.UpsertDocument("/tmp/a.pdf", "hash-1", 3, "extracted")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if doc.ID == 0 || doc.Pages != 3 || doc.Status != "extracted" {
		t.Fatalf("doc=%+v", doc)
	}

	// Same hash updates in place.
	again, err := db.UpsertDocument("/tmp/b.pdf", "hash-1", 4, "exported")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if again.ID != doc.ID || again.Path != "/tmp/b.pdf" || again.Pages != 4 {
		t.Fatalf("again=%+v", again)
	}
}

func TestReplaceAndListRecords(t *testing.T) {
	db := openTestDB(t)
	doc, err := db.UpsertDocument("/tmp/a.pdf", "hash-1", 1, "extracted")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	records := []internal.FinalRecord{
		{
			FullName: "John Smith", ShortName: "John S",
			Birthday: internal.StringPtr("1990-03-14"), Status: internal.StatusActive,
			Confidence: internal.ConfidenceHigh, RawLine: "John Smith Active", SourceLine: 4,
			Age: internal.IntPtr(35), NameValid: true, BirthdayValid: true,
		},
		{
			FullName: "Jane Doe", ShortName: "Jane D",
			Birthday: nil, Status: internal.StatusNA,
			Confidence: internal.ConfidenceMedium, RawLine: "Jane Doe", SourceLine: 9,
			Age: nil, NameValid: true, BirthdayValid: false,
		},
	}
	if err := db.ReplaceRecords(doc.ID, records); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, err := db.ListRecords(doc.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len=%d", len(got))
	}
	if got[0].FullName != "John Smith" || got[0].Birthday == nil || *got[0].Birthday != "1990-03-14" {
		t.Fatalf("rec0=%+v", got[0])
	}
	if got[0].Age == nil || *got[0].Age != 35 || !got[0].BirthdayValid {
		t.Fatalf("rec0=%+v", got[0])
	}
	if got[1].Birthday != nil || got[1].Age != nil || got[1].BirthdayValid {
		t.Fatalf("rec1=%+v", got[1])
	}
	if got[1].Status != internal.StatusNA || got[1].Confidence != internal.ConfidenceMedium {
		t.Fatalf("rec1=%+v", got[1])
	}

	// Replace is a full swap, not an append.
	if err := db.ReplaceRecords(doc.ID, records[:1]); err != nil {
		t.Fatalf("replace again: %v", err)
	}
	got, err = db.ListRecords(doc.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len=%d", len(got))
	}
}

func TestUpdateDocumentStatus(t *testing.T) {
	db := openTestDB(t)
	doc, err := db.UpsertDocument("/tmp/a.pdf", "hash-1", 1, "extracted")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := db.UpdateDocumentStatus(doc.ID, "pushed"); err != nil {
		t.Fatalf("update: %v", err)
	}
	row, err := db.GetDocumentByHash("hash-1")
	if err != nil || row == nil {
		t.Fatalf("get: row=%v err=%v", row, err)
	}
	if row.Status != "pushed" {
		t.Fatalf("status=%q", row.Status)
	}
}

func TestInsertRun(t *testing.T) {
	db := openTestDB(t)
	doc, err := db.UpsertDocument("/tmp/a.pdf", "hash-1", 1, "extracted")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	stats := internal.RunStats{PagesScanned: 2, RecordsExtracted: 5, FallbackUsed: true}
	if err := db.InsertRun("run-1", doc.ID, stats, map[string]float64{"extractSeconds": 0.4}); err != nil {
		t.Fatalf("insert run: %v", err)
	}
}

func TestGetDocumentByHashMissing(t *testing.T) {
	db := openTestDB(t)
	row, err := db.GetDocumentByHash("nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row != nil {
		t.Fatalf("row=%+v", row)
	}
}
