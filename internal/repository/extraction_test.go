package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/technova-hub/extraction-api/constants"
	"github.com/technova-hub/extraction-api/internal/common"
	"github.com/technova-hub/extraction-api/internal/entity"
)

// --- test helpers ---

func testSetup(t *testing.T) (ExtractionRepository, *sql.DB) {
	t.Helper()

	cfg := common.DatabaseConfig{
		Path:          filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout:   5 * time.Second,
		HealthTimeout: 3 * time.Second,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), cfg, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return NewExtractionRepository(db, logger), db
}

func pinClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = prev })
}

// seedExtraction inserts a row directly so tests control extraction_date.
func seedExtraction(t *testing.T, db *sql.DB, filename, date string, size *int64) {
	t.Helper()
	_, err := db.Exec(
		`INSERT INTO extractions (filename, file_size, mime_type, extraction_date, status, data_json, created_at, updated_at)
		 VALUES (?, ?, 'application/pdf', ?, 'success', NULL, ?, ?)`,
		filename, size, date, date, date,
	)
	if err != nil {
		t.Fatal(err)
	}
}

func mustCreate(t *testing.T, repo ExtractionRepository, req *CreateExtractionRequest) *entity.Extraction {
	t.Helper()
	rec, err := repo.Create(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	return rec
}

func sizePtr(v int64) *int64 { return &v }

func filenames(recs []*entity.Extraction) []string {
	out := make([]string, len(recs))
	for i, rec := range recs {
		out[i] = rec.Filename
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- create tests ---

func TestCreateAppliesDefaults(t *testing.T) {
	repo, _ := testSetup(t)
	now := time.Date(2026, 3, 15, 14, 30, 45, 0, time.UTC)
	pinClock(t, now)

	rec := mustCreate(t, repo, &CreateExtractionRequest{Filename: "invoice.pdf"})

	if rec.ID <= 0 {
		t.Errorf("ID = %d, want positive", rec.ID)
	}
	if rec.MIMEType != "application/pdf" {
		t.Errorf("MIMEType = %q, want application/pdf", rec.MIMEType)
	}
	if rec.Status != string(constants.StatusSuccess) {
		t.Errorf("Status = %q, want success", rec.Status)
	}
	if rec.FileSize != nil {
		t.Errorf("FileSize = %v, want nil", *rec.FileSize)
	}
	if !rec.Data.IsZero() {
		t.Error("Data should be empty")
	}
	if !rec.ExtractionDate.Equal(now) {
		t.Errorf("ExtractionDate = %v, want %v", rec.ExtractionDate, now)
	}

	got, err := repo.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Filename != "invoice.pdf" || got.MIMEType != rec.MIMEType || got.Status != rec.Status {
		t.Errorf("persisted record differs: %+v", got)
	}
	if !got.ExtractionDate.Equal(now) || !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("timestamps not pinned: %v %v %v", got.ExtractionDate, got.CreatedAt, got.UpdatedAt)
	}
}

func TestCreatePreservesSubmittedFields(t *testing.T) {
	repo, _ := testSetup(t)

	rec := mustCreate(t, repo, &CreateExtractionRequest{
		Filename: "scan.png",
		FileSize: sizePtr(123456),
		MIMEType: "image/png",
		Status:   string(constants.StatusFailed),
		Data:     json.RawMessage(`{"pages": 3, "lang": "en"}`),
	})

	got, err := repo.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Filename != "scan.png" {
		t.Errorf("Filename = %q", got.Filename)
	}
	if got.FileSize == nil || *got.FileSize != 123456 {
		t.Errorf("FileSize = %v, want 123456", got.FileSize)
	}
	if got.MIMEType != "image/png" {
		t.Errorf("MIMEType = %q", got.MIMEType)
	}
	if got.Status != "failed" {
		t.Errorf("Status = %q", got.Status)
	}
	if !got.Data.IsStructured() {
		t.Fatal("Data should be structured")
	}
	if string(got.Data.Structured()) != `{"pages": 3, "lang": "en"}` {
		t.Errorf("Data = %s, want stored text verbatim", got.Data.Structured())
	}
}

func TestCreateRejectsBlankFilename(t *testing.T) {
	repo, _ := testSetup(t)

	for _, filename := range []string{"", "   "} {
		_, err := repo.Create(context.Background(), &CreateExtractionRequest{Filename: filename})
		var verr *common.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Create(%q) error = %v, want ValidationError", filename, err)
		}
		if verr.Message != "Filename is required" {
			t.Errorf("message = %q, want %q", verr.Message, "Filename is required")
		}
	}
}

func TestCreateRejectsNegativeFileSize(t *testing.T) {
	repo, _ := testSetup(t)

	_, err := repo.Create(context.Background(), &CreateExtractionRequest{
		Filename: "invoice.pdf",
		FileSize: sizePtr(-1),
	})
	var verr *common.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if verr.Field != "file_size" {
		t.Errorf("field = %q, want file_size", verr.Field)
	}
}

// --- get tests ---

func TestGetNotFound(t *testing.T) {
	repo, _ := testSetup(t)

	_, err := repo.Get(context.Background(), 42)
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestGetClassifiesPayload(t *testing.T) {
	repo, db := testSetup(t)
	date := "2026-03-15 10:00:00"

	_, err := db.Exec(
		`INSERT INTO extractions (id, filename, extraction_date, status, data_json, created_at, updated_at)
		 VALUES (1, 'a.pdf', ?, 'success', '{"total": 12.5}', ?, ?),
		        (2, 'b.pdf', ?, 'success', 'plain text, not json', ?, ?),
		        (3, 'c.pdf', ?, 'success', NULL, ?, ?)`,
		date, date, date, date, date, date, date, date, date,
	)
	if err != nil {
		t.Fatal(err)
	}

	structured, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !structured.Data.IsStructured() || string(structured.Data.Structured()) != `{"total": 12.5}` {
		t.Errorf("record 1 payload = %+v, want structured verbatim", structured.Data)
	}

	raw, err := repo.Get(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Data.IsStructured() || raw.Data.Raw() != "plain text, not json" {
		t.Errorf("record 2 payload = %+v, want raw fallback", raw.Data)
	}

	empty, err := repo.Get(context.Background(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if !empty.Data.IsZero() {
		t.Errorf("record 3 payload = %+v, want empty", empty.Data)
	}
}

// --- list tests ---

func TestListPaginatesStably(t *testing.T) {
	repo, db := testSetup(t)

	dates := []string{
		"2026-03-15 10:00:00",
		"2026-03-14 10:00:00",
		"2026-03-13 10:00:00",
		"2026-03-12 10:00:00",
		"2026-03-11 10:00:00",
	}
	for i, date := range dates {
		seedExtraction(t, db, filenames5()[i], date, nil)
	}

	var seen []string
	for page := 1; page <= 3; page++ {
		recs, total, err := repo.List(context.Background(), ListParams{Page: page, PerPage: 2})
		if err != nil {
			t.Fatal(err)
		}
		if total != 5 {
			t.Errorf("page %d: total = %d, want 5", page, total)
		}
		wantLen := 2
		if page == 3 {
			wantLen = 1
		}
		if len(recs) != wantLen {
			t.Fatalf("page %d: got %d records, want %d", page, len(recs), wantLen)
		}
		seen = append(seen, filenames(recs)...)
	}

	if !equalStrings(seen, filenames5()) {
		t.Errorf("pages concatenated = %v, want %v", seen, filenames5())
	}
}

func filenames5() []string {
	return []string{"e1.pdf", "e2.pdf", "e3.pdf", "e4.pdf", "e5.pdf"}
}

func TestListOrdersMostRecentFirst(t *testing.T) {
	repo, db := testSetup(t)

	seedExtraction(t, db, "old.pdf", "2026-03-10 09:00:00", nil)
	seedExtraction(t, db, "new.pdf", "2026-03-15 09:00:00", nil)
	// Same instant as new.pdf; later insert wins the tie.
	seedExtraction(t, db, "tied.pdf", "2026-03-15 09:00:00", nil)

	recs, _, err := repo.List(context.Background(), ListParams{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"tied.pdf", "new.pdf", "old.pdf"}
	if !equalStrings(filenames(recs), want) {
		t.Errorf("order = %v, want %v", filenames(recs), want)
	}
}

func TestListSearchIsCaseInsensitive(t *testing.T) {
	repo, db := testSetup(t)

	seedExtraction(t, db, "Quarterly_Report.PDF", "2026-03-15 10:00:00", nil)
	seedExtraction(t, db, "summary.pdf", "2026-03-14 10:00:00", nil)
	seedExtraction(t, db, "notes.txt", "2026-03-13 10:00:00", nil)

	cases := []struct {
		search string
		want   []string
	}{
		{"report", []string{"Quarterly_Report.PDF"}},
		{"PDF", []string{"Quarterly_Report.PDF", "summary.pdf"}},
		{"", []string{"Quarterly_Report.PDF", "summary.pdf", "notes.txt"}},
		{"zzz", []string{}},
	}
	for _, tc := range cases {
		recs, total, err := repo.List(context.Background(), ListParams{
			Filter:  Filter{Search: tc.search},
			Page:    1,
			PerPage: 10,
		})
		if err != nil {
			t.Fatal(err)
		}
		if int(total) != len(tc.want) {
			t.Errorf("search %q: total = %d, want %d", tc.search, total, len(tc.want))
		}
		if !equalStrings(filenames(recs), tc.want) {
			t.Errorf("search %q: got %v, want %v", tc.search, filenames(recs), tc.want)
		}
	}
}

func TestListDateWindows(t *testing.T) {
	repo, db := testSetup(t)
	pinClock(t, time.Date(2026, 3, 15, 14, 30, 45, 0, time.UTC))

	seedExtraction(t, db, "today.pdf", "2026-03-15 08:00:00", nil)
	seedExtraction(t, db, "3d.pdf", "2026-03-12 08:00:00", nil)
	seedExtraction(t, db, "10d.pdf", "2026-03-05 08:00:00", nil)
	seedExtraction(t, db, "40d.pdf", "2026-02-03 08:00:00", nil)

	cases := []struct {
		filter constants.DateFilter
		want   int
	}{
		{constants.DateFilterToday, 1},
		{constants.DateFilterWeek, 2},
		{constants.DateFilterMonth, 3},
		{constants.DateFilterNone, 4},
		{constants.DateFilter("fortnight"), 4},
	}
	for _, tc := range cases {
		_, total, err := repo.List(context.Background(), ListParams{
			Filter:  Filter{DateFilter: tc.filter},
			Page:    1,
			PerPage: 10,
		})
		if err != nil {
			t.Fatal(err)
		}
		if int(total) != tc.want {
			t.Errorf("filter %q: total = %d, want %d", tc.filter, total, tc.want)
		}
	}
}

func TestListCombinesFilters(t *testing.T) {
	repo, db := testSetup(t)
	pinClock(t, time.Date(2026, 3, 15, 14, 30, 45, 0, time.UTC))

	seedExtraction(t, db, "report_recent.pdf", "2026-03-14 08:00:00", nil)
	seedExtraction(t, db, "report_old.pdf", "2026-02-01 08:00:00", nil)
	seedExtraction(t, db, "summary_recent.pdf", "2026-03-14 09:00:00", nil)

	recs, total, err := repo.List(context.Background(), ListParams{
		Filter:  Filter{Search: "report", DateFilter: constants.DateFilterWeek},
		Page:    1,
		PerPage: 10,
	})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(recs) != 1 || recs[0].Filename != "report_recent.pdf" {
		t.Errorf("got %v (total %d), want only report_recent.pdf", filenames(recs), total)
	}
}

func TestListAllSkipsPagination(t *testing.T) {
	repo, db := testSetup(t)

	for i, date := range []string{"2026-03-15 10:00:00", "2026-03-14 10:00:00", "2026-03-13 10:00:00"} {
		seedExtraction(t, db, filenames5()[i], date, nil)
	}

	recs, err := repo.ListAll(context.Background(), Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 3 {
		t.Errorf("got %d records, want all 3", len(recs))
	}
}

// --- delete tests ---

func TestDeleteRemovesExactlyOne(t *testing.T) {
	repo, _ := testSetup(t)

	keep := mustCreate(t, repo, &CreateExtractionRequest{Filename: "keep.pdf"})
	gone := mustCreate(t, repo, &CreateExtractionRequest{Filename: "gone.pdf"})

	if err := repo.Delete(context.Background(), gone.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Get(context.Background(), gone.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("deleted record still readable, err = %v", err)
	}
	if _, err := repo.Get(context.Background(), keep.ID); err != nil {
		t.Errorf("unrelated record gone: %v", err)
	}

	// Repeating the delete finds nothing.
	if err := repo.Delete(context.Background(), gone.ID); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestDeleteAllReportsCount(t *testing.T) {
	repo, _ := testSetup(t)

	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		mustCreate(t, repo, &CreateExtractionRequest{Filename: name})
	}

	deleted, err := repo.DeleteAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	deleted, err = repo.DeleteAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("second DeleteAll = %d, want 0", deleted)
	}

	_, total, err := repo.List(context.Background(), ListParams{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 {
		t.Errorf("total after clear = %d, want 0", total)
	}
}

// --- metrics tests ---

func TestMetricsEmptyStore(t *testing.T) {
	repo, _ := testSetup(t)

	m, err := repo.Metrics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalExtractions != 0 || m.ThisWeek != 0 {
		t.Errorf("counts = %d/%d, want 0/0", m.TotalExtractions, m.ThisWeek)
	}
	if m.AvgSize != "—" {
		t.Errorf("AvgSize = %q, want placeholder", m.AvgSize)
	}
	if m.SuccessRate != "0%" {
		t.Errorf("SuccessRate = %q, want 0%%", m.SuccessRate)
	}
}

func TestMetricsComputesAggregates(t *testing.T) {
	repo, db := testSetup(t)
	pinClock(t, time.Date(2026, 3, 15, 14, 30, 45, 0, time.UTC))

	twoMiB := int64(2 * 1024 * 1024)
	seedExtraction(t, db, "recent1.pdf", "2026-03-14 08:00:00", &twoMiB)
	seedExtraction(t, db, "recent2.pdf", "2026-03-13 08:00:00", &twoMiB)
	seedExtraction(t, db, "old.pdf", "2026-03-05 08:00:00", nil)

	m, err := repo.Metrics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.TotalExtractions != 3 {
		t.Errorf("TotalExtractions = %d, want 3", m.TotalExtractions)
	}
	if m.ThisWeek != 2 {
		t.Errorf("ThisWeek = %d, want 2", m.ThisWeek)
	}
	if m.AvgSize != "2.0 MB" {
		t.Errorf("AvgSize = %q, want 2.0 MB", m.AvgSize)
	}
	if m.SuccessRate != "100%" {
		t.Errorf("SuccessRate = %q, want 100%%", m.SuccessRate)
	}
}

func TestMetricsPlaceholderWithoutSizes(t *testing.T) {
	repo, _ := testSetup(t)

	mustCreate(t, repo, &CreateExtractionRequest{Filename: "nosize.pdf"})

	m, err := repo.Metrics(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if m.AvgSize != "—" {
		t.Errorf("AvgSize = %q, want placeholder", m.AvgSize)
	}
	if m.SuccessRate != "100%" {
		t.Errorf("SuccessRate = %q, want 100%%", m.SuccessRate)
	}
}

// --- health tests ---

func TestHealthCheck(t *testing.T) {
	repo, db := testSetup(t)

	if err := repo.HealthCheck(context.Background(), time.Second); err != nil {
		t.Errorf("HealthCheck on open database = %v", err)
	}

	db.Close()
	if err := repo.HealthCheck(context.Background(), time.Second); err == nil {
		t.Error("HealthCheck on closed database = nil, want error")
	}
}
