package workload

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/cuemby/dbarena/pkg/dbkind"
)

func TestWeightsForPattern(t *testing.T) {
	w, err := WeightsFor("oltp", nil)
	if err != nil {
		t.Fatalf("WeightsFor: %v", err)
	}
	if w.Select != 0.40 || w.Insert != 0.30 || w.Update != 0.25 || w.Delete != 0.05 {
		t.Errorf("unexpected oltp weights: %+v", w)
	}
}

func TestWeightsForRejectsBadCustomMix(t *testing.T) {
	bad := Weights{Select: 0.5, Insert: 0.5, Update: 0.5, Delete: 0.5}
	if _, err := WeightsFor("", &bad); err == nil {
		t.Fatal("expected custom mix summing to 2.0 to be rejected")
	}
}

func TestAllPatternsSumToOne(t *testing.T) {
	for name, w := range patternWeights {
		if d := w.sum(); d < 0.999 || d > 1.001 {
			t.Errorf("pattern %s sums to %.4f, want 1.0", name, d)
		}
	}
}

func TestBuildCatalogProbesSeededMax(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	cols := sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable"}).
		AddRow("id", "integer", "NO").
		AddRow("email", "character varying", "YES")
	mock.ExpectQuery("information_schema").WillReturnRows(cols)
	mock.ExpectQuery(`SELECT COALESCE\(MAX`).WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(42))

	caps, err := dbkind.For(dbkind.Postgres)
	if err != nil {
		t.Fatalf("dbkind.For: %v", err)
	}

	catalog, err := BuildCatalog(context.Background(), db, caps.Dial, []string{"users"})
	if err != nil {
		t.Fatalf("BuildCatalog: %v", err)
	}
	meta := catalog["users"]
	if meta.PKColumn != "id" {
		t.Errorf("expected pk column id, got %s", meta.PKColumn)
	}
	if meta.SeededMax() != 42 {
		t.Errorf("expected seeded max 42, got %d", meta.SeededMax())
	}
}

func TestDeleteTargetsOutOfRangeByDefault(t *testing.T) {
	caps, _ := dbkind.For(dbkind.Postgres)
	meta := &TableMeta{Name: "users", PKColumn: "id", Columns: []ColumnMeta{{Name: "id", DataType: "integer"}}}
	meta.bumpSeededMax(100)

	gen := newGenerator(caps.Dial, []*TableMeta{meta}, Weights{Delete: 1.0}, nil, false)
	for i := 0; i < 20; i++ {
		op := gen.buildDelete(meta)
		pk := op.Args[0].(int64)
		if pk <= 100 {
			t.Fatalf("expected out-of-range pk, got %d", pk)
		}
	}
}

func TestDeleteTargetsInRangeWhenDestructiveAllowed(t *testing.T) {
	caps, _ := dbkind.For(dbkind.Postgres)
	meta := &TableMeta{Name: "users", PKColumn: "id", Columns: []ColumnMeta{{Name: "id", DataType: "integer"}}}
	meta.bumpSeededMax(100)

	gen := newGenerator(caps.Dial, []*TableMeta{meta}, Weights{Delete: 1.0}, nil, true)
	sawInRange := false
	for i := 0; i < 50; i++ {
		op := gen.buildDelete(meta)
		pk := op.Args[0].(int64)
		if pk >= 1 && pk <= 100 {
			sawInRange = true
		}
	}
	if !sawInRange {
		t.Error("expected at least one in-range pk across 50 samples when destructive deletes are allowed")
	}
}

func TestStatsRecordAndSnapshot(t *testing.T) {
	s := NewStats()
	s.Record(OpSelect, 10*time.Millisecond, 2*time.Millisecond, 8*time.Millisecond, nil)
	s.Record(OpSelect, 20*time.Millisecond, 1*time.Millisecond, 19*time.Millisecond, context.DeadlineExceeded)

	snap := s.Snapshot()
	if snap.Total != 2 || snap.Successful != 1 || snap.Failed != 1 {
		t.Errorf("unexpected snapshot totals: %+v", snap)
	}
	if len(snap.RecentErrors) != 1 {
		t.Errorf("expected 1 recorded error, got %d", len(snap.RecentErrors))
	}
	if snap.ByKind[OpSelect].Max != 20*time.Millisecond {
		t.Errorf("expected max latency 20ms, got %v", snap.ByKind[OpSelect].Max)
	}
}

func TestErrorRingIsBounded(t *testing.T) {
	s := NewStats()
	for i := 0; i < errorRingCapacity+10; i++ {
		s.Record(OpInsert, time.Millisecond, 0, time.Millisecond, context.Canceled)
	}
	snap := s.Snapshot()
	if len(snap.RecentErrors) != errorRingCapacity {
		t.Errorf("expected ring capped at %d, got %d", errorRingCapacity, len(snap.RecentErrors))
	}
}
