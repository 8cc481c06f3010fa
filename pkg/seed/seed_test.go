package seed

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/cuemby/dbarena/pkg/dbkind"
)

func TestBuildOrderRespectsForeignKeys(t *testing.T) {
	tables := []TableRule{
		{Name: "orders", Columns: []ColumnRule{{Name: "user_id", Generator: Generator{Kind: GenForeignKey, RefTable: "users", RefColumn: "id"}}}},
		{Name: "users", Columns: []ColumnRule{{Name: "id", Generator: Generator{Kind: GenSequential}}}},
	}

	order, err := BuildOrder(tables)
	if err != nil {
		t.Fatalf("BuildOrder: %v", err)
	}
	if order[0] != "users" || order[1] != "orders" {
		t.Errorf("expected [users orders], got %v", order)
	}
}

func TestBuildOrderDetectsCycle(t *testing.T) {
	tables := []TableRule{
		{Name: "a", Columns: []ColumnRule{{Name: "b_id", Generator: Generator{Kind: GenForeignKey, RefTable: "b", RefColumn: "id"}}}},
		{Name: "b", Columns: []ColumnRule{{Name: "a_id", Generator: Generator{Kind: GenForeignKey, RefTable: "a", RefColumn: "id"}}}},
	}
	if _, err := BuildOrder(tables); err == nil {
		t.Fatal("expected cycle detection error")
	}
}

func TestBuildOrderAllowsSelfEdge(t *testing.T) {
	tables := []TableRule{
		{Name: "employees", Columns: []ColumnRule{
			{Name: "id", Generator: Generator{Kind: GenSequential}},
			{Name: "manager_id", Generator: Generator{Kind: GenForeignKey, RefTable: "employees", RefColumn: "id"}},
		}},
	}
	order, err := BuildOrder(tables)
	if err != nil {
		t.Fatalf("BuildOrder should allow self-edges: %v", err)
	}
	if len(order) != 1 {
		t.Errorf("expected 1 table, got %d", len(order))
	}
}

func TestRngForIsDeterministic(t *testing.T) {
	r1 := rngFor(42, "users", "age")
	r2 := rngFor(42, "users", "age")
	a := r1.Int64N(1000)
	b := r2.Int64N(1000)
	if a != b {
		t.Errorf("expected identical sequences for identical seed triples, got %d and %d", a, b)
	}

	r3 := rngFor(42, "users", "name")
	c := r3.Int64N(1000)
	if c == a {
		t.Log("warning: different column produced the same value; not necessarily a bug, but worth eyeballing")
	}
}

func TestExpandTemplate(t *testing.T) {
	cnt := newCounters()
	out := expandTemplate("user-{sequential}", "users", "handle", 0, rngFor(1, "users", "handle"), cnt)
	if out != "user-0" {
		t.Errorf("expected user-0, got %q", out)
	}
	out2 := expandTemplate("user-{sequential}", "users", "handle", 1, rngFor(1, "users", "handle"), cnt)
	if out2 != "user-1" {
		t.Errorf("expected user-1, got %q", out2)
	}
}

func TestSelfReferentialFirstRowIsNull(t *testing.T) {
	reg := newRegistry()
	cnt := newCounters()
	rng := rngFor(7, "employees", "manager_id")

	gen := Generator{Kind: GenForeignKey, RefTable: "employees", RefColumn: "id"}
	v, err := generateValue(gen, "employees", "manager_id", 0, rng, cnt, reg)
	if err != nil {
		t.Fatalf("generateValue: %v", err)
	}
	if v != nil {
		t.Errorf("expected NULL for the first self-referential row, got %v", v)
	}

	reg.record("employees", "id", int64(1))
	v2, err := generateValue(gen, "employees", "manager_id", 1, rng, cnt, reg)
	if err != nil {
		t.Fatalf("generateValue: %v", err)
	}
	if v2 != int64(1) {
		t.Errorf("expected second row to reference the first row's id, got %v", v2)
	}
}

func TestRunSeedsInOrderAndInsertsBatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	seed42 := uint64(42)
	rs := RuleSet{
		GlobalSeed: &seed42,
		BatchSize:  2,
		Tables: []TableRule{
			{Name: "users", RowCount: 3, Columns: []ColumnRule{
				{Name: "id", Generator: Generator{Kind: GenSequential, Start: 1}},
				{Name: "name", Generator: Generator{Kind: GenName, NameForm: NameFull}},
			}},
		},
	}

	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO "users"`).WillReturnResult(sqlmock.NewResult(0, 1))

	s, err := New(db, dbkind.Postgres)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := s.Run(context.Background(), rs, Options{Scale: SizeMedium})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.TotalRows != 3 {
		t.Errorf("expected 3 total rows, got %d", summary.TotalRows)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestRunStopsOnBatchFailureWithoutRollback(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer db.Close()

	rs := RuleSet{
		BatchSize: 1,
		Tables: []TableRule{
			{Name: "widgets", RowCount: 2, Columns: []ColumnRule{
				{Name: "id", Generator: Generator{Kind: GenSequential}},
			}},
		},
	}

	mock.ExpectExec(`INSERT INTO "widgets"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "widgets"`).WillReturnError(context.DeadlineExceeded)

	s, err := New(db, dbkind.Postgres)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := s.Run(context.Background(), rs, Options{Scale: SizeMedium})
	if err == nil {
		t.Fatal("expected batch failure to stop the run")
	}
	if len(summary.Tables) != 1 || summary.Tables[0].RowsInserted != 1 {
		t.Errorf("expected the first successful batch to survive (no rollback), got %+v", summary.Tables)
	}
}
