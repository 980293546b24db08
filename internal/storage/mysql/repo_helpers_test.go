package mysql

import (
	"context"
	"strings"
	"testing"

	"claimsfe/internal/storage"
)

func TestMyIdent_EscapesBackticks(t *testing.T) {
	t.Parallel()

	if got := myIdent("tick`name"); got != "`tick``name`" {
		t.Fatalf("myIdent = %q", got)
	}
}

func TestMyFQN_QuotesEachPart(t *testing.T) {
	t.Parallel()

	if got := myFQN("hr.table"); got != "`hr`.`table`" {
		t.Fatalf("myFQN = %q", got)
	}
}

func TestBuildInsert(t *testing.T) {
	t.Parallel()

	stmt, args := buildInsert("features", []string{"patient_id", "n"}, [][]any{{"A", int64(1)}, {"B", nil}})
	want := "INSERT INTO `features` (`patient_id`, `n`) VALUES (?, ?), (?, ?)"
	if stmt != want {
		t.Fatalf("stmt = %q, want %q", stmt, want)
	}
	if len(args) != 4 || args[0] != "A" || args[3] != nil {
		t.Fatalf("args = %v", args)
	}
}

func TestCopyFrom_Guards(t *testing.T) {
	t.Parallel()

	r := &Repository{cfg: Config{Table: "features"}}
	if n, err := r.CopyFrom(context.Background(), nil, nil); err != nil || n != 0 {
		t.Fatalf("empty CopyFrom = %d, %v", n, err)
	}
	if _, err := r.CopyFrom(context.Background(), nil, [][]any{{"A"}}); err == nil {
		t.Fatal("CopyFrom without columns succeeded")
	}
	_, err := r.CopyFrom(context.Background(), []string{"a", "b"}, [][]any{{"A"}})
	if err == nil || !strings.Contains(err.Error(), "row 0 has 1 values for 2 columns") {
		t.Fatalf("err = %v", err)
	}
}

func TestNewRepository_BadInput(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "root@tcp(localhost)/db"}); err == nil {
		t.Fatal("empty table accepted")
	}
	if _, _, err := NewRepository(context.Background(), Config{DSN: "not a dsn", Table: "t"}); err == nil {
		t.Fatal("malformed DSN accepted")
	}
}

// Not parallel: swaps the package hook.
func TestStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	t.Cleanup(func() { newRepository = orig })

	var gotCfg Config
	closed := false
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:    "mysql",
		DSN:     "root@tcp(localhost:3306)/claims",
		Table:   "features",
		Columns: []string{"patient_id"},
	})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if gotCfg.Table != "features" || len(gotCfg.Columns) != 1 {
		t.Fatalf("cfg = %+v", gotCfg)
	}
	repo.Close()
	if !closed {
		t.Fatal("Close did not call the cleanup function")
	}
}
