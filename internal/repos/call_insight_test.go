package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/CryptracSolutions/ultaura-insights/internal/repos/testutil"
)

func TestCallInsightRepoListByLine(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewCallInsightRepo(db, testutil.Logger(t))
	ctx := context.Background()

	line := testutil.SeedLine(t, ctx, tx, uuid.New())
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		testutil.SeedEncryptedInsight(t, ctx, tx, line, uuid.New(),
			[]byte("ct"), make([]byte, 12), make([]byte, 16), base.AddDate(0, 0, i))
	}

	all, err := repo.ListByLine(ctx, tx, line.ID, nil, nil, 0)
	if err != nil {
		t.Fatalf("ListByLine: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListByLine: expected 3 rows, got %d", len(all))
	}
	if !all[0].CreatedAt.After(all[1].CreatedAt) {
		t.Fatalf("ListByLine: expected newest first, got %v then %v", all[0].CreatedAt, all[1].CreatedAt)
	}

	// Half-open [start, end): the row exactly at end is excluded.
	start := base.AddDate(0, 0, 1)
	end := base.AddDate(0, 0, 2)
	bounded, err := repo.ListByLine(ctx, tx, line.ID, &start, &end, 0)
	if err != nil {
		t.Fatalf("ListByLine bounded: %v", err)
	}
	if len(bounded) != 1 {
		t.Fatalf("ListByLine bounded: expected 1 row, got %d", len(bounded))
	}

	capped, err := repo.ListByLine(ctx, tx, line.ID, nil, nil, 2)
	if err != nil {
		t.Fatalf("ListByLine capped: %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("ListByLine capped: expected 2 rows, got %d", len(capped))
	}
}

func TestCallSessionRepoExcludesTestCalls(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewCallSessionRepo(db, testutil.Logger(t))
	ctx := context.Background()

	line := testutil.SeedLine(t, ctx, tx, uuid.New())
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	testutil.SeedCallSession(t, ctx, tx, line, base, false)
	testutil.SeedCallSession(t, ctx, tx, line, base.Add(time.Hour), true)

	sessions, err := repo.ListByLine(ctx, tx, line.ID, base.AddDate(0, 0, -1), base.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("ListByLine: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected test call excluded, got %d sessions", len(sessions))
	}
	if sessions[0].IsTestCall {
		t.Fatal("test call leaked into analytics fetch")
	}
}
