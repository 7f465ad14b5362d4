package storage

import (
	"context"
	"errors"
	"testing"
	"time"
)

func strPtr(s string) *string { return &s }

func TestQueryRepo_InsertUpdateList(t *testing.T) {
	db := newTestDB(t)
	repo := NewQueryRepo(db)
	ctx := context.Background()

	q := &QueryRecord{
		ProjectID:  "p1",
		Prompt:     strPtr("What is X?"),
		Embedding:  []float32{0.1, 0.2},
		References: []string{"docs/a.md"},
	}
	if err := repo.Insert(ctx, q); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if q.ID == "" {
		t.Fatal("Insert() should assign an ID")
	}

	if err := repo.Update(ctx, q.ID, strPtr("X is Y."), nil); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if err := repo.Update(ctx, "missing", nil, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update() missing error = %v, want ErrNotFound", err)
	}

	list, err := repo.ListRecent(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("ListRecent() len = %d, want 1", len(list))
	}
	got := list[0]
	if got.Response == nil || *got.Response != "X is Y." {
		t.Errorf("Response = %v, want X is Y.", got.Response)
	}
	if got.NoAnswerReason != nil {
		t.Errorf("NoAnswerReason = %v, want nil", *got.NoAnswerReason)
	}
	if len(got.Embedding) != 2 {
		t.Errorf("Embedding = %v, want 2 values", got.Embedding)
	}
	if len(got.References) != 1 || got.References[0] != "docs/a.md" {
		t.Errorf("References = %v", got.References)
	}
}

func TestQueryRepo_InsertWithoutContent(t *testing.T) {
	db := newTestDB(t)
	repo := NewQueryRepo(db)
	ctx := context.Background()

	q := &QueryRecord{ProjectID: "p1", NoAnswerReason: strPtr(NoAnswerNoSections)}
	if err := repo.Insert(ctx, q); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	list, err := repo.ListRecent(ctx, "p1", 10)
	if err != nil {
		t.Fatalf("ListRecent() error = %v", err)
	}
	if list[0].Prompt != nil || list[0].Response != nil || list[0].Embedding != nil {
		t.Errorf("ListRecent() = %+v, want no prompt, response or embedding", list[0])
	}
	if list[0].NoAnswerReason == nil || *list[0].NoAnswerReason != NoAnswerNoSections {
		t.Errorf("NoAnswerReason = %v, want %s", list[0].NoAnswerReason, NoAnswerNoSections)
	}
}

func TestUsageRepo_SumSince(t *testing.T) {
	db := newTestDB(t)
	repo := NewUsageRepo(db)
	ctx := context.Background()

	records := []UsageRecord{
		{ProjectID: "p1", Kind: UsageKindEmbedding, Model: "m", Tokens: 100},
		{ProjectID: "p1", Kind: UsageKindEmbedding, Model: "m", Tokens: 50},
		{ProjectID: "p1", Kind: UsageKindCompletion, Model: "m", Tokens: 7},
		{ProjectID: "p2", Kind: UsageKindEmbedding, Model: "m", Tokens: 1000},
	}
	for _, r := range records {
		if err := repo.Record(ctx, r); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	got, err := repo.SumSince(ctx, "p1", UsageKindEmbedding, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("SumSince() error = %v", err)
	}
	if got != 150 {
		t.Errorf("SumSince() = %d, want 150", got)
	}

	got, err = repo.SumSince(ctx, "p1", UsageKindEmbedding, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("SumSince() future error = %v", err)
	}
	if got != 0 {
		t.Errorf("SumSince() future = %d, want 0", got)
	}
}
