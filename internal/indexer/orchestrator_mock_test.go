package indexer_test

import (
	"context"
	"testing"

	"docprompt/internal/indexer"
	indexer_mocks "docprompt/internal/indexer/mocks"
	"docprompt/internal/sources"
	storage_mocks "docprompt/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

func pathIs(p string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		item, ok := x.(indexer.Item)
		return ok && item.Path == p
	})
}

func TestGenerateEmbeddings_ChecksumSkip(t *testing.T) {
	contents := map[string]string{"a.md": "unchanged", "b.md": "edited", "c.md": "new"}
	paths := []string{"a.md", "b.md", "c.md"}
	stored := map[string]string{
		"a.md": indexer.Checksum("unchanged"),
		"b.md": indexer.Checksum("before edit"),
	}

	tests := []struct {
		name        string
		force       bool
		wantIndexed []string
	}{
		{name: "unchanged items skipped", force: false, wantIndexed: []string{"b.md", "c.md"}},
		{name: "force retrain", force: true, wantIndexed: []string{"a.md", "b.md", "c.md"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			checksums := storage_mocks.NewMockChecksumStore(ctrl)
			checksums.EXPECT().ListBySource(gomock.Any(), "src-1").Return(stored, nil)

			idx := indexer_mocks.NewMockIndexer(ctrl)
			for _, p := range tt.wantIndexed {
				idx.EXPECT().IndexItem(gomock.Any(), pathIs(p)).Return(indexer.Indexed(3))
				checksums.EXPECT().Upsert(gomock.Any(), "src-1", p, indexer.Checksum(contents[p])).Return(nil)
			}

			o := indexer.NewOrchestrator("p1", checksums, nil, nil, nil, idx)

			var done []string
			doneCh := make(chan string, len(paths))
			result, err := o.GenerateEmbeddings(context.Background(), indexer.GenerateParams{
				SourceID:     "src-1",
				SourceType:   sources.TypeGitHub,
				ItemCount:    len(paths),
				ForceRetrain: tt.force,
				PathOf:       func(i int) string { return paths[i] },
				Resolve: func(ctx context.Context, i int) (*sources.Content, error) {
					return &sources.Content{Name: paths[i], Content: contents[paths[i]]}, nil
				},
				OnItemDone: func(p string) { doneCh <- p },
			})
			if err != nil {
				t.Fatalf("GenerateEmbeddings() error = %v", err)
			}
			close(doneCh)
			for p := range doneCh {
				done = append(done, p)
			}

			if result.Indexed != len(tt.wantIndexed) {
				t.Errorf("Indexed = %d, want %d", result.Indexed, len(tt.wantIndexed))
			}
			if result.Skipped != len(paths)-len(tt.wantIndexed) {
				t.Errorf("Skipped = %d", result.Skipped)
			}
			if len(done) != len(paths) {
				t.Errorf("done callbacks = %v, want every item", done)
			}
			if _, ok := o.State().(indexer.Complete); !ok {
				t.Errorf("state = %T, want Complete", o.State())
			}
		})
	}
}
