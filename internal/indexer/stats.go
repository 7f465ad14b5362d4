package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
)

// ChunkerVersion identifies the section splitting rules. Bump it when they change.
const ChunkerVersion = "v2.0"

// SourceStats describes what is indexed for one source.
type SourceStats struct {
	Files          int             `json:"files"`
	Sections       int             `json:"sections"`
	TokenStats     ChunkTokenStats `json:"token_stats"`
	ChunkerVersion string          `json:"chunker_version"`
	// IndexVersion hashes the chunker version, embedding model and size limits.
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats summarizes section token counts.
type ChunkTokenStats struct {
	Total int     `json:"total"`
	Min   int     `json:"min"`
	Max   int     `json:"max"`
	Mean  float64 `json:"mean"`
	P95   int     `json:"p95"`
}

// Stats computes the indexing statistics of a source.
func (x *SectionIndexer) Stats(ctx context.Context, sourceID string) (*SourceStats, error) {
	files, err := x.files.CountBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}

	counts, err := x.sections.TokenCountsBySource(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load section token counts: %w", err)
	}

	return &SourceStats{
		Files:          files,
		Sections:       len(counts),
		TokenStats:     computeTokenStats(counts),
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   indexVersion(x.embeddingModel),
	}, nil
}

func indexVersion(embeddingModel string) string {
	input := fmt.Sprintf("%s|%s|min=%d|max=%d", ChunkerVersion, embeddingModel, minSectionRunes, maxSectionRunes)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:16]
}

// computeTokenStats computes total, min, max, mean and p95 of token counts.
func computeTokenStats(counts []int) ChunkTokenStats {
	if len(counts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := append([]int(nil), counts...)
	sort.Ints(sorted)

	total := 0
	for _, n := range sorted {
		total += n
	}
	mean := float64(total) / float64(len(sorted))

	p95 := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95 < 0 {
		p95 = 0
	}

	return ChunkTokenStats{
		Total: total,
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Mean:  math.Round(mean*100) / 100,
		P95:   sorted[p95],
	}
}
