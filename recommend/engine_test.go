package recommend

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/store"
)

func intPtr(v int) *int { return &v }

// seedCatalog builds a small catalog with two clearly separated topics:
// text/vector content (v1-v3) and unrelated content (v4, v5).
func seedCatalog(t *testing.T) *store.MemoryCatalog {
	t.Helper()
	cat := store.NewMemoryCatalog()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	videos := []*core.Video{
		{
			ID: "v1", ChannelID: "ch-ml", Title: "Machine learning with neural networks",
			Description: "machine learning models and vectors",
			CreatedAt:   base.Add(1 * time.Minute),
		},
		{
			ID: "v2", ChannelID: "ch-ml", Title: "Text vectorization with tf idf",
			Description: "vector weights for text search",
			CreatedAt:   base.Add(2 * time.Minute),
		},
		{
			ID: "v3", ChannelID: "ch-math", Title: "Cosine similarity between vectors",
			Description: "comparing text vectors for recommendations",
			CreatedAt:   base.Add(3 * time.Minute),
		},
		{
			ID: "v4", ChannelID: "ch-food", Title: "Pasta cooking guide",
			Description: "italian pasta recipes",
			CreatedAt:   base.Add(4 * time.Minute),
		},
		{
			ID: "v5", ChannelID: "ch-music", Title: "Guitar lessons for beginners",
			Description: "learn guitar chords",
			CreatedAt:   base.Add(5 * time.Minute),
		},
	}
	for _, v := range videos {
		if err := cat.UpsertVideo(context.Background(), v); err != nil {
			t.Fatalf("seed video %s: %v", v.ID, err)
		}
	}
	return cat
}

func addEvent(t *testing.T, cat *store.MemoryCatalog, userID, videoID string, et core.EventType, watchSeconds *int, at time.Time) {
	t.Helper()
	err := cat.AddInteraction(context.Background(), &core.Interaction{
		UserID:       userID,
		VideoID:      videoID,
		EventType:    et,
		WatchSeconds: watchSeconds,
		EventTime:    at,
	})
	if err != nil {
		t.Fatalf("add interaction: %v", err)
	}
}

func newEngine(cat *store.MemoryCatalog) *Engine {
	return &Engine{Videos: cat, Interactions: cat}
}

func TestRecommendSimilarity(t *testing.T) {
	cat := seedCatalog(t)
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	addEvent(t, cat, "u1", "v1", core.EventWatch, intPtr(510), now)
	addEvent(t, cat, "u1", "v2", core.EventLike, nil, now.Add(time.Minute))

	items, err := newEngine(cat).Recommend(context.Background(), &core.RecommendContext{UserID: "u1", K: 3})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}

	// interacted videos never resurface
	for _, it := range items {
		if it.ID == "v1" || it.ID == "v2" {
			t.Errorf("interacted video %s in results", it.ID)
		}
	}

	// the vector/text video outranks the unrelated ones
	if items[0].ID != "v3" {
		t.Errorf("top item = %s, want v3", items[0].ID)
	}
	if items[0].Score <= 0 {
		t.Errorf("top score = %v, want > 0", items[0].Score)
	}

	// scores are non-increasing
	for i := 1; i < len(items); i++ {
		if items[i].Score > items[i-1].Score {
			t.Errorf("scores not sorted: %v then %v", items[i-1].Score, items[i].Score)
		}
	}

	// similarity path reasons
	found := false
	for _, reason := range items[0].Reasons {
		if reason == "Similar to your recent watched content" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing baseline reason, got %v", items[0].Reasons)
	}
	hasOverlap := false
	for _, reason := range items[0].Reasons {
		if strings.HasPrefix(reason, "Overlapping keywords: ") {
			hasOverlap = true
			parts := strings.Split(strings.TrimPrefix(reason, "Overlapping keywords: "), ", ")
			if len(parts) == 0 || len(parts) > 3 {
				t.Errorf("overlap reason lists %d keywords: %q", len(parts), reason)
			}
		}
	}
	if !hasOverlap {
		t.Errorf("top item should carry an overlap reason, got %v", items[0].Reasons)
	}
}

func TestRecommendZeroScoreTieKeepsCatalogOrder(t *testing.T) {
	cat := seedCatalog(t)
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	addEvent(t, cat, "u1", "v1", core.EventWatch, intPtr(300), now)
	addEvent(t, cat, "u1", "v2", core.EventLike, nil, now)

	items, err := newEngine(cat).Recommend(context.Background(), &core.RecommendContext{UserID: "u1", K: 5})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// v4 and v5 share no vocabulary with the profile: score 0, kept,
	// ordered by catalog order (created_at desc puts v5 before v4)
	if len(items) != 3 {
		t.Fatalf("got %d items, want 3", len(items))
	}
	if items[1].ID != "v5" || items[2].ID != "v4" {
		t.Errorf("zero-score tie order = %s, %s; want v5, v4", items[1].ID, items[2].ID)
	}
	if items[1].Score != 0 || items[2].Score != 0 {
		t.Errorf("unrelated videos should score 0, got %v / %v", items[1].Score, items[2].Score)
	}
}

func TestRecommendColdStart(t *testing.T) {
	cat := seedCatalog(t)

	items, err := newEngine(cat).Recommend(context.Background(), &core.RecommendContext{UserID: "newcomer", K: 5})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("got %d items, want 5", len(items))
	}

	// richest metadata first: v2 carries the most distinct terms
	if items[0].ID != "v2" {
		t.Errorf("top cold-start item = %s, want v2", items[0].ID)
	}
	if items[0].Score != 1.0 {
		t.Errorf("top cold-start score = %v, want 1.0", items[0].Score)
	}

	for _, it := range items {
		var hasBase, hasDetail bool
		for _, reason := range it.Reasons {
			if reason == "Cold start recommendation based on rich metadata" {
				hasBase = true
			}
			if reason == "Prioritized by metadata richness and recency" {
				hasDetail = true
			}
		}
		if !hasBase || !hasDetail {
			t.Errorf("item %s missing cold-start reasons: %v", it.ID, it.Reasons)
		}
	}

	// equal richness breaks ties by recency: v3 (newer) before v1
	pos := map[string]int{}
	for i, it := range items {
		pos[it.ID] = i
	}
	if pos["v3"] > pos["v1"] {
		t.Errorf("v3 should rank before v1 on recency, got order %v", items)
	}
	if pos["v5"] > pos["v4"] {
		t.Errorf("v5 should rank before v4 on recency")
	}
}

func TestRecommendSkipOnlyHistoryFallsBackToColdStart(t *testing.T) {
	cat := seedCatalog(t)
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	addEvent(t, cat, "u2", "v1", core.EventSkip, nil, now)

	items, err := newEngine(cat).Recommend(context.Background(), &core.RecommendContext{UserID: "u2", K: 5})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	// skip carries no interest signal but still excludes the video
	for _, it := range items {
		if it.ID == "v1" {
			t.Error("skipped video should be excluded")
		}
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}
	hasCold := false
	for _, reason := range items[0].Reasons {
		if reason == "Cold start recommendation based on rich metadata" {
			hasCold = true
		}
	}
	if !hasCold {
		t.Errorf("skip-only history should take the cold-start path, got %v", items[0].Reasons)
	}
}

func TestRecommendColdStartNormalizesOverUnseenCandidates(t *testing.T) {
	cat := seedCatalog(t)
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	// v2 carries the richest metadata; skipping it must not deflate the
	// scores of the remaining candidates
	addEvent(t, cat, "u3", "v2", core.EventSkip, nil, now)

	items, err := newEngine(cat).Recommend(context.Background(), &core.RecommendContext{UserID: "u3", K: 5})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}
	for _, it := range items {
		if it.ID == "v2" {
			t.Error("skipped video should be excluded")
		}
	}

	// max term count is taken over the unseen candidates (v1/v3, 6 terms
	// each), so the richest remaining video still scores exactly 1.0
	if items[0].Score != 1.0 {
		t.Errorf("top cold-start score = %v, want 1.0", items[0].Score)
	}
	// v1 and v3 tie on richness; recency puts v3 first
	if items[0].ID != "v3" || items[1].ID != "v1" {
		t.Errorf("order = %s, %s; want v3, v1", items[0].ID, items[1].ID)
	}
	if items[1].Score != 1.0 {
		t.Errorf("tied candidate score = %v, want 1.0", items[1].Score)
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	cat := store.NewMemoryCatalog()
	items, err := newEngine(cat).Recommend(context.Background(), &core.RecommendContext{UserID: "u1", K: 10})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("empty catalog returned %d items", len(items))
	}
}

func TestRecommendEmptyUser(t *testing.T) {
	cat := seedCatalog(t)
	e := newEngine(cat)

	items, err := e.Recommend(context.Background(), nil)
	if err != nil || len(items) != 0 {
		t.Errorf("nil context: items=%d err=%v", len(items), err)
	}
	items, err = e.Recommend(context.Background(), &core.RecommendContext{UserID: ""})
	if err != nil || len(items) != 0 {
		t.Errorf("empty user: items=%d err=%v", len(items), err)
	}
}

func TestRecommendDefaultK(t *testing.T) {
	cat := seedCatalog(t)
	items, err := newEngine(cat).Recommend(context.Background(), &core.RecommendContext{UserID: "u1", K: 0})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// k defaults to 20, bounded by catalog size
	if len(items) != 5 {
		t.Errorf("got %d items, want 5", len(items))
	}
}

func TestRecommendDeterministic(t *testing.T) {
	cat := seedCatalog(t)
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	addEvent(t, cat, "u1", "v1", core.EventWatch, intPtr(510), now)
	addEvent(t, cat, "u1", "v2", core.EventLike, nil, now)

	e := newEngine(cat)
	rctx := &core.RecommendContext{UserID: "u1", K: 5}
	first, err := e.Recommend(context.Background(), rctx)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}

	for run := 0; run < 5; run++ {
		again, err := e.Recommend(context.Background(), &core.RecommendContext{UserID: "u1", K: 5})
		if err != nil {
			t.Fatalf("Recommend (run %d): %v", run, err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d returned %d items, want %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i].ID != first[i].ID || again[i].Score != first[i].Score {
				t.Fatalf("run %d diverged at %d: %s/%v vs %s/%v",
					run, i, again[i].ID, again[i].Score, first[i].ID, first[i].Score)
			}
		}
	}
}

func TestRecommendScoresRounded(t *testing.T) {
	cat := seedCatalog(t)
	now := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	addEvent(t, cat, "u1", "v1", core.EventWatch, intPtr(510), now)

	items, err := newEngine(cat).Recommend(context.Background(), &core.RecommendContext{UserID: "u1", K: 5})
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	for _, it := range items {
		if it.Score != round6(it.Score) {
			t.Errorf("score %v not rounded to 6 decimals", it.Score)
		}
	}
}
