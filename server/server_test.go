package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/rushteam/vidrec/cache"
	"github.com/rushteam/vidrec/ingest"
	"github.com/rushteam/vidrec/recommend"
	"github.com/rushteam/vidrec/store"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cat := store.NewMemoryCatalog()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })

	srv := &Server{
		Videos:              cat,
		Interactions:        cat,
		Engine:              &recommend.Engine{Videos: cat, Interactions: cat},
		Cache:               cache.New(kv),
		EnableTakeoutImport: true,
		Log:                 zerolog.Nop(),
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func seedVideo(t *testing.T, ts *httptest.Server, id, title, description string) {
	t.Helper()
	resp := postJSON(t, ts.URL+"/videos/upsert", VideoUpsert{
		VideoID:     id,
		ChannelID:   "ch-" + id,
		Title:       title,
		Description: description,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("seed video %s: status %d", id, resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["status"] != "ok" {
		t.Errorf("health = %v", body)
	}
}

func TestUpsertAndListVideos(t *testing.T) {
	_, ts := newTestServer(t)
	seedVideo(t, ts, "v1", "Machine learning basics", "intro to ml")

	resp, err := http.Get(ts.URL + "/videos")
	if err != nil {
		t.Fatalf("GET /videos: %v", err)
	}
	videos := decodeBody[[]VideoOut](t, resp)
	if len(videos) != 1 || videos[0].VideoID != "v1" {
		t.Fatalf("videos = %+v", videos)
	}

	// second upsert invalidates the cached list
	seedVideo(t, ts, "v2", "Cooking pasta", "italian recipes")
	resp, err = http.Get(ts.URL + "/videos")
	if err != nil {
		t.Fatalf("GET /videos: %v", err)
	}
	videos = decodeBody[[]VideoOut](t, resp)
	if len(videos) != 2 {
		t.Errorf("after second upsert got %d videos, want 2", len(videos))
	}
}

func TestUpsertVideoValidation(t *testing.T) {
	_, ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/videos/upsert", VideoUpsert{VideoID: "v1"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestListVideosLimitValidation(t *testing.T) {
	_, ts := newTestServer(t)
	for _, limit := range []string{"0", "1001", "abc"} {
		resp, err := http.Get(ts.URL + "/videos?limit=" + limit)
		if err != nil {
			t.Fatalf("GET /videos: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, resp.StatusCode)
		}
	}
}

func TestCreateInteraction(t *testing.T) {
	_, ts := newTestServer(t)
	seedVideo(t, ts, "v1", "Machine learning basics", "intro to ml")

	resp := postJSON(t, ts.URL+"/interactions", InteractionCreate{
		UserID: "u1", VideoID: "v1", EventType: "watch",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	out := decodeBody[InteractionOut](t, resp)
	if out.UserID != "u1" || out.VideoID != "v1" || out.EventType != "watch" {
		t.Errorf("interaction = %+v", out)
	}
	if out.EventTime.IsZero() {
		t.Error("event_time not set")
	}
}

func TestCreateInteractionUnknownVideo(t *testing.T) {
	_, ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/interactions", InteractionCreate{
		UserID: "u1", VideoID: "ghost", EventType: "watch",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCreateInteractionInvalidEventType(t *testing.T) {
	_, ts := newTestServer(t)
	seedVideo(t, ts, "v1", "Title", "desc")
	resp := postJSON(t, ts.URL+"/interactions", InteractionCreate{
		UserID: "u1", VideoID: "v1", EventType: "share",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRecommendationsFlow(t *testing.T) {
	_, ts := newTestServer(t)
	seedVideo(t, ts, "v1", "Machine learning with vectors", "neural networks and vectors")
	seedVideo(t, ts, "v2", "Cosine similarity between vectors", "comparing text vectors")
	seedVideo(t, ts, "v3", "Pasta cooking", "italian recipes")

	resp := postJSON(t, ts.URL+"/interactions", InteractionCreate{
		UserID: "u1", VideoID: "v1", EventType: "watch", WatchSeconds: intPtr(300),
	})
	resp.Body.Close()

	resp2, err := http.Get(ts.URL + "/recommendations?user_id=u1&k=5")
	if err != nil {
		t.Fatalf("GET /recommendations: %v", err)
	}
	recs := decodeBody[RecommendationResponse](t, resp2)
	if recs.UserID != "u1" || recs.K != 5 {
		t.Errorf("response meta = %+v", recs)
	}
	if len(recs.Items) == 0 {
		t.Fatal("no recommendations returned")
	}
	for _, it := range recs.Items {
		if it.VideoID == "v1" {
			t.Error("watched video should not be recommended")
		}
		if len(it.Reasons) == 0 {
			t.Errorf("item %s has no reasons", it.VideoID)
		}
	}
	if recs.Items[0].VideoID != "v2" {
		t.Errorf("top recommendation = %s, want v2", recs.Items[0].VideoID)
	}
}

func TestRecommendationsRequiresUser(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/recommendations")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRecommendationsClampsK(t *testing.T) {
	_, ts := newTestServer(t)
	seedVideo(t, ts, "v1", "Some title", "desc")

	resp, err := http.Get(ts.URL + "/recommendations?user_id=u1&k=500")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	recs := decodeBody[RecommendationResponse](t, resp)
	if recs.K != MaxK {
		t.Errorf("k = %d, want %d", recs.K, MaxK)
	}
}

func TestRecommendationsConfiguredDefaultK(t *testing.T) {
	srv, ts := newTestServer(t)
	srv.DefaultK = 2
	seedVideo(t, ts, "v1", "First title", "first desc")
	seedVideo(t, ts, "v2", "Second title", "second desc")
	seedVideo(t, ts, "v3", "Third title", "third desc")

	// no k parameter: the configured default applies
	resp, err := http.Get(ts.URL + "/recommendations?user_id=u1")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	recs := decodeBody[RecommendationResponse](t, resp)
	if recs.K != 2 {
		t.Errorf("k = %d, want configured default 2", recs.K)
	}
	if len(recs.Items) != 2 {
		t.Errorf("got %d items, want 2", len(recs.Items))
	}

	// an explicit k still wins over the configured default
	resp, err = http.Get(ts.URL + "/recommendations?user_id=u1&k=3")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	recs = decodeBody[RecommendationResponse](t, resp)
	if recs.K != 3 {
		t.Errorf("k = %d, want 3", recs.K)
	}

	// zero falls back to the package default
	srv.DefaultK = 0
	resp, err = http.Get(ts.URL + "/recommendations?user_id=u2")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	recs = decodeBody[RecommendationResponse](t, resp)
	if recs.K != DefaultK {
		t.Errorf("k = %d, want %d", recs.K, DefaultK)
	}
}

func TestClearCache(t *testing.T) {
	_, ts := newTestServer(t)
	seedVideo(t, ts, "v1", "Some title", "desc")

	// warm the cache, then clear it
	resp, err := http.Get(ts.URL + "/recommendations?user_id=u1&k=5")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	resp2, err := http.Post(ts.URL+"/cache/clear?user_id=u1", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /cache/clear: %v", err)
	}
	body := decodeBody[map[string]string](t, resp2)
	if body["status"] != "ok" {
		t.Errorf("clear cache response = %v", body)
	}
	if !strings.Contains(body["message"], "u1") {
		t.Errorf("message = %q", body["message"])
	}
}

func TestTakeoutImportDisabled(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.EnableTakeoutImport = false
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	resp := postJSON(t, ts.URL+"/ingest/google-takeout", TakeoutImportRequest{UserID: "u1"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTakeoutImportEntries(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/ingest/google-takeout", TakeoutImportRequest{
		UserID: "u1",
		Rows: []ingest.Entry{
			{
				Header:   "YouTube",
				Title:    "Watched Go Tutorial",
				TitleURL: "https://www.youtube.com/watch?v=go101",
				Time:     "2025-01-04T17:28:31.000Z",
				Products: []string{"YouTube"},
			},
		},
		SourceFile: "MyActivity.json",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	summary := decodeBody[ingest.ImportSummary](t, resp)
	if summary.ImportedRows != 1 || summary.WatchEvents != 1 {
		t.Errorf("summary = %+v", summary)
	}

	// imported video is now part of the catalog
	resp2, err := http.Get(ts.URL + "/videos")
	if err != nil {
		t.Fatalf("GET /videos: %v", err)
	}
	videos := decodeBody[[]VideoOut](t, resp2)
	if len(videos) != 1 || videos[0].VideoID != "go101" {
		t.Errorf("videos after import = %+v", videos)
	}
}

func TestTakeoutFileRequiresBody(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/ingest/google-takeout/file?user_id=u1", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func intPtr(v int) *int { return &v }
