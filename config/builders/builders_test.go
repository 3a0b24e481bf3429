package builders

import (
	"context"
	"testing"

	"github.com/rushteam/vidrec/config"
	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/pipeline"
	"github.com/rushteam/vidrec/store"
)

func TestInitRegistersBuiltinTypes(t *testing.T) {
	supported := config.SupportedTypes()
	want := map[string]bool{
		"filter":           false,
		"filter.rule":      false,
		"rerank.topn":      false,
		"rerank.diversity": false,
	}
	for _, typ := range supported {
		if _, ok := want[typ]; ok {
			want[typ] = true
		}
	}
	for typ, seen := range want {
		if !seen {
			t.Errorf("type %q not registered", typ)
		}
	}
}

func TestBuildTopNNode(t *testing.T) {
	node, err := BuildTopNNode(map[string]any{"n": 3})
	if err != nil {
		t.Fatalf("BuildTopNNode: %v", err)
	}
	items := []*core.Item{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	out, err := node.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 3 {
		t.Errorf("len = %d, want 3", len(out))
	}

	if _, err := BuildTopNNode(map[string]any{"n": 0}); err == nil {
		t.Error("n=0 should fail")
	}
}

func TestBuildFilterNodeComposite(t *testing.T) {
	cfg := map[string]any{
		"filters": []any{
			map[string]any{"type": "blacklist", "video_ids": []any{"banned"}},
			map[string]any{"type": "min_score", "min": 0.5},
		},
	}
	node, err := BuildFilterNode(cfg)
	if err != nil {
		t.Fatalf("BuildFilterNode: %v", err)
	}

	items := []*core.Item{
		{ID: "banned", Score: 0.9},
		{ID: "low", Score: 0.1},
		{ID: "kept", Score: 0.8},
	}
	out, err := node.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 1 || out[0].ID != "kept" {
		t.Errorf("out = %+v, want only kept", out)
	}
}

func TestBuildFilterNodeStoreBackedBlacklist(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	ctx := context.Background()
	if err := kv.Set(ctx, "blacklist:videos", []byte(`["stored"]`)); err != nil {
		t.Fatalf("seed blacklist: %v", err)
	}

	cfg := map[string]any{
		"filters": []any{
			map[string]any{"type": "blacklist", "key": "blacklist:videos"},
		},
	}

	// key without an injected store is a config error
	SetBlacklistStore(nil)
	if _, err := BuildFilterNode(cfg); err == nil {
		t.Error("key without store should fail")
	}

	SetBlacklistStore(kv)
	defer SetBlacklistStore(nil)
	node, err := BuildFilterNode(cfg)
	if err != nil {
		t.Fatalf("BuildFilterNode: %v", err)
	}

	items := []*core.Item{{ID: "stored"}, {ID: "fresh"}}
	out, err := node.Process(ctx, &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 1 || out[0].ID != "fresh" {
		t.Errorf("out = %+v, want only fresh", out)
	}
}

func TestBuildFilterNodeUnknownType(t *testing.T) {
	cfg := map[string]any{
		"filters": []any{map[string]any{"type": "bogus"}},
	}
	if _, err := BuildFilterNode(cfg); err == nil {
		t.Error("unknown filter type should fail")
	}
}

func TestBuildRuleFilterNode(t *testing.T) {
	node, err := BuildRuleFilterNode(map[string]any{"expr": `item.score < 0.2`})
	if err != nil {
		t.Fatalf("BuildRuleFilterNode: %v", err)
	}
	items := []*core.Item{{ID: "low", Score: 0.1}, {ID: "high", Score: 0.9}}
	out, err := node.Process(context.Background(), &core.RecommendContext{}, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(out) != 1 || out[0].ID != "high" {
		t.Errorf("out = %+v, want only high", out)
	}

	if _, err := BuildRuleFilterNode(map[string]any{}); err == nil {
		t.Error("empty expr should fail")
	}
}

func TestDefaultFactoryBuildsPipeline(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Name = "custom"
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "rerank.topn", Config: map[string]any{"n": 2}},
		{Type: "rerank.diversity"},
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig: %v", err)
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline: %v", err)
	}
	if len(p.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(p.Nodes))
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "rerank.unknown"})
	if err := config.ValidatePipelineConfig(cfg); err == nil {
		t.Error("unregistered type should fail validation")
	}
}
