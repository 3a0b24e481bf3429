// Package dsl 是基于 CEL (Common Expression Language) 的策略表达式解释器。
// 用于在不改代码的情况下，通过配置对推荐结果做过滤/准入判断。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/vidrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
	celEnvErr  error
)

// getEnv 获取或创建 CEL 环境，定义 item / label / rctx 三个顶层变量。
func getEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是一条已编译的布尔表达式，可跨请求复用（编译一次，多次求值）。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：label.recall_source == "catalog" / label.rank_model != "cosine"
//   - 数值：item.score > 0.7 / item.score >= 0.5
//   - 逻辑：label.cold_start == "true" && rctx.scene == "home"
//   - 包含："ml" in item.reasons[0]
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；空表达式视为恒真。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{expr: expr}, nil
	}

	env, err := getEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}

	return &Program{expr: expr, prg: prg}, nil
}

// Expr 返回原始表达式文本。
func (p *Program) Expr() string { return p.expr }

// EvalBool 对一个 item 求值，返回布尔结果。
// 表达式必须返回 bool，否则报错。
func (p *Program) EvalBool(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}

	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 时 CEL 返回错误；用 label.key != null 做存在性检查
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}

	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据。
// label 作为顶层访问器直接映射到 Label.Value，方便写 label.recall_source == "catalog"。
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	labelAccessor := make(map[string]any)
	if item != nil {
		for k, v := range item.Labels {
			labels[k] = map[string]any{"value": v.Value, "source": v.Source}
			labelAccessor[k] = v.Value
		}
	}

	itemInput := map[string]any{}
	if item != nil {
		itemInput = map[string]any{
			"id":      item.ID,
			"score":   item.Score,
			"reasons": item.Reasons,
			"meta":    map[string]any{}, // Meta 可能携带非 CEL 友好的指针，不透出
			"labels":  labels,
		}
	}

	rctxInput := map[string]any{}
	if rctx != nil {
		rctxInput = map[string]any{
			"user_id": rctx.UserID,
			"scene":   rctx.Scene,
			"k":       rctx.K,
			"params":  rctx.Params,
		}
	}

	return map[string]any{
		"item":  itemInput,
		"label": labelAccessor,
		"rctx":  rctxInput,
	}
}
