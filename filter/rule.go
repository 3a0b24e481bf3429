package filter

import (
	"context"

	"github.com/rushteam/vidrec/core"
	"github.com/rushteam/vidrec/pkg/dsl"
)

// RuleFilter 是基于 CEL 表达式的策略过滤器：表达式求值为 true 的物品被剔除。
// 典型用法（通过 pipeline 配置下发，不需要改代码）：
//   - `label.cold_start == "true" && rctx.scene == "home"` 首页不出冷启动结果
//   - `item.score < 0.05` 按场景设置分数下限
type RuleFilter struct {
	program *dsl.Program
}

// NewRuleFilter 编译表达式并构建过滤器；表达式为空或非法时返回错误。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	if expr == "" {
		return nil, core.NewDomainError("filter", core.ErrorCodeInvalidInput, "filter.rule: empty expression")
	}
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{program: prg}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.program.EvalBool(item, rctx)
}
