package inference

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/pitchkit/config"
	"github.com/rushteam/pitchkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义洞察规则可访问的变量
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("top", cel.DynType),
		cel.Variable("ranking", cel.DynType),
		cel.Variable("deal", cel.DynType),
		cel.Variable("rates", cel.DynType),
	)
	return env, err
}

func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// maxInsights 是单次结果携带的洞察上限，避免规则堆叠刷屏。
const maxInsights = 3

// defaultInsightRules 是数据集配置未给出规则时的内置规则。
// 表达式使用 CEL (Common Expression Language) 语法：
//   - top：排名首位 {name, probability}
//   - ranking：完整排名列表
//   - deal：{probability} 成交概率
//   - rates：投资人名 → 训练期出手率
//
// 消息中的占位符在命中后替换：
//   - {top_investor} / {top_probability} / {deal_probability}
var defaultInsightRules = []config.InsightRule{
	{
		When:    `size(ranking) > 0 && top.probability >= 0.7`,
		Message: "{top_investor} is a strong match with an estimated {top_probability} chance of investing.",
	},
	{
		When:    `size(ranking) >= 2 && ranking[0].probability - ranking[1].probability >= 0.2`,
		Message: "{top_investor} stands out well ahead of the rest of the panel.",
	},
	{
		When:    `size(ranking) > 0 && top.name in rates && rates[top.name] >= 0.25`,
		Message: "{top_investor} historically invests in a high share of pitches seen.",
	},
	{
		When:    `deal.probability >= 0.8`,
		Message: "A deal probability of {deal_probability} suggests broad appeal across the panel.",
	},
}

// insightEngine 用 CEL 规则把排名结果翻译成可读的洞察文案。
// 规则集合是静态配置，编译结果按表达式缓存复用。
type insightEngine struct {
	mu       sync.Mutex
	programs map[string]cel.Program
}

func newInsightEngine() *insightEngine {
	return &insightEngine{programs: make(map[string]cel.Program)}
}

// Generate 按规则顺序求值，命中即输出消息，最多 maxInsights 条。
// 单条规则编译或求值失败只跳过该条：洞察是锦上添花，不允许拖垮预测。
func (e *insightEngine) Generate(rules []config.InsightRule, ranking []core.InvestorScore, dealProb float64, rates map[string]float64) []string {
	if len(rules) == 0 {
		return nil
	}
	input := buildInsightInput(ranking, dealProb, rates)

	var out []string
	for _, rule := range rules {
		if len(out) >= maxInsights {
			break
		}
		hit, err := e.evaluate(rule.When, input)
		if err != nil || !hit {
			continue
		}
		out = append(out, renderInsight(rule.Message, ranking, dealProb))
	}
	return out
}

// evaluate 编译（带缓存）并执行一条规则表达式，返回布尔结果。
func (e *insightEngine) evaluate(expr string, input map[string]any) (bool, error) {
	if expr == "" {
		return true, nil
	}
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

func (e *insightEngine) program(expr string) (cel.Program, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if prg, ok := e.programs[expr]; ok {
		return prg, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %v", err)
	}
	e.programs[expr] = prg
	return prg, nil
}

// buildInsightInput 构建 CEL 表达式的输入数据
func buildInsightInput(ranking []core.InvestorScore, dealProb float64, rates map[string]float64) map[string]any {
	list := make([]any, 0, len(ranking))
	for _, s := range ranking {
		list = append(list, map[string]any{
			"name":        s.Name,
			"probability": s.Probability,
		})
	}

	// 空排名时 top 提供零值占位，规则用 size(ranking) > 0 守卫。
	top := map[string]any{"name": "", "probability": 0.0}
	if len(ranking) > 0 {
		top = map[string]any{
			"name":        ranking[0].Name,
			"probability": ranking[0].Probability,
		}
	}

	ratesInput := make(map[string]any, len(rates))
	for k, v := range rates {
		ratesInput[k] = v
	}

	return map[string]any{
		"top":     top,
		"ranking": list,
		"deal":    map[string]any{"probability": dealProb},
		"rates":   ratesInput,
	}
}

// renderInsight 替换消息里的占位符。
func renderInsight(msg string, ranking []core.InvestorScore, dealProb float64) string {
	topName, topProb := "", 0.0
	if len(ranking) > 0 {
		topName = ranking[0].Name
		topProb = ranking[0].Probability
	}
	r := strings.NewReplacer(
		"{top_investor}", topName,
		"{top_probability}", fmt.Sprintf("%.0f%%", topProb*100),
		"{deal_probability}", fmt.Sprintf("%.0f%%", dealProb*100),
	)
	return r.Replace(msg)
}
