package adapter

func init() { Register("us", &USAdapter{}) }

// USAdapter 适配 Shark Tank US 数据集。
// 美元记账、股权百分比，与 canonical 约定一致，纯映射即可。
type USAdapter struct {
	MappingAdapter
}

func (a *USAdapter) Name() string { return "adapter.us" }

var _ Adapter = (*USAdapter)(nil)
