package pipeline

import "strings"

// Adapter 平台适配器：有序步骤 + 页面匹配
type Adapter struct {
	Platform   string
	Name       string
	PublishURL string
	Match      []string
	Steps      []Step
}

// NewAdapter 由平台声明生成适配器
func NewAdapter(spec Spec) *Adapter {
	return &Adapter{
		Platform:   spec.Platform,
		Name:       spec.Name,
		PublishURL: spec.PublishURL,
		Match:      spec.Match,
		Steps:      BuildSteps(&spec),
	}
}

// Matches 页面地址是否属于该平台
func (a *Adapter) Matches(url string) bool {
	for _, m := range a.Match {
		if m != "" && strings.Contains(url, m) {
			return true
		}
	}
	return false
}

// StepNames 返回步骤名，用于展示
func (a *Adapter) StepNames() []string {
	names := make([]string, 0, len(a.Steps))
	for _, s := range a.Steps {
		names = append(names, s.Name)
	}
	return names
}

// Pipeline 创建流水线
func (a *Adapter) Pipeline(observer Observer) *Pipeline {
	return &Pipeline{Platform: a.Platform, Steps: a.Steps, Observer: observer}
}
