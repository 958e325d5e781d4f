package sohu

import (
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/pipeline"
)

const Platform = "sohu"

type Config struct {
	ReadyWait      dom.Wait
	ElementWait    dom.Wait
	SuggestionWait dom.Wait
	LoadingWait    dom.Wait
	SubmitWait     dom.Wait
}

var defaultConfig = Config{
	ReadyWait:      dom.Wait{Attempts: 60, Interval: time.Second},
	ElementWait:    dom.Wait{Attempts: 10, Interval: 500 * time.Millisecond},
	SuggestionWait: dom.Wait{Attempts: 5, Interval: 300 * time.Millisecond},
	LoadingWait:    dom.Wait{Attempts: 20, Interval: 500 * time.Millisecond},
	SubmitWait:     dom.Wait{Attempts: 30, Interval: 500 * time.Millisecond},
}

func DefaultConfig() Config {
	return defaultConfig
}

// Spec 搜狐号视频发布页
func Spec(cfg Config) pipeline.Spec {
	return pipeline.Spec{
		Platform:   Platform,
		Name:       "搜狐号",
		PublishURL: "https://mp.sohu.com/mpfe/v4/contentManagement/news/addvideo",
		Match:      []string{"mp.sohu.com"},
		MaxTags:    5,

		Video: pipeline.VideoSpec{
			Open: []pipeline.Click{{
				Target:   []dom.Strategy{dom.LabelContains("button", "添加视频")},
				Wait:     dom.Wait{Attempts: 1},
				Optional: true,
				Pause:    500 * time.Millisecond,
			}},
			Input: []dom.Strategy{
				dom.CSS(`input[type="file"][accept*="video"]`),
				dom.CSS(`input[type="file"][accept*="mp4"]`),
			},
			Wait: cfg.ElementWait,
		},
		Ready: pipeline.ReadySpec{
			Any: []dom.Strategy{
				dom.TextContains("*", "上传成功"),
				dom.CSS(`textarea.abstract-main-textarea`),
			},
			Wait: cfg.ReadyWait,
		},
		Title: &pipeline.FieldSpec{
			Target: []dom.Strategy{dom.CSS(`input[placeholder*="请输入标题"]`)},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
		},
		Description: &pipeline.FieldSpec{
			Target: []dom.Strategy{dom.CSS(`textarea.abstract-main-textarea`)},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
		},
		Tags: &pipeline.TagSpec{
			Mode:      pipeline.TagsEach,
			Input:     []dom.Strategy{dom.CSS(`input[placeholder*="关键词搜索"]:not([readonly])`)},
			InputMode: dom.ModeValue,
			Wait:      cfg.ElementWait,
			Suggestion: func(tag string) []dom.Strategy {
				return []dom.Strategy{dom.Text("*", tag).Within(".generic")}
			},
			SuggestionWait: cfg.SuggestionWait,
		},
		Cover: &pipeline.ImageSpec{
			Open: []pipeline.Click{
				{Target: []dom.Strategy{dom.CSS(`.upload-file.mp-upload`)}, Wait: cfg.ElementWait, Pause: time.Second},
				{Target: []dom.Strategy{dom.Text("*", "本地上传")}, Wait: cfg.ElementWait, Pause: 300 * time.Millisecond},
				{
					// 弹框里的"上传图片"，点击其外层
					Target: []dom.Strategy{dom.XPath(`(//*[count(node())=1 and normalize-space(text())="上传图片"])[last()]/..`)},
					Wait:   cfg.ElementWait,
					Pause:  time.Second,
				},
			},
			Input:      []dom.Strategy{dom.CSS(`input#new-file[type="file"]`)},
			InputWait:  cfg.ElementWait,
			Loading:    []dom.Strategy{dom.CSS(`.loading`)},
			SettleWait: cfg.LoadingWait,
			Confirm: []pipeline.Click{{
				Target: []dom.Strategy{dom.CSS(`.bottom-buttons .positive-button`).Enabled()},
				Wait:   cfg.ElementWait,
				Pause:  time.Second,
			}},
		},
		Submit: &pipeline.SubmitSpec{
			Target: []dom.Strategy{dom.Label("button", "发布")},
			Wait:   cfg.SubmitWait,
		},
	}
}

func New() *pipeline.Adapter {
	return pipeline.NewAdapter(Spec(DefaultConfig()))
}
