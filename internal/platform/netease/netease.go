package netease

import (
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/pipeline"
)

const Platform = "netease"

type Config struct {
	ReadyWait   dom.Wait
	ElementWait dom.Wait
	TagWait     dom.Wait
	ConfirmWait dom.Wait
	SubmitWait  dom.Wait
}

var defaultConfig = Config{
	ReadyWait:   dom.Wait{Attempts: 60, Interval: time.Second},
	ElementWait: dom.Wait{Attempts: 10, Interval: 500 * time.Millisecond},
	TagWait:     dom.Wait{Attempts: 10, Interval: 300 * time.Millisecond},
	ConfirmWait: dom.Wait{Attempts: 20, Interval: 500 * time.Millisecond},
	SubmitWait:  dom.Wait{Attempts: 30, Interval: 500 * time.Millisecond},
}

func DefaultConfig() Config {
	return defaultConfig
}

// Spec 网易号视频发布页
func Spec(cfg Config) pipeline.Spec {
	return pipeline.Spec{
		Platform:   Platform,
		Name:       "网易号",
		PublishURL: "https://mp.163.com/subscribe_v4/index.html#/video-publish",
		Match:      []string{"163.com"},
		MaxTags:    5,

		Video: pipeline.VideoSpec{
			Input: []dom.Strategy{
				dom.CSS(`input[type="file"][accept*="video"]`),
				dom.CSS(`input[type="file"]`),
			},
			Wait: cfg.ElementWait,
		},
		Ready: pipeline.ReadySpec{
			Any: []dom.Strategy{
				dom.TextContains("*", "上传完成"),
				dom.CSS(`input.ne-input[placeholder*="5~30个字"]`),
			},
			Wait: cfg.ReadyWait,
		},
		Title: &pipeline.FieldSpec{
			Target: []dom.Strategy{dom.CSS(`input.ne-input[placeholder*="5~30个字"]`)},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
			MaxLen: 30,
		},
		Tags: &pipeline.TagSpec{
			Mode: pipeline.TagsJoined,
			Open: []pipeline.Click{{
				Target:   []dom.Strategy{dom.TextContains("*", "请添加3-5个标签")},
				Wait:     cfg.ElementWait,
				Optional: true,
				Pause:    300 * time.Millisecond,
			}},
			Input:      []dom.Strategy{dom.CSS(`input.ne-tag-input`)},
			InputMode:  dom.ModeValue,
			Wait:       cfg.TagWait,
			Separator:  " ",
			PressEnter: true,
		},
		Cover: &pipeline.ImageSpec{
			Open: []pipeline.Click{
				{Target: []dom.Strategy{dom.CSS(`.videoPublishNew-cover-upload`)}, Wait: cfg.ElementWait, Pause: 500 * time.Millisecond},
				{Target: []dom.Strategy{dom.Text("*", "本地上传")}, Wait: cfg.ElementWait, Pause: 500 * time.Millisecond},
			},
			Input:     []dom.Strategy{dom.CSS(`input[type="file"][accept*="image"]`)},
			InputWait: cfg.ElementWait,
			Confirm: []pipeline.Click{{
				Target: []dom.Strategy{dom.Label("button", "确认").Enabled()},
				Wait:   cfg.ConfirmWait,
			}},
		},
		Original: &pipeline.ToggleSpec{
			Target: []dom.Strategy{
				dom.XPath(`//*[count(node())=1 and normalize-space(text())="原创"]/ancestor::*[.//button][1]//button`),
			},
			Wait:        cfg.ElementWait,
			ActiveClass: "custom-switcher-active",
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
