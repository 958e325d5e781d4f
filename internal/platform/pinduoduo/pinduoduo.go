package pinduoduo

import (
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/pipeline"
)

const Platform = "pinduoduo"

type Config struct {
	ReadyWait   dom.Wait
	ElementWait dom.Wait
	SubmitWait  dom.Wait
}

var defaultConfig = Config{
	ReadyWait:   dom.Wait{Attempts: 60, Interval: time.Second},
	ElementWait: dom.Wait{Attempts: 10, Interval: 500 * time.Millisecond},
	SubmitWait:  dom.Wait{Attempts: 30, Interval: 500 * time.Millisecond},
}

func DefaultConfig() Config {
	return defaultConfig
}

const descEditor = `[contenteditable="true"][class*="sabo"]`

// Spec 拼多多视频发布页，没有独立标题
func Spec(cfg Config) pipeline.Spec {
	return pipeline.Spec{
		Platform:   Platform,
		Name:       "拼多多",
		PublishURL: "https://mms.pinduoduo.com/sabo/video/publish",
		Match:      []string{"pinduoduo.com"},
		MaxTags:    5,

		Video: pipeline.VideoSpec{
			Open: []pipeline.Click{{
				Target:   []dom.Strategy{dom.LabelContains("button", "添加视频")},
				Wait:     dom.Wait{Attempts: 1},
				Optional: true,
				Pause:    500 * time.Millisecond,
			}},
			Input: []dom.Strategy{dom.CSS(`input[type="file"][accept*="mp4"]`)},
			Wait:  cfg.ElementWait,
		},
		Ready: pipeline.ReadySpec{
			Any:  []dom.Strategy{dom.CSS(descEditor)},
			Wait: cfg.ReadyWait,
		},
		Description: &pipeline.FieldSpec{
			Target: []dom.Strategy{dom.CSS(descEditor)},
			Mode:   dom.ModeText,
			Wait:   cfg.ElementWait,
		},
		Tags: &pipeline.TagSpec{Mode: pipeline.TagsInDescription},
		Cover: &pipeline.ImageSpec{
			// 视频处理完成后才能编辑封面
			Gate: []dom.Strategy{
				dom.TextContains("*", "视频上传成功"),
				dom.LabelContains("button", "编辑封面").Enabled(),
			},
			GateWait: cfg.ReadyWait,
			Open: []pipeline.Click{
				{Target: []dom.Strategy{dom.LabelContains("button", "编辑封面").Enabled()}, Wait: cfg.ElementWait, Pause: 500 * time.Millisecond},
				{Target: []dom.Strategy{dom.Text("*", "本地上传")}, Wait: cfg.ElementWait, Optional: true, Pause: 300 * time.Millisecond},
			},
			Input:     []dom.Strategy{dom.CSS(`input[type="file"][accept*="jpg"]`)},
			InputWait: cfg.ElementWait,
			Confirm: []pipeline.Click{{
				Target: []dom.Strategy{dom.Label("button", "确定").Enabled()},
				Wait:   cfg.ElementWait,
				Pause:  500 * time.Millisecond,
			}},
		},
		Submit: &pipeline.SubmitSpec{
			Target: []dom.Strategy{
				dom.LabelContains("button", "一键发布"),
				dom.CSS(`button[class*="publish"], button[class*="Publish"]`),
			},
			Wait: cfg.SubmitWait,
		},
	}
}

func New() *pipeline.Adapter {
	return pipeline.NewAdapter(Spec(DefaultConfig()))
}
