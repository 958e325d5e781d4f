package vivovideo

import (
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/pipeline"
	"Fpublisher/internal/types"
)

const Platform = "vivovideo"

type Config struct {
	ReadyWait   dom.Wait
	ElementWait dom.Wait
	SubmitWait  dom.Wait
}

var defaultConfig = Config{
	ReadyWait:   dom.Wait{Attempts: 60, Interval: time.Second},
	ElementWait: dom.Wait{Attempts: 10, Interval: 500 * time.Millisecond},
	SubmitWait:  dom.Wait{Attempts: 10, Interval: 500 * time.Millisecond},
}

func DefaultConfig() Config {
	return defaultConfig
}

const editCover = `span.edit-btn.is-edit-cover`

// Spec vivo 视频（开心看）发布页
// 上传后页面跳转到 publishShort 编辑页
func Spec(cfg Config) pipeline.Spec {
	return pipeline.Spec{
		Platform:   Platform,
		Name:       "vivo视频",
		PublishURL: "https://www.kaixinkan.com.cn/",
		Match:      []string{"kaixinkan.com.cn"},
		MaxTags:    5,

		Video: pipeline.VideoSpec{
			Input: []dom.Strategy{dom.CSS(`input[type="file"][accept*="mp4"]`)},
			Wait:  cfg.ElementWait,
		},
		Ready: pipeline.ReadySpec{
			URLContains: "publishShort",
			Any:         []dom.Strategy{dom.CSS(editCover).Visible()},
			Wait:        cfg.ReadyWait,
		},
		Title: &pipeline.FieldSpec{
			Target: []dom.Strategy{
				dom.CSS(`input[placeholder*="标题"]:not([placeholder*="请选择"])`).Visible(),
				dom.CSS(`input.el-input__inner:not([placeholder*="请选择"]):not([readonly])`).Visible(),
			},
			Mode: dom.ModeValue,
			Wait: cfg.ElementWait,
		},
		Description: &pipeline.FieldSpec{
			Target: []dom.Strategy{dom.CSS(`div.add-text[contenteditable="true"]`)},
			Mode:   dom.ModeText,
			Wait:   cfg.ElementWait,
		},
		Tags: &pipeline.TagSpec{Mode: pipeline.TagsInDescription},
		Cover: &pipeline.ImageSpec{
			Open: []pipeline.Click{
				{Target: []dom.Strategy{dom.CSS(editCover)}, Wait: cfg.ElementWait, Pause: time.Second},
				{Target: []dom.Strategy{dom.Text("*", "上传封面")}, Wait: cfg.ElementWait, Optional: true, Pause: 500 * time.Millisecond},
				{Target: []dom.Strategy{dom.Text("*", "点击上传")}, Wait: cfg.ElementWait, Optional: true, Pause: 500 * time.Millisecond},
			},
			Input:     []dom.Strategy{dom.CSS(`input[type="file"][accept*="image"]`)},
			InputWait: cfg.ElementWait,
			Confirm: []pipeline.Click{{
				Target: []dom.Strategy{dom.LabelContains("button", "确定").Enabled()},
				Wait:   cfg.ElementWait,
				Pause:  500 * time.Millisecond,
			}},
		},
		Schedule: &pipeline.ScheduleSpec{
			Open: []pipeline.Click{{
				// el-radio 的原生 input 不可见，点击外层 label
				Target: []dom.Strategy{dom.LabelContains("label", "定时发布")},
				Wait:   cfg.ElementWait,
				Pause:  time.Second,
			}},
			Input:  []dom.Strategy{dom.CSS(`input[type="text"][readonly]`)},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
			Layout: types.ScheduleLayout,
		},
		Submit: &pipeline.SubmitSpec{
			Target: []dom.Strategy{
				dom.CSS(`button.el-button--primary.form-btn`),
				dom.LabelContains("button", "提交"),
				dom.LabelContains("button", "发布"),
			},
			Wait: cfg.SubmitWait,
		},
	}
}

func New() *pipeline.Adapter {
	return pipeline.NewAdapter(Spec(DefaultConfig()))
}
