package yidian

import (
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/pipeline"
)

const Platform = "yidian"

type Config struct {
	ReadyWait   dom.Wait
	ElementWait dom.Wait
	HookWait    dom.Wait
	SubmitWait  dom.Wait
}

var defaultConfig = Config{
	ReadyWait:   dom.Wait{Attempts: 60, Interval: time.Second},
	ElementWait: dom.Wait{Attempts: 10, Interval: 500 * time.Millisecond},
	HookWait:    dom.Wait{Attempts: 40, Interval: 500 * time.Millisecond},
	SubmitWait:  dom.Wait{Attempts: 30, Interval: 500 * time.Millisecond},
}

func DefaultConfig() Config {
	return defaultConfig
}

// 编辑器组件按视频 ID 存放表单数据，只有一个视频时取第一个
const editor = ".video-editor-container"

// Spec 一点号视频发布页
// 表单由 Vue 组件持有，输入框找不到时直接写组件数据
func Spec(cfg Config) pipeline.Spec {
	return pipeline.Spec{
		Platform:   Platform,
		Name:       "一点号",
		PublishURL: "https://mp.yidianzixun.com/#/Writing/videoEditor",
		Match:      []string{"yidianzixun.com"},
		MaxTags:    8,

		Video: pipeline.VideoSpec{
			Input: []dom.Strategy{dom.CSS(`.mp-uploader-container input[type="file"]`)},
			Wait:  cfg.ElementWait,
		},
		Ready: pipeline.ReadySpec{
			Any:  []dom.Strategy{dom.CSS(`.upload-after`).Visible()},
			Wait: cfg.ReadyWait,
		},
		Title: &pipeline.FieldSpec{
			Target: []dom.Strategy{dom.CSS(`input[placeholder*="标题"], .title-input input`)},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
			Hook:   &dom.Hook{Selector: editor, Path: "videos.*.title"},
		},
		Description: &pipeline.FieldSpec{
			Target: []dom.Strategy{dom.CSS(`textarea[placeholder*="简介"], .desc-input textarea`)},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
			Hook:   &dom.Hook{Selector: editor, Path: "videos.*.desc"},
		},
		Tags: &pipeline.TagSpec{
			Mode: pipeline.TagsHook,
			Wait: cfg.HookWait,
			Hook: &dom.Hook{Selector: ".tagsuginput-container", Path: "tags"},
		},
		Cover: &pipeline.ImageSpec{
			Open: []pipeline.Click{{
				Target: []dom.Strategy{dom.CSS(`.cover-container`)},
				Wait:   cfg.ElementWait,
				Pause:  time.Second,
			}},
			Input:     []dom.Strategy{dom.CSS(`.upload-container input[type="file"][accept="image/*"]`)},
			InputWait: cfg.ElementWait,
			Confirm: []pipeline.Click{{
				Target: []dom.Strategy{dom.CSS(`.upload-container .confirm-btn.btn-box:not(.btn-disabled)`)},
				Wait:   cfg.ElementWait,
				Pause:  time.Second,
			}},
		},
		Submit: &pipeline.SubmitSpec{
			Target: []dom.Strategy{dom.XPath(`//button[contains(@class,"mp-btn-primary") and not(contains(@class,"mp-btn-disabled")) and contains(normalize-space(.),"发布")]`)},
			Wait:   cfg.SubmitWait,
		},
	}
}

func New() *pipeline.Adapter {
	return pipeline.NewAdapter(Spec(DefaultConfig()))
}
