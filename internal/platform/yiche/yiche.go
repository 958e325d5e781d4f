package yiche

import (
	"fmt"
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/pipeline"
)

const Platform = "yiche"

type Config struct {
	ReadyWait   dom.Wait
	ElementWait dom.Wait
	CropWait    dom.Wait
}

var defaultConfig = Config{
	ReadyWait:   dom.Wait{Attempts: 30, Interval: time.Second},
	ElementWait: dom.Wait{Attempts: 10, Interval: 500 * time.Millisecond},
	CropWait:    dom.Wait{Attempts: 6, Interval: 500 * time.Millisecond},
}

func DefaultConfig() Config {
	return defaultConfig
}

// uploadTrigger 上传按钮文字所在的可点击容器，找不到容器时点文字本身
func uploadTrigger(text string) []dom.Strategy {
	return []dom.Strategy{
		dom.XPath(fmt.Sprintf(`//*[contains(@class,"upload-img-box") or contains(@class,"avatar-uploader") or contains(@class,"el-upload") or contains(@class,"i-right")][.//*[contains(text(),%q)]]`, text)),
		dom.TextContains("*", text),
	}
}

func image(cfg Config, trigger string) *pipeline.ImageSpec {
	return &pipeline.ImageSpec{
		Open: []pipeline.Click{{Target: uploadTrigger(trigger), Wait: cfg.ElementWait, Pause: 500 * time.Millisecond}},
		Input: []dom.Strategy{
			dom.CSS(`input[type="file"][accept*="image"]`),
			dom.CSS(`input[type="file"]`),
		},
		InputWait: cfg.ElementWait,
		Confirm: []pipeline.Click{
			{Target: []dom.Strategy{dom.LabelContains("*", "完成裁剪")}, Wait: cfg.CropWait, Optional: true, Pause: 2 * time.Second},
			{Target: []dom.Strategy{dom.XPath(`//button[contains(@class,"el-button--primary") and normalize-space(.)="确定"]`)}, Wait: cfg.CropWait, Optional: true, Pause: time.Second},
		},
	}
}

// Spec 易车号视频发布页，需人工确认发布
func Spec(cfg Config) pipeline.Spec {
	return pipeline.Spec{
		Platform:   Platform,
		Name:       "易车号",
		PublishURL: "https://mp.yiche.com/#/publish/video",
		Match:      []string{"mp.yiche.com"},

		Dismiss: []dom.Strategy{dom.LabelContains("button", "我知道了")},

		Video: pipeline.VideoSpec{
			Open: []pipeline.Click{{
				Target:   uploadTrigger("点击上传视频"),
				Wait:     cfg.ElementWait,
				Optional: true,
				Pause:    500 * time.Millisecond,
			}},
			Input: []dom.Strategy{
				dom.CSS(`input[type="file"][accept*="video"]`),
				dom.CSS(`input[type="file"]`),
			},
			Wait: cfg.ElementWait,
		},
		Ready: pipeline.ReadySpec{
			Any: []dom.Strategy{
				dom.CSS(`[role="textbox"]`),
				dom.CSS(`input[placeholder*="标题"]`),
				dom.CSS(`textarea[placeholder*="标题"]`),
			},
			Wait: cfg.ReadyWait,
		},
		Title: &pipeline.FieldSpec{
			Target: []dom.Strategy{
				dom.CSS(`input[placeholder*="标题最多可输入50字"]`),
				dom.CSS(`textarea[placeholder*="标题最多可输入50字"]`),
				dom.CSS(`[placeholder*="标题最多可输入50字"]`),
			},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
			MaxLen: 50,
		},
		Description: &pipeline.FieldSpec{
			Target: []dom.Strategy{
				dom.CSS(`textarea[placeholder*="简介最多可输入400字"]`),
				dom.CSS(`input[placeholder*="简介最多可输入400字"]`),
				dom.CSS(`[placeholder*="简介最多可输入400字"]`),
			},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
			MaxLen: 400,
		},
		Cover:         image(cfg, "上传封面"),
		VerticalCover: image(cfg, "上传竖版封面"),
		FocusImage:    image(cfg, "上传焦点图"),
		Original: &pipeline.ToggleSpec{
			Target: []dom.Strategy{
				dom.XPath(`//*[@role="radio"][contains(normalize-space(.),"原创")]`),
				dom.XPath(`//input[@type="radio"]/parent::*[contains(normalize-space(.),"原创")]`),
			},
			Wait: cfg.ElementWait,
		},
	}
}

func New() *pipeline.Adapter {
	return pipeline.NewAdapter(Spec(DefaultConfig()))
}
