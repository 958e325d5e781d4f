package alipay

import (
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/pipeline"
)

const Platform = "alipay"

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

const titleInput = `input[placeholder*="标题"]`

// Spec 支付宝生活号视频发布页
func Spec(cfg Config) pipeline.Spec {
	return pipeline.Spec{
		Platform:   Platform,
		Name:       "支付宝",
		PublishURL: "https://c.alipay.com/page/life-account/index.htm#/publish/video",
		Match:      []string{"alipay.com"},
		MaxTags:    5,

		Video: pipeline.VideoSpec{
			Open: []pipeline.Click{{
				Target:   []dom.Strategy{dom.LabelContains("button", "点击上传")},
				Wait:     dom.Wait{Attempts: 1},
				Optional: true,
				Pause:    500 * time.Millisecond,
			}},
			Input: []dom.Strategy{dom.CSS(`input[type="file"][accept*="video"]`)},
			Wait:  cfg.ElementWait,
		},
		Ready: pipeline.ReadySpec{
			Any:  []dom.Strategy{dom.CSS(titleInput).Enabled()},
			Wait: cfg.ReadyWait,
		},
		Title: &pipeline.FieldSpec{
			Target: []dom.Strategy{dom.CSS(titleInput)},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
		},
		Description: &pipeline.FieldSpec{
			Target: []dom.Strategy{dom.CSS(`textarea.mentions-textarea__input`)},
			Mode:   dom.ModeValue,
			Wait:   cfg.ElementWait,
		},
		Tags: &pipeline.TagSpec{Mode: pipeline.TagsInDescription},
		Cover: &pipeline.ImageSpec{
			Open: []pipeline.Click{
				{
					Target:   []dom.Strategy{dom.CSS(`div[class*="coverWrapper"] div[class*="hover:cursor-pointer"]`)},
					Wait:     cfg.ElementWait,
					Optional: true,
					Pause:    time.Second,
				},
				{
					// 第二个标签页为本地上传
					Target: []dom.Strategy{dom.XPath(`(//*[contains(@class,"antd5-modal-root")]//*[contains(concat(" ",normalize-space(@class)," ")," antd5-tabs-tab ")])[2]`)},
					Wait:   cfg.ElementWait,
					Pause:  500 * time.Millisecond,
				},
				{
					Target:   []dom.Strategy{dom.LabelContains("button", "上传图片")},
					Wait:     cfg.ElementWait,
					Optional: true,
					Pause:    500 * time.Millisecond,
				},
			},
			Input:     []dom.Strategy{dom.CSS(`input[type="file"][accept*=".jp"]`)},
			InputWait: cfg.ElementWait,
			Confirm: []pipeline.Click{{
				Target: []dom.Strategy{dom.CSS(`button[data-aspm-desc="封面图选择-确认"]`).Enabled()},
				Wait:   cfg.ElementWait,
				Pause:  time.Second,
			}},
		},
		Submit: &pipeline.SubmitSpec{
			Target: []dom.Strategy{
				dom.LabelContains("button", "确认发布"),
				dom.LabelContains("button", "发布视频"),
			},
			Wait: cfg.SubmitWait,
		},
	}
}

func New() *pipeline.Adapter {
	return pipeline.NewAdapter(Spec(DefaultConfig()))
}
