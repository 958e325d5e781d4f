package vivovideo

import (
	"context"
	"testing"
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/dom/domtest"
	"Fpublisher/internal/platform/media"
	"Fpublisher/internal/platform/pipeline"
	"Fpublisher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	w := dom.Wait{Attempts: 3, Interval: time.Millisecond}
	return Config{ReadyWait: dom.Wait{Attempts: 50, Interval: 2 * time.Millisecond}, ElementWait: w, SubmitWait: w}
}

func TestSpec_PublishShortFlow(t *testing.T) {
	spec := Spec(fastConfig())
	page := domtest.New("https://www.kaixinkan.com.cn/")

	title := spec.Title.Target[0].Selector()
	desc := spec.Description.Target[0].Selector()
	picker := spec.Schedule.Input[0].Selector()
	submit := spec.Submit.Target[0].Enabled().Selector()

	// 编辑控件先渲染，地址稍后才跳转到 publishShort
	page.Add(spec.Video.Input[0].Selector(), &domtest.Element{OnFiles: func(p *domtest.Page, f *types.File) {
		p.Add(spec.Ready.Any[0].Selector(), nil)
		p.Add(title, nil)
		p.Add(desc, nil)
		go func() {
			time.Sleep(10 * time.Millisecond)
			p.SetURL("https://www.kaixinkan.com.cn/publishShort")
		}()
	}})
	page.Add(spec.Schedule.Open[0].Target[0].Selector(), nil)
	page.Add(picker, nil)
	page.Add(submit, nil)

	at := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Minute)
	payload := &types.ContentPayload{
		Title:       "新车到店",
		Description: "简介",
		Tags:        []string{"汽车", "#试驾"},
		Video:       &types.MediaRef{Inline: &types.File{Name: "v.mp4", MimeType: "video/mp4", Data: []byte("v")}},
		ScheduledAt: &at,
		AutoPublish: true,
	}
	run := &pipeline.Run{ID: "r1", Platform: Platform, Page: page, Payload: payload, Media: media.NewResolver(nil), Location: time.UTC}
	report := pipeline.NewAdapter(spec).Pipeline(nil).Execute(context.Background(), run)

	require.Equal(t, pipeline.StateCompleted, report.State)

	ready, _ := report.Result(pipeline.StepWaitReady)
	assert.Equal(t, pipeline.OutcomeSuccess, ready.Outcome)

	assert.Equal(t, "新车到店", page.Get(title).Value)
	assert.Equal(t, "简介 #汽车 #试驾", page.Get(desc).Text)

	_, hasTags := report.Result(pipeline.StepTags)
	assert.False(t, hasTags)

	cover, _ := report.Result(pipeline.StepCover)
	assert.Equal(t, pipeline.OutcomeSkipped, cover.Outcome)

	sched, _ := report.Result(pipeline.StepSchedule)
	assert.Equal(t, pipeline.OutcomeSuccess, sched.Outcome)
	assert.Equal(t, at.Format(types.ScheduleLayout), page.Get(picker).Value)

	assert.True(t, page.Clicked(submit))
}

func TestSpec_StaysOnUploadPage(t *testing.T) {
	cfg := fastConfig()
	cfg.ReadyWait = dom.Wait{Attempts: 3, Interval: time.Millisecond}
	spec := Spec(cfg)
	page := domtest.New("https://www.kaixinkan.com.cn/")

	// 控件已出现但地址未跳转，不算就绪
	page.Add(spec.Video.Input[0].Selector(), &domtest.Element{OnFiles: func(p *domtest.Page, f *types.File) {
		p.Add(spec.Ready.Any[0].Selector(), nil)
		p.Add(spec.Title.Target[0].Selector(), nil)
	}})

	payload := &types.ContentPayload{
		Title: "新车到店",
		Video: &types.MediaRef{Inline: &types.File{Name: "v.mp4", MimeType: "video/mp4", Data: []byte("v")}},
	}
	run := &pipeline.Run{ID: "r2", Platform: Platform, Page: page, Payload: payload, Media: media.NewResolver(nil)}
	report := pipeline.NewAdapter(spec).Pipeline(nil).Execute(context.Background(), run)

	require.Equal(t, pipeline.StateAborted, report.State)
	assert.Equal(t, pipeline.StepWaitReady, report.AbortedAt)
	assert.Empty(t, page.ActionsOf("value"))
}
