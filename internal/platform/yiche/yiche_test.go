package yiche

import (
	"context"
	"strings"
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
	return Config{ReadyWait: w, ElementWait: w, CropWait: w}
}

func TestSpec_ManualSubmitWithCover(t *testing.T) {
	spec := Spec(fastConfig())
	page := domtest.New("https://mp.yiche.com/#/publish/video")

	popup := spec.Dismiss[0].Selector()
	page.Add(popup, &domtest.Element{OnClick: func(p *domtest.Page) { p.Remove(popup) }})

	page.Add(spec.Video.Input[0].Selector(), &domtest.Element{OnFiles: func(p *domtest.Page, f *types.File) {
		p.Add(spec.Ready.Any[0].Selector(), nil)
		p.Add(spec.Title.Target[0].Selector(), nil)
		p.Add(spec.Description.Target[0].Selector(), nil)
	}})

	cropConfirm := spec.Cover.Confirm[1].Target[0].Selector()
	page.Add(spec.Cover.Open[0].Target[0].Selector(), nil)
	page.Add(spec.Cover.Input[0].Selector(), &domtest.Element{OnFiles: func(p *domtest.Page, f *types.File) {
		p.Add(cropConfirm, nil)
	}})
	page.Add(spec.Original.Target[0].Selector(), nil)

	payload := &types.ContentPayload{
		Title:       strings.Repeat("易", 60),
		Description: "试驾体验",
		Video:       &types.MediaRef{Inline: &types.File{Name: "v.mp4", MimeType: "video/mp4", Data: []byte("v")}},
		Cover:       &types.MediaRef{Inline: &types.File{Name: "c.jpg", MimeType: "image/jpeg", Data: []byte("c")}},
		AutoPublish: true,
	}
	run := &pipeline.Run{ID: "r1", Platform: Platform, Page: page, Payload: payload, Media: media.NewResolver(nil)}
	report := pipeline.NewAdapter(spec).Pipeline(nil).Execute(context.Background(), run)

	require.Equal(t, pipeline.StateCompleted, report.State)
	assert.True(t, page.Clicked(popup), "弹窗应被关闭")

	assert.Equal(t, strings.Repeat("易", 50), page.Get(spec.Title.Target[0].Selector()).Value)
	assert.Equal(t, "试驾体验", page.Get(spec.Description.Target[0].Selector()).Value)

	cover, _ := report.Result(pipeline.StepCover)
	assert.Equal(t, pipeline.OutcomeSuccess, cover.Outcome)
	assert.True(t, page.Clicked(cropConfirm))

	vertical, _ := report.Result(pipeline.StepVerticalCover)
	assert.Equal(t, pipeline.OutcomeSkipped, vertical.Outcome)

	orig, _ := report.Result(pipeline.StepDeclareOriginal)
	assert.Equal(t, pipeline.OutcomeSuccess, orig.Outcome)

	sub, _ := report.Result(pipeline.StepSubmit)
	assert.Equal(t, pipeline.OutcomeSkipped, sub.Outcome)
	assert.Equal(t, "manual submit", sub.Reason)
}
