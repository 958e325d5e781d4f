package yidian

import (
	"context"
	"errors"
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
	return Config{ReadyWait: w, ElementWait: w, HookWait: w, SubmitWait: w}
}

func TestSpec_FrameworkDataFallback(t *testing.T) {
	spec := Spec(fastConfig())
	page := domtest.New("https://mp.yidianzixun.com/#/Writing/videoEditor")
	page.Add(spec.Video.Input[0].Selector(), nil)
	page.Add(spec.Ready.Any[0].Selector(), nil)
	page.Add(spec.Description.Target[0].Selector(), nil)
	page.Add(spec.Submit.Target[0].Enabled().Selector(), nil)
	// 标题输入框不存在，只能写组件数据
	page.Add(editor, &domtest.Element{Data: map[string]any{
		"videos": map[string]any{"9f1c": map[string]any{"title": "", "desc": ""}},
	}})
	page.Add(".tagsuginput-container", &domtest.Element{Data: map[string]any{
		"tags": []any{"汽车"},
	}})

	payload := &types.ContentPayload{
		Title:       "新车试驾",
		Description: "城市通勤实测",
		Tags:        []string{"汽车", "试驾", "新能源"},
		Video:       &types.MediaRef{Inline: &types.File{Name: "v.mp4", MimeType: "video/mp4", Data: []byte("v")}},
		AutoPublish: true,
	}
	noFetch := media.FetcherFunc(func(ctx context.Context, rawURL string) (*media.Fetched, error) {
		return nil, errors.New("unexpected fetch")
	})
	run := &pipeline.Run{ID: "r1", Platform: Platform, Page: page, Payload: payload, Media: media.NewResolver(noFetch)}

	report := pipeline.NewAdapter(spec).Pipeline(nil).Execute(context.Background(), run)
	require.Equal(t, pipeline.StateCompleted, report.State, report.Summary())

	title, ok := report.Result(pipeline.StepTitle)
	require.True(t, ok)
	assert.Equal(t, "hook", title.Detail)
	got, err := page.FrameworkData(editor, "videos.*.title")
	require.NoError(t, err)
	assert.Equal(t, "新车试驾", got)

	assert.Equal(t, "城市通勤实测", page.Get(spec.Description.Target[0].Selector()).Value)

	tags, err := page.FrameworkData(".tagsuginput-container", "tags")
	require.NoError(t, err)
	assert.Equal(t, []string{"汽车", "试驾", "新能源"}, tags)

	assert.True(t, page.Clicked(spec.Submit.Target[0].Enabled().Selector()))
}
