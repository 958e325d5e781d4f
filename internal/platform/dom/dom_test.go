package dom_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/dom/domtest"
	"Fpublisher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategy_Selector(t *testing.T) {
	tests := []struct {
		name     string
		strategy dom.Strategy
		want     string
	}{
		{"css", dom.CSS("input.ne-input"), "css=input.ne-input"},
		{"css_enabled", dom.CSS("button.publish").Enabled(), "css=:is(button.publish):not([disabled]):not(.disabled)"},
		{"text", dom.Text("button", "发布"), `xpath=//button[count(node())=1 and normalize-space(text())="发布"]`},
		{"text_any_tag", dom.Text("", "上传完成"), `xpath=//*[count(node())=1 and normalize-space(text())="上传完成"]`},
		{"text_contains", dom.TextContains("span", "请添加"), `xpath=//span[count(node())=1 and contains(text(), "请添加")]`},
		{"label", dom.Label("button", "确定"), `xpath=//button[normalize-space(.)="确定"]`},
		{"label_contains", dom.LabelContains("button", "发布"), `xpath=//button[contains(normalize-space(.), "发布")]`},
		{"attr", dom.Attr("input", "accept", "video"), `css=input[accept*="video"]`},
		{"attr_enabled", dom.Attr("button", "class", "publish").Enabled(), `css=button[class*="publish"]:not([disabled]):not(.disabled)`},
		{"xpath", dom.XPath("//div[@id='x']"), "xpath=//div[@id='x']"},
		{"visible", dom.CSS("span.edit-btn").Visible(), "css=span.edit-btn >> visible=true"},
		{"within", dom.Text("span", "汽车").Within(".generic"), `css=.generic >> xpath=.//span[count(node())=1 and normalize-space(text())="汽车"]`},
		{"quote", dom.Label("a", `say "hi"`), `xpath=//a[normalize-space(.)='say "hi"']`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.strategy.Selector())
		})
	}

	enabled := dom.Label("button", "发布").Enabled().Selector()
	assert.Contains(t, enabled, "not(@disabled)")
	assert.Contains(t, enabled, `" disabled "`)

	mixed := dom.Label("a", `it's "x"`).Selector()
	assert.Contains(t, mixed, "concat(")
}

func TestLocate(t *testing.T) {
	page := domtest.New("https://mp.example.com/publish")
	second := dom.CSS("textarea.abstract")
	page.Add(second.Selector(), nil)

	m, ok := dom.Locate(page, dom.CSS("textarea.missing"), second)
	require.True(t, ok)
	assert.Equal(t, second.Selector(), m.Selector)

	_, ok = dom.Locate(page, dom.CSS("nope"))
	assert.False(t, ok)

	page.Add("css=broken", &domtest.Element{Err: errors.New("bad selector")})
	_, ok = dom.Locate(page, dom.CSS("broken"))
	assert.False(t, ok, "选择器报错按未找到处理")
}

func TestAwaitLocate(t *testing.T) {
	ctx := context.Background()
	page := domtest.New("")
	target := dom.Text("button", "确认")

	go func() {
		time.Sleep(20 * time.Millisecond)
		page.Add(target.Selector(), nil)
	}()

	m, err := dom.AwaitLocate(ctx, page, dom.Wait{Attempts: 50, Interval: 5 * time.Millisecond}, target)
	require.NoError(t, err)
	assert.Equal(t, target.Selector(), m.Selector)

	_, err = dom.AwaitLocate(ctx, page, dom.Wait{Attempts: 3, Interval: time.Millisecond}, dom.CSS("never"))
	assert.ErrorIs(t, err, types.ErrElementNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = dom.AwaitLocate(cancelled, page, dom.Wait{Attempts: 3, Interval: time.Millisecond}, dom.CSS("never"))
	assert.ErrorIs(t, err, types.ErrCancelled)
}

func TestWriteAndInject(t *testing.T) {
	page := domtest.New("")
	page.Add("css=input", nil)
	page.Add("css=div[contenteditable]", nil)

	require.NoError(t, dom.Write(page, "css=input", dom.ModeValue, "标题"))
	require.NoError(t, dom.Write(page, "css=div[contenteditable]", dom.ModeText, "正文"))
	require.NoError(t, dom.Write(page, "css=div[contenteditable]", dom.ModePaste, " #标签"))
	assert.Equal(t, "标题", page.Get("css=input").Value)
	assert.Equal(t, "正文 #标签", page.Get("css=div[contenteditable]").Text)

	assert.Error(t, dom.Write(page, "css=missing", dom.ModeValue, "x"))

	page.Add("css=input[type=file]", nil)
	file := &types.File{Name: "a.mp4", MimeType: "video/mp4", Data: []byte("v")}
	require.NoError(t, dom.Inject(page, "css=input[type=file]", file))
	assert.Equal(t, []*types.File{file}, page.Get("css=input[type=file]").Files)
	assert.Error(t, dom.Inject(page, "css=input[type=file]", nil))
}

func TestWriteHook(t *testing.T) {
	page := domtest.New("")
	page.Add("css=.video-editor-container", &domtest.Element{Data: map[string]any{
		"videos": map[string]any{"v1": map[string]any{"title": ""}},
	}})

	hook := dom.Hook{Selector: "css=.video-editor-container", Path: "videos.*.title"}
	require.NoError(t, dom.WriteHook(page, hook, "新标题"))

	got, err := page.FrameworkData(hook.Selector, hook.Path)
	require.NoError(t, err)
	assert.Equal(t, "新标题", got)
}
