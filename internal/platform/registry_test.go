package platform

import (
	"testing"

	"Fpublisher/internal/platform/pipeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_List(t *testing.T) {
	var names []string
	for _, a := range DefaultRegistry().List() {
		names = append(names, a.Platform)
		assert.NotEmpty(t, a.PublishURL, a.Platform)
		assert.NotEmpty(t, a.Name, a.Platform)
	}
	assert.Equal(t, []string{"alipay", "netease", "pinduoduo", "sohu", "vivovideo", "yiche", "yidian"}, names)
}

func TestDefaultRegistry_Get(t *testing.T) {
	a, err := DefaultRegistry().Get("sohu")
	require.NoError(t, err)
	assert.Equal(t, "搜狐号", a.Name)

	_, err = DefaultRegistry().Get("douyin")
	assert.Error(t, err)
}

func TestDefaultRegistry_Match(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://mp.163.com/subscribe_v4/index.html#/video-publish", "netease"},
		{"https://mp.sohu.com/mpfe/v4/contentManagement/news/addvideo", "sohu"},
		{"https://c.alipay.com/page/life-account/index.htm", "alipay"},
		{"https://mms.pinduoduo.com/sabo/video/publish", "pinduoduo"},
		{"https://www.kaixinkan.com.cn/publishShort?id=1", "vivovideo"},
		{"https://mp.yiche.com/#/publish/video", "yiche"},
		{"https://mp.yidianzixun.com/#/Writing/videoEditor", "yidian"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			a, ok := DefaultRegistry().Match(tt.url)
			require.True(t, ok)
			assert.Equal(t, tt.want, a.Platform)
		})
	}

	_, ok := DefaultRegistry().Match("https://example.com/")
	assert.False(t, ok)
}

func TestAdapters_StepOrder(t *testing.T) {
	tests := []struct {
		platform string
		want     []string
	}{
		{"netease", []string{
			pipeline.StepUploadVideo, pipeline.StepWaitReady, pipeline.StepTitle, pipeline.StepTags,
			pipeline.StepCover, pipeline.StepDeclareOriginal, pipeline.StepSubmit,
		}},
		{"sohu", []string{
			pipeline.StepUploadVideo, pipeline.StepWaitReady, pipeline.StepTitle, pipeline.StepDescription,
			pipeline.StepTags, pipeline.StepCover, pipeline.StepSubmit,
		}},
		// 标签追加到简介，没有独立的标签步骤
		{"alipay", []string{
			pipeline.StepUploadVideo, pipeline.StepWaitReady, pipeline.StepTitle, pipeline.StepDescription,
			pipeline.StepCover, pipeline.StepSubmit,
		}},
		{"pinduoduo", []string{
			pipeline.StepUploadVideo, pipeline.StepWaitReady, pipeline.StepDescription,
			pipeline.StepCover, pipeline.StepSubmit,
		}},
		{"vivovideo", []string{
			pipeline.StepUploadVideo, pipeline.StepWaitReady, pipeline.StepTitle, pipeline.StepDescription,
			pipeline.StepCover, pipeline.StepSchedule, pipeline.StepSubmit,
		}},
		{"yiche", []string{
			pipeline.StepUploadVideo, pipeline.StepWaitReady, pipeline.StepTitle, pipeline.StepDescription,
			pipeline.StepCover, pipeline.StepVerticalCover, pipeline.StepFocusImage,
			pipeline.StepDeclareOriginal, pipeline.StepSubmit,
		}},
		{"yidian", []string{
			pipeline.StepUploadVideo, pipeline.StepWaitReady, pipeline.StepTitle, pipeline.StepDescription,
			pipeline.StepTags, pipeline.StepCover, pipeline.StepSubmit,
		}},
	}
	for _, tt := range tests {
		t.Run(tt.platform, func(t *testing.T) {
			a, err := DefaultRegistry().Get(tt.platform)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.StepNames())
			assert.True(t, a.Steps[0].Required)
			assert.True(t, a.Steps[1].Required)
		})
	}
}
