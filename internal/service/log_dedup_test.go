package service

import (
	"fmt"
	"strings"
	"testing"

	"Fpublisher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDeduplicator_Process(t *testing.T) {
	t.Run("unmatched_log_direct_output", func(t *testing.T) {
		dedup := NewLogDeduplicator()
		log := types.SimpleLog{Date: "2024/1/1", Time: "10:00:00", Message: "[步骤 1/7] upload-video: Success", Level: types.LogLevelInfo}

		result := dedup.Process(log)
		require.Len(t, result, 1)
		assert.Equal(t, log.Message, result[0].Message)
		assert.False(t, result[0].IsMerged)
	})

	t.Run("matched_log_merged", func(t *testing.T) {
		dedup := NewLogDeduplicator()

		// 不同标签的联想缺失归为一组
		for i, tag := range []string{"汽车", "试驾", "新能源"} {
			result := dedup.Process(types.SimpleLog{
				Date: "2024/1/1", Time: fmt.Sprintf("10:00:0%d", i),
				Message: "未找到标签联想项: " + tag, Platform: "sohu", Level: types.LogLevelWarn,
			})
			assert.Nil(t, result)
		}
		assert.Equal(t, 1, dedup.Pending())

		result := dedup.FlushAll()
		require.Len(t, result, 2)
		assert.False(t, result[0].IsMerged)
		assert.Equal(t, "未找到标签联想项: 汽车", result[0].Message)
		assert.True(t, result[1].IsMerged)
		assert.Equal(t, 3, result[1].RepeatCount)
		assert.Contains(t, result[1].Message, "重复出现 3 次")
		assert.Equal(t, "sohu", result[1].Platform)
	})

	t.Run("window_exceeded_flushes_old_group", func(t *testing.T) {
		dedup := NewLogDeduplicator()
		msg := "[WARN] 关闭页面失败: playwright: target closed"
		assert.Nil(t, dedup.Process(types.SimpleLog{Time: "10:00:00", Message: msg}))
		assert.Nil(t, dedup.Process(types.SimpleLog{Time: "10:00:10", Message: msg}))

		result := dedup.Process(types.SimpleLog{Time: "10:01:00", Message: msg})
		require.NotEmpty(t, result)
		assert.Equal(t, 2, result[len(result)-1].RepeatCount)
		assert.Equal(t, 1, dedup.Pending(), "新的一组开始计数")
	})

	t.Run("flush_all_without_first", func(t *testing.T) {
		dedup := NewLogDeduplicator()
		log := types.SimpleLog{Date: "2024/1/1", Time: "10:00:00", Message: "保存步骤记录失败: database is locked"}
		dedup.Process(log)
		dedup.Process(log)
		dedup.Process(log)

		result := dedup.FlushAll()
		require.Len(t, result, 1)
		assert.True(t, result[0].IsMerged)
		assert.Equal(t, 3, result[0].RepeatCount)
		assert.Contains(t, result[0].Message, "database is locked (重复出现 3 次)")
	})
}

func TestLogDeduplicator_Level(t *testing.T) {
	tests := []struct {
		log  types.SimpleLog
		want string
	}{
		{types.SimpleLog{Message: "[ERROR] 错误消息"}, "error"},
		{types.SimpleLog{Message: "[WARN] 警告消息"}, "warn"},
		{types.SimpleLog{Message: "[DEBUG] 调试消息"}, "debug"},
		{types.SimpleLog{Message: "[SUCCESS] 成功消息"}, "success"},
		{types.SimpleLog{Message: "普通消息"}, "info"},
		{types.SimpleLog{Message: "[ERROR] 前缀被结构化级别覆盖", Level: types.LogLevelWarn}, "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.log.Message, func(t *testing.T) {
			assert.Equal(t, tt.want, levelOf(tt.log))
		})
	}
}

func TestLogDeduplicator_SingleHitIsNotLost(t *testing.T) {
	dedup := NewLogDeduplicator()
	log := types.SimpleLog{Time: "10:00:00", Message: "保存步骤记录失败: database is locked", Level: types.LogLevelWarn}
	assert.Nil(t, dedup.Process(log))

	result := dedup.FlushAll()
	require.Len(t, result, 1)
	assert.False(t, result[0].IsMerged)
	assert.Equal(t, log.Message, result[0].Message)
	assert.Equal(t, 0, dedup.Pending())
}

func TestLogDeduplicator_GroupsByPlatform(t *testing.T) {
	dedup := NewLogDeduplicator()
	dedup.Process(types.SimpleLog{Time: "10:00:00", Message: "标签回车失败: a: timeout", Platform: "netease", Level: types.LogLevelWarn})
	dedup.Process(types.SimpleLog{Time: "10:00:01", Message: "标签回车失败: b: timeout", Platform: "yidian", Level: types.LogLevelWarn})
	assert.Equal(t, 2, dedup.Pending())
}

func TestLogService_QueryAndDedupSwitch(t *testing.T) {
	service := NewLogService()
	defer service.Close()

	service.Add(types.SimpleLog{Time: "10:00:00", Message: "开始发布", Platform: "netease", Level: types.LogLevelInfo})
	service.Add(types.SimpleLog{Time: "10:00:01", Message: "未找到标签联想项: a", Platform: "sohu", Level: types.LogLevelWarn})
	service.Add(types.SimpleLog{Time: "10:00:02", Message: "未找到标签联想项: b", Platform: "sohu", Level: types.LogLevelWarn})
	service.Add(types.SimpleLog{Time: "10:00:03", Message: "[步骤 2/7] wait-ready: Failed (UploadTimeout)", Platform: "sohu", Level: types.LogLevelError})

	// 关闭归并时待归并的日志立即输出
	service.SetDedupEnabled(false)
	assert.False(t, service.IsDedupEnabled())
	assert.Equal(t, 0, service.GetPendingDedupCount())

	all := service.GetAll(100)
	require.Len(t, all, 4)
	var merged bool
	for _, l := range all {
		if strings.Contains(l.Message, "重复出现 2 次") {
			merged = true
		}
	}
	assert.True(t, merged)

	sohu := service.Query(types.LogQuery{Platform: "sohu", Level: types.LogLevelError})
	require.Len(t, sohu, 1)
	assert.Contains(t, sohu[0].Message, "wait-ready")

	assert.Equal(t, []string{"netease", "sohu"}, service.GetPlatforms())

	service.Add(types.SimpleLog{Message: "直接写入", Level: types.LogLevelInfo})
	assert.Equal(t, 5, service.Count())

	service.SetDedupEnabled(true)
	assert.True(t, service.IsDedupEnabled())

	service.Clear()
	assert.Equal(t, 0, service.Count())
}
