package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ScheduleLayout 定时发布时间的简写格式
const ScheduleLayout = "2006-01-02 15:04"

// wirePayload 与浏览器扩展一致的 SyncData 结构，仅用于编码
type wirePayload struct {
	IsAutoPublish bool     `json:"isAutoPublish"`
	Data          wireData `json:"data"`
}

type wireData struct {
	Title                string     `json:"title,omitempty"`
	Content              string     `json:"content,omitempty"`
	Tags                 []string   `json:"tags,omitempty"`
	Video                *wireMedia `json:"video,omitempty"`
	Cover                *wireMedia `json:"cover,omitempty"`
	VerticalCover        *wireMedia `json:"verticalCover,omitempty"`
	FocusImage           *wireMedia `json:"focusImage,omitempty"`
	ScheduledPublishTime string     `json:"scheduledPublishTime,omitempty"`
}

type wireMedia struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// ParsePayload 解析 SyncData 格式的 JSON
// loc 用于解析不带时区的定时发布时间，为 nil 时使用本地时区
func ParsePayload(data []byte, loc *time.Location) (*ContentPayload, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("payload 不是合法的 JSON")
	}
	if loc == nil {
		loc = time.Local
	}

	root := gjson.ParseBytes(data)
	body := root.Get("data")
	if !body.IsObject() {
		return nil, fmt.Errorf("payload 缺少 data 字段")
	}

	payload := &ContentPayload{
		Title:       body.Get("title").String(),
		Description: body.Get("content").String(),
		AutoPublish: root.Get("isAutoPublish").Bool(),
	}

	for _, tag := range body.Get("tags").Array() {
		payload.Tags = append(payload.Tags, tag.String())
	}

	var err error
	if payload.Video, err = parseMedia(body.Get("video")); err != nil {
		return nil, fmt.Errorf("解析 video 失败: %w", err)
	}
	if payload.Cover, err = parseMedia(body.Get("cover")); err != nil {
		return nil, fmt.Errorf("解析 cover 失败: %w", err)
	}
	if payload.VerticalCover, err = parseMedia(body.Get("verticalCover")); err != nil {
		return nil, fmt.Errorf("解析 verticalCover 失败: %w", err)
	}
	if payload.FocusImage, err = parseMedia(body.Get("focusImage")); err != nil {
		return nil, fmt.Errorf("解析 focusImage 失败: %w", err)
	}

	if raw := strings.TrimSpace(body.Get("scheduledPublishTime").String()); raw != "" {
		at, err := ParseScheduleTime(raw, loc)
		if err != nil {
			return nil, err
		}
		payload.ScheduledAt = &at
	}

	return payload, nil
}

func parseMedia(v gjson.Result) (*MediaRef, error) {
	if !v.Exists() || v.Type == gjson.Null {
		return nil, nil
	}
	ref := &MediaRef{
		SourceURL: v.Get("url").String(),
		FileName:  v.Get("name").String(),
		MimeType:  v.Get("type").String(),
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return ref, nil
}

// ParseScheduleTime 解析定时发布时间，支持 RFC3339 与 2006-01-02 15:04
func ParseScheduleTime(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(ScheduleLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("解析定时发布时间失败: %w", err)
	}
	return t, nil
}

// EncodePayload 将内容编码为 SyncData 格式的 JSON，内联文件不会被编码
func EncodePayload(p *ContentPayload) ([]byte, error) {
	w := wirePayload{
		IsAutoPublish: p.AutoPublish,
		Data: wireData{
			Title:         p.Title,
			Content:       p.Description,
			Tags:          p.Tags,
			Video:         toWireMedia(p.Video),
			Cover:         toWireMedia(p.Cover),
			VerticalCover: toWireMedia(p.VerticalCover),
			FocusImage:    toWireMedia(p.FocusImage),
		},
	}
	if p.ScheduledAt != nil {
		w.Data.ScheduledPublishTime = p.ScheduledAt.Format(time.RFC3339)
	}
	return json.Marshal(w)
}

func toWireMedia(m *MediaRef) *wireMedia {
	if m == nil || m.SourceURL == "" {
		return nil
	}
	return &wireMedia{URL: m.SourceURL, Name: m.FileName, Type: m.MimeType}
}
