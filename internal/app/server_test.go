package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Fpublisher/internal/config"
	"Fpublisher/internal/database"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/dom"
	"Fpublisher/internal/platform/pipeline"
	"Fpublisher/internal/service"
	"Fpublisher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPayload = `{"isAutoPublish":true,"data":{"title":"t","video":{"url":"https://cdn.example.com/v.mp4","name":"v.mp4"}}}`

type recordingQueue struct {
	ids []string
}

func (q *recordingQueue) Enqueue(taskID string) {
	q.ids = append(q.ids, taskID)
}

type fixture struct {
	server *httptest.Server
	queue  *recordingQueue
	logs   *service.LogService
	media  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	home := t.TempDir()
	config.Config = &config.AppConfig{
		HomeDir:       home,
		MediaPath:     filepath.Join(home, "media"),
		ThumbnailPath: filepath.Join(home, "thumbnails"),
		Addr:          "127.0.0.1:8686",
	}
	require.NoError(t, os.MkdirAll(config.Config.MediaPath, 0755))
	require.NoError(t, os.MkdirAll(config.Config.ThumbnailPath, 0755))

	db, err := database.Open(filepath.Join(home, "test.db"), false)
	require.NoError(t, err)

	registry := platform.NewRegistry()
	registry.Register(pipeline.NewAdapter(pipeline.Spec{
		Platform:   "demo",
		Name:       "演示",
		PublishURL: "https://mp.demo.com/publish",
		Video:      pipeline.VideoSpec{Input: []dom.Strategy{dom.CSS("input.video")}},
		Ready:      pipeline.ReadySpec{Any: []dom.Strategy{dom.CSS("input.title")}},
		Title:      &pipeline.FieldSpec{Target: []dom.Strategy{dom.CSS("input.title")}, Mode: dom.ModeValue},
	}))

	logs := service.NewLogService()
	logs.SetDedupEnabled(false)
	t.Cleanup(logs.Close)

	queue := &recordingQueue{}
	srv := NewServer(
		service.NewTaskService(db, registry, time.UTC),
		service.NewFileService(db),
		logs,
		registry,
		queue,
		time.UTC,
	)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	return &fixture{server: ts, queue: queue, logs: logs, media: config.Config.MediaPath}
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestServer_Platforms(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/api/platforms")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var list []platformInfo
	decode(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "demo", list[0].Platform)
	assert.Equal(t, []string{"upload-video", "wait-ready", "title", "submit"}, list[0].Steps)
}

func TestServer_PublishAndGetTask(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Post(f.server.URL+"/api/publish/demo?priority=2", "application/json", strings.NewReader(validPayload))
	require.NoError(t, err)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var task database.PublishTask
	decode(t, resp, &task)
	assert.Equal(t, database.TaskStatusPending, task.Status)
	assert.Equal(t, 2, task.Priority)
	assert.Equal(t, []string{task.ID}, f.queue.ids)

	resp, err = http.Get(f.server.URL + "/api/tasks/" + task.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got database.PublishTask
	decode(t, resp, &got)
	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "demo", got.Platform)

	resp, err = http.Get(f.server.URL + "/api/tasks?status=pending")
	require.NoError(t, err)
	var list []database.PublishTask
	decode(t, resp, &list)
	assert.Len(t, list, 1)
}

func TestServer_ScheduledTaskIsNotQueued(t *testing.T) {
	f := newFixture(t)

	runAt := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	resp, err := http.Post(f.server.URL+"/api/publish/demo?runAt="+runAt, "application/json", strings.NewReader(validPayload))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()
	assert.Empty(t, f.queue.ids)
}

func TestServer_PublishErrors(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown_platform", "/api/publish/unknown", validPayload, http.StatusBadRequest},
		{"invalid_payload", "/api/publish/demo", `{"data":`, http.StatusBadRequest},
		{"invalid_run_at", "/api/publish/demo?runAt=tomorrow", validPayload, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(f.server.URL+tc.path, "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			var body map[string]string
			decode(t, resp, &body)
			assert.Equal(t, tc.code, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}

	resp, err := http.Get(f.server.URL + "/api/tasks/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_Logs(t *testing.T) {
	f := newFixture(t)
	f.logs.Add(types.SimpleLog{Message: "上传视频完成", Platform: "sohu", Level: types.LogLevelInfo})
	f.logs.Add(types.SimpleLog{Message: "未找到发布按钮", Platform: "yidian", Level: types.LogLevelError})

	resp, err := http.Get(f.server.URL + "/api/logs?level=error")
	require.NoError(t, err)
	var logs []types.SimpleLog
	decode(t, resp, &logs)
	require.Len(t, logs, 1)
	assert.Equal(t, "yidian", logs[0].Platform)
}

func TestServer_LogControls(t *testing.T) {
	f := newFixture(t)
	f.logs.Add(types.SimpleLog{Message: "填写标题完成", Platform: "yiche", Level: types.LogLevelInfo})

	resp, err := http.Get(f.server.URL + "/api/logs/platforms")
	require.NoError(t, err)
	var platforms []string
	decode(t, resp, &platforms)
	assert.Equal(t, []string{"yiche"}, platforms)

	req, err := http.NewRequest(http.MethodPut, f.server.URL+"/api/logs/dedup?enabled=true", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	var state map[string]any
	decode(t, resp, &state)
	assert.Equal(t, true, state["enabled"])

	req, err = http.NewRequest(http.MethodDelete, f.server.URL+"/api/logs", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, f.logs.Count())
}

func TestServer_PoolStats(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.server.URL + "/api/pool")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_UploadAndServeMedia(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "clip.mp4")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake video"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(f.server.URL+"/api/media", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var file database.MediaFile
	decode(t, resp, &file)
	assert.Equal(t, "video/mp4", file.MimeType)

	resp, err = http.Get(f.server.URL + "/media/" + filepath.Base(file.FilePath))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))

	resp, err = http.Get(f.server.URL + "/api/media")
	require.NoError(t, err)
	var files []database.MediaFile
	decode(t, resp, &files)
	assert.Len(t, files, 1)

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/media/%d", f.server.URL, file.ID), nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.NoFileExists(t, file.FilePath)
}

func TestFileLoader_RejectsUnknownFiles(t *testing.T) {
	f := newFixture(t)

	for _, path := range []string{"/media/missing.mp4", "/thumbnails/none.jpg"} {
		resp, err := http.Get(f.server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}
