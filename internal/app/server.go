package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Fpublisher/internal/database"
	"Fpublisher/internal/platform"
	"Fpublisher/internal/platform/browser"
	"Fpublisher/internal/service"
	"Fpublisher/internal/types"
	"Fpublisher/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxPayloadSize 同步数据 JSON 的大小上限，素材走 URL 不内联
const maxPayloadSize = 1 << 20

// Enqueuer 接收立即执行的任务
type Enqueuer interface {
	Enqueue(taskID string)
}

// Server HTTP 接口
type Server struct {
	tasks      *service.TaskService
	files      *service.FileService
	logs       *service.LogService
	registry   *platform.Registry
	queue      Enqueuer
	fileLoader http.Handler
	location   *time.Location

	poolStats func() browser.PoolStats
}

func NewServer(tasks *service.TaskService, files *service.FileService, logs *service.LogService,
	registry *platform.Registry, queue Enqueuer, loc *time.Location) *Server {
	if loc == nil {
		loc = time.Local
	}
	return &Server{
		tasks:      tasks,
		files:      files,
		logs:       logs,
		registry:   registry,
		queue:      queue,
		fileLoader: NewFileLoader(),
		location:   loc,
	}
}

// SetPoolStats 暴露浏览器池状态
func (s *Server) SetPoolStats(fn func() browser.PoolStats) {
	s.poolStats = fn
}

// Routes 注册路由
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/platforms", s.handlePlatforms)
		r.Post("/publish/{platform}", s.handlePublish)
		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Get("/logs", s.handleLogs)
		r.Delete("/logs", s.handleClearLogs)
		r.Get("/logs/platforms", s.handleLogPlatforms)
		r.Put("/logs/dedup", s.handleLogDedup)
		r.Get("/media", s.handleListMedia)
		r.Post("/media", s.handleImportMedia)
		r.Delete("/media/{id}", s.handleDeleteMedia)
		r.Post("/media/{id}/thumbnail", s.handleThumbnail)
		r.Get("/pool", s.handlePool)
	})

	r.Handle("/media/*", s.fileLoader)
	r.Handle("/thumbnails/*", s.fileLoader)
	return r
}

// ListenAndServe 阻塞直到 ctx 取消，然后优雅关闭
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info(fmt.Sprintf("[+] HTTP 服务已启动: http://%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		utils.Debug(fmt.Sprintf("%s %s %d %s", r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond)))
	})
}

type platformInfo struct {
	Platform   string   `json:"platform"`
	Name       string   `json:"name"`
	PublishURL string   `json:"publishUrl"`
	Steps      []string `json:"steps"`
}

func (s *Server) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	adapters := s.registry.List()
	list := make([]platformInfo, 0, len(adapters))
	for _, a := range adapters {
		list = append(list, platformInfo{Platform: a.Platform, Name: a.Name, PublishURL: a.PublishURL, Steps: a.StepNames()})
	}
	writeJSON(w, http.StatusOK, list)
}

// handlePublish 请求体为同步数据 JSON，runAt 指定时按时执行，否则立即排队
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	platformName := chi.URLParam(r, "platform")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(body) > maxPayloadSize {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("payload exceeds %d bytes", maxPayloadSize))
		return
	}

	var runAt time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("runAt")); raw != "" {
		if runAt, err = types.ParseScheduleTime(raw, s.location); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	priority, _ := strconv.Atoi(r.URL.Query().Get("priority"))

	task, err := s.tasks.CreateTask(r.Context(), platformName, body, runAt, priority)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if s.queue != nil && !task.ScheduleTime.After(time.Now()) {
		s.queue.Enqueue(task.ID)
	}
	writeJSON(w, http.StatusAccepted, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	tasks, err := s.tasks.ListTasks(r.Context(), database.TaskStatus(r.URL.Query().Get("status")), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.tasks.GetTask(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, service.ErrTaskNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	writeJSON(w, http.StatusOK, s.logs.Query(types.LogQuery{
		Keyword:  q.Get("keyword"),
		Platform: q.Get("platform"),
		Level:    types.ParseLogLevel(q.Get("level")),
		Limit:    limit,
	}))
}

func (s *Server) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	s.logs.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLogPlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.logs.GetPlatforms())
}

// handleLogDedup ?enabled=true|false 切换重复日志归并
func (s *Server) handleLogDedup(w http.ResponseWriter, r *http.Request) {
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid enabled: %w", err))
		return
	}
	s.logs.SetDedupEnabled(enabled)
	writeJSON(w, http.StatusOK, map[string]any{
		"enabled": s.logs.IsDedupEnabled(),
		"pending": s.logs.GetPendingDedupCount(),
	})
}

func (s *Server) handlePool(w http.ResponseWriter, r *http.Request) {
	if s.poolStats == nil {
		writeError(w, http.StatusNotFound, errors.New("browser pool not attached"))
		return
	}
	writeJSON(w, http.StatusOK, s.poolStats())
}

func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	files, err := s.files.GetMedia(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// handleImportMedia multipart 的 file 字段上传，或 path 字段导入服务器本地文件
func (s *Server) handleImportMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse form failed: %w", err))
		return
	}

	if path := r.FormValue("path"); path != "" {
		file, err := s.files.ImportFile(r.Context(), path)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, file)
		return
	}

	upload, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file: %w", err))
		return
	}
	defer upload.Close()

	file, err := s.files.Save(r.Context(), header.Filename, upload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err))
		return
	}
	if err := s.files.DeleteMedia(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err))
		return
	}
	var at time.Duration
	if raw := r.URL.Query().Get("at"); raw != "" {
		if at, err = time.ParseDuration(raw); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	url, err := s.files.ExtractThumbnail(r.Context(), id, at)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"thumbnail": url})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Warn(fmt.Sprintf("写入响应失败: %v", err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
