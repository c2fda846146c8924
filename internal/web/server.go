// Package web 提供实时查看转录进度的HTTP接口
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ccp-p/live-asr-cli/pkg/models"
	"github.com/ccp-p/live-asr-cli/pkg/utils"
)

// Status 是 /api/status 返回的运行状态
type Status struct {
	SessionID string  `json:"session_id"`
	StreamURL string  `json:"stream_url"`
	Model     string  `json:"model"`
	Language  string  `json:"language"`
	StepS     int     `json:"step_s"`
	Ticks     int     `json:"ticks"`
	Emitted   int     `json:"emitted"`
	Elapsed   float64 `json:"elapsed_s"`
}

// StatusFunc 提供当前运行状态的快照
type StatusFunc func() Status

// Server 在本地端口上暴露实时字幕和运行状态
type Server struct {
	store    *models.TranscriptStore
	statusFn StatusFunc
	srv      *http.Server
}

// NewServer 创建实时字幕HTTP服务
func NewServer(port int, store *models.TranscriptStore, statusFn StatusFunc) *Server {
	s := &Server{
		store:    store,
		statusFn: statusFn,
	}

	s.srv = &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: s.Handler(),
	}

	return s
}

// Handler 构建路由
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/transcript", s.handleTranscript).Methods("GET")
	r.HandleFunc("/api/transcript/text", s.handleFullText).Methods("GET")
	r.HandleFunc("/api/status", s.handleStatus).Methods("GET")
	return r
}

// Start 在后台启动HTTP服务
func (s *Server) Start() {
	go func() {
		utils.Info("实时字幕服务已启动: http://%s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Error("实时字幕服务异常退出: %v", err)
		}
	}()
}

// Stop 关闭HTTP服务
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		utils.Warn("关闭实时字幕服务失败: %v", err)
	}
}

// handleTranscript 返回累积的全部转录行
func (s *Server) handleTranscript(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.store.Lines())
}

// handleFullText 返回合并后的纯文本
func (s *Server) handleFullText(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, s.store.FullText())
}

// handleStatus 返回运行状态
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.statusFn())
}

// writeJSON 输出JSON响应
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Error("编码HTTP响应失败: %v", err)
	}
}
