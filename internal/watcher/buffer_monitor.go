// Package watcher 监控抓取缓冲文件的增长情况
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ccp-p/live-asr-cli/pkg/utils"
	"github.com/fsnotify/fsnotify"
)

// BufferMonitor 通过fsnotify观察缓冲文件的写入事件
// 缓冲文件长时间没有增长说明抓取进程已死或流已断开，
// 此时切片重试只会空转，监控器把这种状态暴露给提取器的存活探测
type BufferMonitor struct {
	bufferPath string
	stallAfter time.Duration

	watcher   *fsnotify.Watcher
	stopChan  chan struct{}
	mutex     sync.Mutex
	lastWrite time.Time
	started   bool
	warned    bool
}

// NewBufferMonitor 创建新的缓冲监控器
// stallAfter: 超过该时长无写入事件即判定为停滞
func NewBufferMonitor(bufferPath string, stallAfter time.Duration) (*BufferMonitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	return &BufferMonitor{
		bufferPath: bufferPath,
		stallAfter: stallAfter,
		watcher:    watcher,
		stopChan:   make(chan struct{}),
	}, nil
}

// Start 开始监控缓冲文件
// 监听所在目录而不是文件本身：启动时ffmpeg可能还没创建缓冲文件
func (m *BufferMonitor) Start() error {
	dir := filepath.Dir(m.bufferPath)
	if err := m.watcher.Add(dir); err != nil {
		return fmt.Errorf("添加监控目录失败: %w", err)
	}

	m.mutex.Lock()
	m.lastWrite = time.Now()
	m.started = true
	m.mutex.Unlock()

	go m.watchLoop()

	utils.Debug("开始监控缓冲文件: %s", m.bufferPath)
	return nil
}

// Stop 停止监控
func (m *BufferMonitor) Stop() {
	m.mutex.Lock()
	if !m.started {
		m.mutex.Unlock()
		return
	}
	m.started = false
	m.mutex.Unlock()

	close(m.stopChan)
	m.watcher.Close()
	utils.Debug("停止监控缓冲文件: %s", m.bufferPath)
}

// Healthy 报告缓冲文件最近是否仍在增长
func (m *BufferMonitor) Healthy() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.started {
		return true // 未启动监控时不做判断
	}
	return time.Since(m.lastWrite) < m.stallAfter
}

// watchLoop 监控循环
func (m *BufferMonitor) watchLoop() {
	ticker := time.NewTicker(m.stallAfter / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			utils.Error("监控缓冲文件时出错: %v", err)
		case <-ticker.C:
			m.checkStall()
		}
	}
}

// handleEvent 处理文件事件，只关心缓冲文件的创建和写入
func (m *BufferMonitor) handleEvent(event fsnotify.Event) {
	if event.Name != m.bufferPath {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	m.mutex.Lock()
	m.lastWrite = time.Now()
	m.warned = false
	m.mutex.Unlock()
}

// checkStall 检查停滞状态，首次发现时告警
func (m *BufferMonitor) checkStall() {
	m.mutex.Lock()
	stalled := time.Since(m.lastWrite) >= m.stallAfter
	shouldWarn := stalled && !m.warned
	if shouldWarn {
		m.warned = true
	}
	m.mutex.Unlock()

	if shouldWarn {
		utils.Warn("缓冲文件 %s 超过 %.0f 秒没有增长，抓取可能已停止",
			m.bufferPath, m.stallAfter.Seconds())
	}
}
