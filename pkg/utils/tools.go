package utils

import (
	"os"
	"os/exec"
)

// CheckFFmpeg 检查ffmpeg是否可用
func CheckFFmpeg() bool {
	cmd := exec.Command("ffmpeg", "-version")
	err := cmd.Run()
	return err == nil
}

// CheckExecutable 检查给定路径是否是可执行文件
func CheckExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return info.Mode()&0111 != 0
}

// LookupTool 在PATH中查找外部工具
func LookupTool(name string) (string, bool) {
	path, err := exec.LookPath(name)
	if err != nil {
		return "", false
	}
	return path, true
}
