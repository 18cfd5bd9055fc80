// Package logging 配置 slog：debug 模式使用 tint 彩色输出，release 模式输出 JSON
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup 根据运行模式和日志级别设置默认 logger
func Setup(mode, level string) {
	slog.SetDefault(New(os.Stderr, mode, level))
}

// New 创建 logger，便于测试时写入 buffer
func New(w io.Writer, mode, level string) *slog.Logger {
	lvl := ParseLevel(level)
	if mode == "release" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      lvl,
		TimeFormat: time.Kitchen,
		AddSource:  lvl == slog.LevelDebug,
		NoColor:    mode == "test",
	}))
}

// ParseLevel debug, info, warn, error，默认 info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
