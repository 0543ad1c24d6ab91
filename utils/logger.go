package utils

import (
	"log"
	"os"
	"time"
)

var (
	// InfoLogger は情報レベルのログを出力します
	InfoLogger *log.Logger
	// WarnLogger は警告レベルのログを出力します
	WarnLogger *log.Logger
	// ErrorLogger はエラーレベルのログを出力します
	ErrorLogger *log.Logger
	// DebugLogger はデバッグレベルのログを出力します（GITLAB_MIGRATE_DEBUG設定時のみ）
	DebugLogger *log.Logger

	debugEnabled bool
)

// init関数はパッケージがインポートされたときに自動的に実行されます
func init() {
	InfoLogger = newLogger(os.Stdout, "INFO: ")
	WarnLogger = newLogger(os.Stdout, "WARN: ")
	ErrorLogger = newLogger(os.Stderr, "ERROR: ")
	DebugLogger = newLogger(os.Stdout, "DEBUG: ")
	debugEnabled = os.Getenv("GITLAB_MIGRATE_DEBUG") != ""
}

func newLogger(out *os.File, prefix string) *log.Logger {
	return log.New(out, prefix, log.Ldate|log.Ltime)
}

// LogInfo は情報レベルのメッセージをログに記録します
func LogInfo(format string, v ...interface{}) {
	InfoLogger.Printf(format, v...)
}

// LogWarn は警告レベルのメッセージをログに記録します
func LogWarn(format string, v ...interface{}) {
	WarnLogger.Printf(format, v...)
}

// LogError はエラーレベルのメッセージをログに記録します
func LogError(format string, v ...interface{}) {
	ErrorLogger.Printf(format, v...)
}

// LogDebug はデバッグレベルのメッセージをログに記録します
func LogDebug(format string, v ...interface{}) {
	if !debugEnabled {
		return
	}
	DebugLogger.Printf(format, v...)
}

// TrackTime は処理の経過時間を計測して出力するユーティリティです
func TrackTime(start time.Time, name string) {
	elapsed := time.Since(start)
	LogInfo("%s 完了時間: %s", name, elapsed)
}
