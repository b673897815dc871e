package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	if err := Init(Config{Level: "debug", OutputFile: path, NoConsole: true}); err != nil {
		t.Fatalf("初始化日志失败: %v", err)
	}
	defer logrus.SetOutput(os.Stderr)

	Infof("hello %s", "file")
	logrus.WithField("module", "test").Warn("from module")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取日志文件失败: %v", err)
	}
	out := string(b)
	if !strings.Contains(out, "hello file") {
		t.Errorf("日志文件应该包含 hello file，实际为 %s", out)
	}
	if !strings.Contains(out, "module=test") {
		t.Errorf("日志文件应该包含 module=test，实际为 %s", out)
	}
	if got := GetCurrentLogFile(); got != path {
		t.Errorf("当前日志文件应该为 %s，实际为 %s", path, got)
	}
	if lvl := Logger.GetLevel(); lvl != logrus.DebugLevel {
		t.Errorf("日志级别应该为 debug，实际为 %s", lvl)
	}
}

func TestInitBadLevelFallsBackToInfo(t *testing.T) {
	if err := Init(Config{Level: "loud", NoConsole: true}); err != nil {
		t.Fatalf("初始化日志失败: %v", err)
	}
	defer logrus.SetOutput(os.Stderr)
	if lvl := Logger.GetLevel(); lvl != logrus.InfoLevel {
		t.Errorf("无法识别的级别应该回退为 info，实际为 %s", lvl)
	}
}
