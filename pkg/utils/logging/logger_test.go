package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/nhh/miniassistant/pkg/utils/logging"
)

func TestNewWithDifferentLevels(t *testing.T) {
	testCases := []struct {
		level       string
		expectDebug bool
		expectInfo  bool
		expectWarn  bool
	}{
		{"debug", true, true, true},
		{"info", false, true, true},
		{"warning", false, false, true},
		{"error", false, false, false},
		{"DEBUG", true, true, true},
		{"invalid", false, true, true},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, buf)

			logger.Debug("debug message")
			logger.Info("info message")
			logger.Warn("warn message")
			logger.Error("error message")

			output := buf.String()
			gt.Equal(t, bytes.Contains([]byte(output), []byte("debug message")), tc.expectDebug)
			gt.Equal(t, bytes.Contains([]byte(output), []byte("info message")), tc.expectInfo)
			gt.Equal(t, bytes.Contains([]byte(output), []byte("warn message")), tc.expectWarn)
			gt.S(t, output).Contains("error message")
		})
	}
}

func TestInvalidLevelWarns(t *testing.T) {
	buf := &bytes.Buffer{}
	logging.New("verbose", buf)
	gt.S(t, buf.String()).Contains("invalid log level")
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.log")

	logger, closer, err := logging.Open("info", path)
	gt.NoError(t, err)
	logger.Info("written to file")
	gt.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	gt.NoError(t, err)
	gt.S(t, string(data)).Contains("written to file")
}

func TestOpenStandardStreams(t *testing.T) {
	for _, output := range []string{"", "stderr", "stdout", "-"} {
		logger, closer, err := logging.Open("info", output)
		gt.NoError(t, err)
		gt.V(t, logger).NotNil()
		gt.NoError(t, closer.Close())
	}
}

func TestWithAndFrom(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf).With("component", "test")
	ctx := logging.With(context.Background(), logger)

	retrieved := logging.From(ctx)
	gt.Equal(t, retrieved, logger)

	retrieved.Info("context message")
	gt.S(t, buf.String()).Contains("context message")
	gt.S(t, buf.String()).Contains("component")
}

func TestFromUsesDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	customDefault := logging.New("warn", buf)
	logging.SetDefault(customDefault)

	retrieved := logging.From(context.Background())
	gt.Equal(t, retrieved, customDefault)

	retrieved.Warn("warning from default")
	gt.S(t, buf.String()).Contains("warning from default")
}
