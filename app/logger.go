package app

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zzliekkas/qiniustorage/config"
)

// 日志配置键
const (
	KeyLogLevel  = "LOG_LEVEL"
	KeyLogFormat = "LOG_FORMAT"
)

// NewLogger 根据配置创建日志记录器
func NewLogger(r config.Resolver, out io.Writer) (*logrus.Logger, error) {
	levelName, err := config.ResolveString(r, KeyLogLevel, "info")
	if err != nil {
		return nil, err
	}
	level, err := logrus.ParseLevel(strings.ToLower(levelName))
	if err != nil {
		return nil, &config.ConfigurationError{Key: KeyLogLevel, Reason: err.Error()}
	}

	format, err := config.ResolveString(r, KeyLogFormat, "text")
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	if out == nil {
		out = os.Stderr
	}
	logger.SetOutput(out)
	logger.SetLevel(level)

	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	case "text", "":
		logger.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FullTimestamp:   true,
		})
	default:
		return nil, &config.ConfigurationError{Key: KeyLogFormat, Reason: "仅支持 text 或 json"}
	}

	return logger, nil
}
