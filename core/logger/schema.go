package logger

import "strings"

var allowedLevels = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

var allowedStatus = map[string]struct{}{
	"ok":           {},
	"fail":         {},
	"skip":         {},
	"retry":        {},
	"rate_limited": {},
	"cancelled":    {},
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := allowedLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if _, ok := allowedStatus[status]; ok {
		return status
	}
	return status
}

// defaultKeyOrder pins the leading keys of every log line so lines from
// different components stay visually aligned and grep-friendly.
var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"verdict",
	"check",
	"action",
	"state",
	"outcome",
	"duration_ms",
	"remaining",
	"attempts",
	"ttl_s",
	"code_len",
	"backend",
	"method",
	"path",
	"http_code",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"db",
	"host",
	"port",
	"phones",
	"users",
	"verified",
	"count",
	"err",
	"err_code",
	"cause",
	"retryable",
	"backoff_ms",
}
