package stage

import (
	"fmt"
	"strings"
	"time"
)

// FormatTimestamp renders t in the archive filename layout
// YYYYMMDD_HHMMSS_microseconds, e.g. 20240101_120000_000000
func FormatTimestamp(t time.Time) string {
	return fmt.Sprintf("%s_%06d", t.Format("20060102_150405"), t.Nanosecond()/1000)
}

// FrameKey builds the destination key for a sampled frame:
// {prefix}{identifier}/{timestamp}.{extension}
func FrameKey(prefix, identifier string, ts time.Time, extension string) string {
	return fmt.Sprintf("%s%s/%s.%s", prefix, identifier, FormatTimestamp(ts), extension)
}

// FileKey builds the destination key for a watched file:
// {prefix}{subpath}/{timestamp}_{original-filename}
func FileKey(prefix, subpath string, ts time.Time, filename string) string {
	return fmt.Sprintf("%s%s/%s_%s", prefix, subpath, FormatTimestamp(ts), filename)
}

// ContentType maps an image format or file extension to its MIME type.
// Accepts a bare format ("jpg") or a dotted extension (".jpg").
func ContentType(format string) string {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
