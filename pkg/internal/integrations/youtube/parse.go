// Package youtube 解析 YouTube 地址并访问 YouTube Data API v3.
package youtube

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	videoIDPattern = regexp.MustCompile(
		`(?:youtube(?:-nocookie)?\.com/(?:watch\?(?:[^#\s]*&)?v=|embed/|shorts/|v/|live/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	channelIDPattern = regexp.MustCompile(`youtube\.com/channel/([A-Za-z0-9_-]+)`)
	usernamePattern  = regexp.MustCompile(`youtube\.com/(?:user/|c/|@)([A-Za-z0-9_.-]+)`)
	durationPattern  = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.\d+)?S)?)?$`)
	bareIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ExtractVideoID 从 watch?v=、youtu.be/、/embed/ 等地址提取 11 位视频 ID，不匹配返回空串.
func ExtractVideoID(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := videoIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}

	return ""
}

// NormalizeVideoID 接受地址或裸 ID.
func NormalizeVideoID(s string) string {
	s = strings.TrimSpace(s)
	if bareIDPattern.MatchString(s) {
		return s
	}

	return ExtractVideoID(s)
}

// ExtractChannelID 从 /channel/ 地址提取频道 ID.
func ExtractChannelID(raw string) string {
	if m := channelIDPattern.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		return m[1]
	}

	return ""
}

// ExtractUsername 从 /user/、/c/、/@ 地址提取用户名.
func ExtractUsername(raw string) string {
	if m := usernamePattern.FindStringSubmatch(strings.TrimSpace(raw)); m != nil {
		return m[1]
	}

	return ""
}

// EmbedURL 返回嵌入播放地址.
func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}

// WatchURL 返回观看页地址.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ThumbnailURL 返回高清封面地址.
func ThumbnailURL(videoID string) string {
	return "https://img.youtube.com/vi/" + videoID + "/hqdefault.jpg"
}

// FormatDuration 把 ISO-8601 时长转换为 H:MM:SS 或 M:SS，无法解析返回 "0:00".
func FormatDuration(iso string) string {
	m := durationPattern.FindStringSubmatch(strings.TrimSpace(iso))
	if m == nil || (m[1] == "" && m[2] == "" && m[3] == "" && m[4] == "") {
		return "0:00"
	}

	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}

	hours := atoi(m[1])*24 + atoi(m[2])
	minutes := atoi(m[3])
	seconds := atoi(m[4])

	// 60M 之类的写法进位
	minutes += seconds / 60
	seconds %= 60
	hours += minutes / 60
	minutes %= 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// FormatViewCount 以 K/M/B 缩写播放量，保留一位小数并去掉多余的 .0.
func FormatViewCount(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return compact(float64(n)/1e9) + "B views"
	case n >= 1_000_000:
		return compact(float64(n)/1e6) + "M views"
	case n >= 1_000:
		return compact(float64(n)/1e3) + "K views"
	default:
		return strconv.FormatInt(n, 10) + " views"
	}
}

// FormatViewCountString 接受 API 返回的字符串计数.
func FormatViewCountString(s string) string {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return "0 views"
	}

	return FormatViewCount(n)
}

func compact(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}
