package youtube_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeisme/sharesmallbiz/pkg/internal/integrations/youtube"
)

func TestExtractVideoID(t *testing.T) {
	const id = "dQw4w9WgXcQ"

	cases := []string{
		"https://www.youtube.com/watch?v=" + id,
		"https://youtube.com/watch?feature=share&v=" + id + "&t=42",
		"https://youtu.be/" + id,
		"https://youtu.be/" + id + "?si=abc",
		"https://www.youtube.com/embed/" + id,
		"https://www.youtube-nocookie.com/embed/" + id + "?autoplay=1",
		"https://www.youtube.com/shorts/" + id,
	}

	for _, in := range cases {
		assert.Equal(t, id, youtube.ExtractVideoID(in), in)
	}

	for _, in := range []string{"", "https://vimeo.com/123", "https://www.youtube.com/watch?v=short", "not a url"} {
		assert.Empty(t, youtube.ExtractVideoID(in), in)
	}
}

func TestExtractChannelAndUsername(t *testing.T) {
	assert.Equal(t, "UC_x5XG1OV2P6uZZ5FSM9Ttw", youtube.ExtractChannelID("https://www.youtube.com/channel/UC_x5XG1OV2P6uZZ5FSM9Ttw"))
	assert.Equal(t, "", youtube.ExtractChannelID("https://www.youtube.com/user/GoogleDevelopers"))

	assert.Equal(t, "GoogleDevelopers", youtube.ExtractUsername("https://www.youtube.com/user/GoogleDevelopers"))
	assert.Equal(t, "golang", youtube.ExtractUsername("https://www.youtube.com/@golang"))
	assert.Equal(t, "", youtube.ExtractUsername("https://youtu.be/dQw4w9WgXcQ"))
}

func TestNormalizeVideoID(t *testing.T) {
	assert.Equal(t, "dQw4w9WgXcQ", youtube.NormalizeVideoID("dQw4w9WgXcQ"))
	assert.Equal(t, "dQw4w9WgXcQ", youtube.NormalizeVideoID("https://youtu.be/dQw4w9WgXcQ"))
	assert.Equal(t, "", youtube.NormalizeVideoID("nope"))
}

func TestFormatDuration(t *testing.T) {
	cases := map[string]string{
		"PT1H2M3S":  "1:02:03",
		"PT5M9S":    "5:09",
		"PT45S":     "0:45",
		"PT2H":      "2:00:00",
		"P1DT1M":    "24:01:00",
		"PT90M":     "1:30:00",
		"PT":        "0:00",
		"":          "0:00",
		"garbage":   "0:00",
		"1:02:03":   "0:00",
		"PT1H2M3.5S": "1:02:03",
	}

	for in, want := range cases {
		assert.Equal(t, want, youtube.FormatDuration(in), in)
	}
}

func TestFormatViewCount(t *testing.T) {
	cases := map[int64]string{
		0:             "0 views",
		999:           "999 views",
		1000:          "1K views",
		1500:          "1.5K views",
		1500000:       "1.5M views",
		2_000_000_000: "2B views",
		12_345_678:    "12.3M views",
	}

	for in, want := range cases {
		assert.Equal(t, want, youtube.FormatViewCount(in), in)
	}

	assert.Equal(t, "1K views", youtube.FormatViewCountString("1000"))
	assert.Equal(t, "0 views", youtube.FormatViewCountString("n/a"))
}

func TestURLs(t *testing.T) {
	assert.Equal(t, "https://www.youtube.com/embed/abc", youtube.EmbedURL("abc"))
	assert.Equal(t, "https://www.youtube.com/watch?v=abc", youtube.WatchURL("abc"))
	assert.Equal(t, "https://img.youtube.com/vi/abc/hqdefault.jpg", youtube.ThumbnailURL("abc"))
}
