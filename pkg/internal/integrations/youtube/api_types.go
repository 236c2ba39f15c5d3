package youtube

import (
	"strconv"
	"time"
)

type thumbnail struct {
	URL string `json:"url"`
}

type thumbnails struct {
	Default thumbnail `json:"default"`
	Medium  thumbnail `json:"medium"`
	High    thumbnail `json:"high"`
}

func (t thumbnails) best() string {
	switch {
	case t.High.URL != "":
		return t.High.URL
	case t.Medium.URL != "":
		return t.Medium.URL
	default:
		return t.Default.URL
	}
}

type snippet struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	ChannelID    string     `json:"channelId"`
	ChannelTitle string     `json:"channelTitle"`
	PublishedAt  string     `json:"publishedAt"`
	CustomURL    string     `json:"customUrl"`
	Thumbnails   thumbnails `json:"thumbnails"`
}

func (s snippet) toVideo(id string) Video {
	published, _ := time.Parse(time.RFC3339, s.PublishedAt)

	thumb := s.Thumbnails.best()
	if thumb == "" && id != "" {
		thumb = ThumbnailURL(id)
	}

	return Video{
		ID:           id,
		Title:        s.Title,
		Description:  s.Description,
		ChannelID:    s.ChannelID,
		ChannelTitle: s.ChannelTitle,
		PublishedAt:  published,
		ThumbnailURL: thumb,
	}
}

type videoItem struct {
	ID             string  `json:"id"`
	Snippet        snippet `json:"snippet"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
	} `json:"statistics"`
}

func (v videoItem) toVideo() Video {
	out := v.Snippet.toVideo(v.ID)
	out.Duration = v.ContentDetails.Duration
	out.ViewCount, _ = strconv.ParseInt(v.Statistics.ViewCount, 10, 64)

	return out
}

type videoListResponse struct {
	Items []videoItem `json:"items"`
}

type searchListResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type playlistItemsResponse struct {
	Items []struct {
		Snippet        snippet `json:"snippet"`
		ContentDetails struct {
			VideoID string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

type channelItem struct {
	ID         string  `json:"id"`
	Snippet    snippet `json:"snippet"`
	Statistics struct {
		SubscriberCount string `json:"subscriberCount"`
		VideoCount      string `json:"videoCount"`
	} `json:"statistics"`
	ContentDetails struct {
		RelatedPlaylists struct {
			Uploads string `json:"uploads"`
		} `json:"relatedPlaylists"`
	} `json:"contentDetails"`
}

func (c channelItem) toChannel() Channel {
	subs, _ := strconv.ParseInt(c.Statistics.SubscriberCount, 10, 64)
	videos, _ := strconv.ParseInt(c.Statistics.VideoCount, 10, 64)

	return Channel{
		ID:              c.ID,
		Title:           c.Snippet.Title,
		Description:     c.Snippet.Description,
		CustomURL:       c.Snippet.CustomURL,
		ThumbnailURL:    c.Snippet.Thumbnails.best(),
		SubscriberCount: subs,
		VideoCount:      videos,
		UploadsPlaylist: c.ContentDetails.RelatedPlaylists.Uploads,
	}
}

type channelListResponse struct {
	Items []channelItem `json:"items"`
}
