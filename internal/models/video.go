package models

import (
	"fmt"
	"time"
)

const (
	UnknownTitle   = "Unknown_Title"
	UnknownChannel = "Unknown_Channel"
)

// Video holds the metadata of a single YouTube video
type Video struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channel_title"`
	URL          string `json:"url"`
}

// WatchURL builds the canonical watch page URL for a video ID
func WatchURL(videoID string) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", videoID)
}

// SearchResult is one item returned by the video search API
type SearchResult struct {
	VideoID   string `json:"video_id"`
	Title     string `json:"title"`
	Channel   string `json:"channel"`
	Thumbnail string `json:"thumbnail"`
	URL       string `json:"url"`
}

// Report is the formatted analysis produced once per video
type Report struct {
	Video     *Video    `json:"video"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteRecord describes a page created in the notes database
type NoteRecord struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Video     *Video    `json:"video"`
	CreatedAt time.Time `json:"created_at"`
}

// DigestReport summarizes one scheduled watch run for email delivery
type DigestReport struct {
	Date    time.Time     `json:"date"`
	Queries []string      `json:"queries"`
	Notes   []*NoteRecord `json:"notes"`
	Found   int           `json:"found"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
}
