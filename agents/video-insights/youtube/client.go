package youtube

import (
	"context"
	"fmt"
	"log"

	"video-insights/internal/models"
	"video-insights/shared/config"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// Client talks to the YouTube Data API with a developer key
type Client struct {
	service *youtube.Service
	config  *config.YouTubeConfig
}

// NewClient creates a Data API client. Extra options are appended after the key,
// which lets tests point the service at a local endpoint.
func NewClient(ctx context.Context, cfg *config.YouTubeConfig, opts ...option.ClientOption) (*Client, error) {
	clientOpts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.ServiceURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.ServiceURL))
	}
	clientOpts = append(clientOpts, opts...)

	service, err := youtube.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service: service,
		config:  cfg,
	}, nil
}

// Search returns up to maxResults videos for query, starting offset results in.
// Whole pages of maxResults are skipped until the offset falls inside a page.
// API failures are logged and produce an empty list.
func (c *Client) Search(ctx context.Context, query string, maxResults, offset int) []models.SearchResult {
	if maxResults <= 0 {
		return []models.SearchResult{}
	}
	if offset < 0 {
		offset = 0
	}

	videos := []models.SearchResult{}
	toSkip := offset
	pageToken := ""

	for {
		call := c.service.Search.List([]string{"snippet"}).
			Q(query).
			Type("video").
			MaxResults(int64(maxResults)).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			log.Printf("Warning: YouTube search for %q failed: %v", query, err)
			return []models.SearchResult{}
		}

		if toSkip < maxResults {
			items := resp.Items
			if toSkip < len(items) {
				items = items[toSkip:]
			} else {
				items = nil
			}
			for _, item := range items {
				if result, ok := toSearchResult(item); ok {
					videos = append(videos, result)
				}
			}
			break
		}

		toSkip -= maxResults
		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if len(videos) > maxResults {
		videos = videos[:maxResults]
	}
	return videos
}

func toSearchResult(item *youtube.SearchResult) (models.SearchResult, bool) {
	if item == nil || item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
		return models.SearchResult{}, false
	}

	result := models.SearchResult{
		VideoID: item.Id.VideoId,
		Title:   item.Snippet.Title,
		Channel: item.Snippet.ChannelTitle,
		URL:     models.WatchURL(item.Id.VideoId),
	}
	if t := item.Snippet.Thumbnails; t != nil && t.High != nil {
		result.Thumbnail = t.High.Url
	}
	return result, true
}

// VideoInfo looks up title and channel for a single video
func (c *Client) VideoInfo(ctx context.Context, videoID string) (*models.Video, error) {
	resp, err := c.service.Videos.List([]string{"snippet"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get video details for %s: %w", videoID, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, fmt.Errorf("video %s not found", videoID)
	}

	item := resp.Items[0]
	return &models.Video{
		ID:           item.Id,
		Title:        item.Snippet.Title,
		ChannelTitle: item.Snippet.ChannelTitle,
		URL:          models.WatchURL(item.Id),
	}, nil
}
