package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"video-insights/internal/models"
)

// OEmbedClient resolves title and channel without an API key
type OEmbedClient struct {
	endpoint string
	client   *http.Client
}

type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

func NewOEmbedClient(endpoint string) *OEmbedClient {
	return &OEmbedClient{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (o *OEmbedClient) VideoInfo(ctx context.Context, videoID string) (*models.Video, error) {
	q := url.Values{}
	q.Set("url", models.WatchURL(videoID))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create oembed request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oembed data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oembed returned status %d", resp.StatusCode)
	}

	var data oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode oembed response: %w", err)
	}

	return &models.Video{
		ID:           videoID,
		Title:        data.Title,
		ChannelTitle: data.AuthorName,
		URL:          models.WatchURL(videoID),
	}, nil
}
