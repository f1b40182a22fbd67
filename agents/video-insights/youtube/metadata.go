package youtube

import (
	"context"
	"log"

	"video-insights/internal/models"
)

// InfoSource is anything that can look up a single video's metadata
type InfoSource interface {
	VideoInfo(ctx context.Context, videoID string) (*models.Video, error)
}

// MetadataResolver asks each source in turn and never fails: when every source
// errors the placeholders are returned.
type MetadataResolver struct {
	sources []InfoSource
}

func NewMetadataResolver(sources ...InfoSource) *MetadataResolver {
	return &MetadataResolver{sources: sources}
}

func (m *MetadataResolver) Resolve(ctx context.Context, videoURL, videoID string) *models.Video {
	for _, src := range m.sources {
		video, err := src.VideoInfo(ctx, videoID)
		if err != nil {
			log.Printf("Warning: Failed to get video info for %s: %v", videoID, err)
			continue
		}
		if video.Title == "" {
			video.Title = models.UnknownTitle
		}
		if video.ChannelTitle == "" {
			video.ChannelTitle = models.UnknownChannel
		}
		if videoURL != "" {
			video.URL = videoURL
		}
		return video
	}

	return &models.Video{
		ID:           videoID,
		Title:        models.UnknownTitle,
		ChannelTitle: models.UnknownChannel,
		URL:          videoURL,
	}
}
