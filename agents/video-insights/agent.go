package videoinsights

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"video-insights/agents/video-insights/transcript"
	"video-insights/internal/models"
	"video-insights/shared/config"
	"video-insights/shared/scheduler"
	"video-insights/shared/storage"
)

// WatchMetrics represents what one scheduled watch run did
type WatchMetrics struct {
	Queries      int `json:"queries"`
	VideosFound  int `json:"videos_found"`
	Skipped      int `json:"skipped"`
	Processed    int `json:"processed"`
	NoTranscript int `json:"no_transcript"`
	Failed       int `json:"failed"`
	NotesCreated int `json:"notes_created"`
}

// GetSummary implements the scheduler.Metrics interface
func (m WatchMetrics) GetSummary() string {
	return fmt.Sprintf("searched %d queries, found %d videos, processed %d, created %d notes",
		m.Queries, m.VideosFound, m.Processed, m.NotesCreated)
}

type DigestSender interface {
	SendDigest(report *models.DigestReport) error
}

type processedTracker interface {
	IsProcessed(videoID string) bool
	MarkProcessed(videoID, noteURL string) error
	Count() int
}

// WatchAgent implements the scheduler.Agent interface. Each run searches the
// configured queries and feeds unseen videos through the pipeline one by one.
type WatchAgent struct {
	config   *config.Config
	pipeline *Pipeline
	searcher Searcher
	digest   DigestSender
	tracker  processedTracker
}

// NewWatchAgent creates the agent. digest may be nil to skip the email digest.
func NewWatchAgent(cfg *config.Config, pipeline *Pipeline, searcher Searcher, digest DigestSender) *WatchAgent {
	return &WatchAgent{
		config:   cfg,
		pipeline: pipeline,
		searcher: searcher,
		digest:   digest,
	}
}

func (w *WatchAgent) Name() string {
	return "Video Insights Watcher"
}

func (w *WatchAgent) Initialize() error {
	log.Printf("Initializing %s...", w.Name())

	if err := w.config.ValidateWatch(); err != nil {
		return err
	}
	if w.pipeline == nil || w.searcher == nil {
		return fmt.Errorf("pipeline and search client are required")
	}

	if w.tracker == nil {
		retention := time.Duration(w.config.Watch.RetentionDays) * 24 * time.Hour
		tracker, err := storage.NewVideoTracker(w.config.Output.DataDir, retention)
		if err != nil {
			return fmt.Errorf("failed to create video tracker: %w", err)
		}
		w.tracker = tracker
		log.Printf("Video tracker initialized (%d videos tracked)", tracker.Count())
	}

	if w.digest == nil {
		log.Println("Email digest disabled")
	}

	log.Printf("Watching %d queries: %v", len(w.config.Watch.Queries), w.config.Watch.Queries)
	return nil
}

func (w *WatchAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := WatchMetrics{Queries: len(w.config.Watch.Queries)}

	var videos []models.SearchResult
	seen := make(map[string]bool)
	for _, query := range w.config.Watch.Queries {
		log.Printf("Searching YouTube for %q...", query)
		results := w.searcher.Search(ctx, query, w.config.Watch.MaxResults, 0)
		for _, r := range results {
			if seen[r.VideoID] {
				continue
			}
			seen[r.VideoID] = true
			metrics.VideosFound++

			if w.tracker.IsProcessed(r.VideoID) {
				metrics.Skipped++
				continue
			}
			videos = append(videos, r)
		}
	}

	log.Printf("Found %d videos (%d new, %d already processed)", metrics.VideosFound, len(videos), metrics.Skipped)

	var notes []*models.NoteRecord
	for i, video := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}

		log.Printf("Processing video %d/%d: %s", i+1, len(videos), video.Title)
		res, err := w.pipeline.Process(ctx, video.URL)
		switch {
		case errors.Is(err, transcript.ErrTransport):
			// not marked, so the next run retries it
			log.Printf("Warning: Caption service unreachable for %s: %v", video.VideoID, err)
			metrics.Failed++
			continue
		case errors.Is(err, ErrNoTranscript):
			log.Printf("No transcript for %s, skipping", video.VideoID)
			metrics.NoTranscript++
			w.markProcessed(video.VideoID, "")
			continue
		case err != nil:
			log.Printf("Warning: Failed to process %s: %v", video.VideoID, err)
			metrics.Failed++
			continue
		case res.AnalysisErr != nil || res.PersistErr != nil:
			metrics.Failed++
			continue
		}

		metrics.Processed++
		noteURL := ""
		if res.Note != nil {
			notes = append(notes, res.Note)
			noteURL = res.Note.URL
		}
		w.markProcessed(video.VideoID, noteURL)
	}
	metrics.NotesCreated = len(notes)

	if attempted := len(videos); attempted > 0 && metrics.Failed > attempted/2 {
		return fmt.Errorf("too many failures (%d/%d), stopping", metrics.Failed, attempted)
	}
	if metrics.Failed > 0 && events != nil && events.OnPartialFailure != nil {
		events.OnPartialFailure(fmt.Errorf("%d of %d videos failed", metrics.Failed, len(videos)), time.Since(startTime))
	}

	if w.digest != nil && len(notes) > 0 {
		report := &models.DigestReport{
			Date:    time.Now(),
			Queries: w.config.Watch.Queries,
			Notes:   notes,
			Found:   metrics.VideosFound,
			Skipped: metrics.Skipped,
			Failed:  metrics.Failed,
		}

		log.Printf("Sending email digest with %d notes", len(notes))
		if err := w.digest.SendDigest(report); err != nil {
			if events != nil && events.OnPartialFailure != nil {
				events.OnPartialFailure(fmt.Errorf("failed to send email digest: %w", err), time.Since(startTime))
			}
			log.Printf("Warning: Failed to send email digest: %v", err)
		}
	}

	duration := time.Since(startTime)
	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(metrics, duration)
	}

	log.Printf("Watch run complete: %d found, %d skipped, %d processed, %d without transcript, %d failed",
		metrics.VideosFound, metrics.Skipped, metrics.Processed, metrics.NoTranscript, metrics.Failed)

	return nil
}

func (w *WatchAgent) markProcessed(videoID, noteURL string) {
	if err := w.tracker.MarkProcessed(videoID, noteURL); err != nil {
		log.Printf("Warning: Failed to mark %s as processed: %v", videoID, err)
	}
}
