package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// VideoTracker remembers which videos watch mode already turned into notes
type VideoTracker struct {
	filePath  string
	processed map[string]TrackedVideo
	maxAge    time.Duration
	now       func() time.Time
}

// TrackedVideo is one processed video and where its note lives
type TrackedVideo struct {
	VideoID     string    `json:"video_id"`
	NoteURL     string    `json:"note_url,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// NewVideoTracker loads the tracker file from dataDir and drops entries older than maxAge
func NewVideoTracker(dataDir string, maxAge time.Duration) (*VideoTracker, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	tracker := &VideoTracker{
		filePath:  filepath.Join(dataDir, "processed_videos.json"),
		processed: make(map[string]TrackedVideo),
		maxAge:    maxAge,
		now:       time.Now,
	}

	if err := tracker.load(); err != nil {
		return nil, fmt.Errorf("failed to load video tracker data: %w", err)
	}

	tracker.cleanup()

	return tracker, nil
}

func (vt *VideoTracker) IsProcessed(videoID string) bool {
	tv, ok := vt.processed[videoID]
	if !ok {
		return false
	}
	return vt.now().Sub(tv.ProcessedAt) < vt.maxAge
}

// MarkProcessed records videoID and persists the tracker
func (vt *VideoTracker) MarkProcessed(videoID, noteURL string) error {
	vt.processed[videoID] = TrackedVideo{
		VideoID:     videoID,
		NoteURL:     noteURL,
		ProcessedAt: vt.now(),
	}
	return vt.save()
}

func (vt *VideoTracker) Count() int {
	return len(vt.processed)
}

func (vt *VideoTracker) cleanup() {
	cutoff := vt.now().Add(-vt.maxAge)
	for id, tv := range vt.processed {
		if tv.ProcessedAt.Before(cutoff) {
			delete(vt.processed, id)
		}
	}
}

func (vt *VideoTracker) load() error {
	data, err := os.ReadFile(vt.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read tracker file: %w", err)
	}

	var tracked []TrackedVideo
	if err := json.Unmarshal(data, &tracked); err != nil {
		return fmt.Errorf("failed to decode tracker data: %w", err)
	}

	for _, tv := range tracked {
		vt.processed[tv.VideoID] = tv
	}
	return nil
}

func (vt *VideoTracker) save() error {
	tracked := make([]TrackedVideo, 0, len(vt.processed))
	for _, tv := range vt.processed {
		tracked = append(tracked, tv)
	}
	sort.Slice(tracked, func(i, j int) bool {
		return tracked[i].ProcessedAt.Before(tracked[j].ProcessedAt)
	})

	data, err := json.MarshalIndent(tracked, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracker data: %w", err)
	}

	// write then rename; readers never see a partial file
	tmp := vt.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write tracker file: %w", err)
	}
	return os.Rename(tmp, vt.filePath)
}
