package transcript

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"video-insights/internal/models"
)

var (
	// ErrVideoUnavailable means the platform refused to serve the video (private, removed, age-gated)
	ErrVideoUnavailable = errors.New("video unavailable")
	// ErrCaptionsDisabled means the video exposes no caption tracks at all
	ErrCaptionsDisabled = errors.New("captions disabled")
	// ErrTransport wraps network failures and unexpected HTTP statuses
	ErrTransport = errors.New("transport error")
)

// Track is one caption track advertised for a video
type Track struct {
	Language string
	Name     string
	Tier     models.Tier
	URL      string
}

// TrackSource lists and downloads caption tracks
type TrackSource interface {
	ListTracks(ctx context.Context, videoID string) ([]Track, error)
	FetchTrack(ctx context.Context, track Track) ([]models.Segment, error)
}

// Candidate is one (language, tier) pair to try, in priority order
type Candidate struct {
	Language string
	Tier     models.Tier
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s/%s", c.Language, c.Tier)
}

// DefaultCandidates orders attempts as primary manual, primary auto, fallback manual, fallback auto.
// A fallback equal to the primary adds no attempts.
func DefaultCandidates(primary, fallback string) []Candidate {
	if strings.EqualFold(primary, fallback) {
		fallback = ""
	}

	var candidates []Candidate
	for _, lang := range []string{primary, fallback} {
		if lang == "" {
			continue
		}
		candidates = append(candidates,
			Candidate{Language: lang, Tier: models.TierManual},
			Candidate{Language: lang, Tier: models.TierAuto},
		)
	}
	return candidates
}

// Status is the outcome tag of a fetch
type Status int

const (
	StatusFound Status = iota
	StatusNotFound
	StatusTransportError
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not found"
	case StatusTransportError:
		return "transport error"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of Fetch. Transcript is set only when Status is StatusFound.
type Result struct {
	Status     Status
	Transcript *models.Transcript
	Candidate  Candidate
	Available  []Track
	Err        error
}

func (r Result) Found() bool {
	return r.Status == StatusFound
}

// Fetcher walks a candidate list and returns the first non-empty transcript
type Fetcher struct {
	source TrackSource
}

func NewFetcher(source TrackSource) *Fetcher {
	return &Fetcher{source: source}
}

// Fetch tries each candidate in order. Per-candidate failures only move on to the
// next candidate; a failed listing call ends the fetch before any language is tried.
func (f *Fetcher) Fetch(ctx context.Context, videoID string, candidates []Candidate) Result {
	tracks, err := f.source.ListTracks(ctx, videoID)
	if err != nil {
		if errors.Is(err, ErrTransport) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			log.Printf("Warning: Caption listing failed for %s: %v", videoID, err)
			return Result{Status: StatusTransportError, Err: err}
		}
		log.Printf("No captions listed for %s: %v", videoID, err)
		return Result{Status: StatusNotFound, Err: err}
	}

	for _, t := range tracks {
		log.Printf("Available captions for %s: %s (%s, %s)", videoID, t.Name, t.Language, t.Tier)
	}

	for _, candidate := range candidates {
		track, ok := selectTrack(tracks, candidate)
		if !ok {
			continue
		}

		segments, err := f.source.FetchTrack(ctx, track)
		if err != nil {
			log.Printf("Warning: Failed to fetch %s captions for %s: %v", candidate, videoID, err)
			continue
		}
		if isEmpty(segments) {
			log.Printf("Warning: %s captions for %s are empty", candidate, videoID)
			continue
		}

		log.Printf("Fetched %s captions for %s (%d segments)", candidate, videoID, len(segments))
		return Result{
			Status: StatusFound,
			Transcript: &models.Transcript{
				VideoID:  videoID,
				Language: candidate.Language,
				Tier:     candidate.Tier,
				Segments: segments,
			},
			Candidate: candidate,
			Available: tracks,
		}
	}

	return Result{
		Status:    StatusNotFound,
		Available: tracks,
		Err:       fmt.Errorf("no captions in %s for video %s", describe(candidates), videoID),
	}
}

// selectTrack prefers an exact language code match and falls back to a base
// subtag match, so "en" also accepts "en-US".
func selectTrack(tracks []Track, c Candidate) (Track, bool) {
	for _, t := range tracks {
		if t.Tier == c.Tier && strings.EqualFold(t.Language, c.Language) {
			return t, true
		}
	}
	for _, t := range tracks {
		if t.Tier == c.Tier && strings.EqualFold(baseLanguage(t.Language), baseLanguage(c.Language)) {
			return t, true
		}
	}
	return Track{}, false
}

func baseLanguage(code string) string {
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return code[:i]
	}
	return code
}

func isEmpty(segments []models.Segment) bool {
	for _, s := range segments {
		if strings.TrimSpace(s.Text) != "" {
			return false
		}
	}
	return true
}

func describe(candidates []Candidate) string {
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, c.String())
	}
	return "[" + strings.Join(names, ", ") + "]"
}
