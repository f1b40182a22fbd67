package videoinsights

import (
	"context"
	"errors"
	"fmt"
	"log"

	"video-insights/agents/video-insights/transcript"
	"video-insights/agents/video-insights/youtube"
	"video-insights/internal/models"
	"video-insights/shared/storage"

	"github.com/google/uuid"
)

var (
	ErrInvalidURL   = errors.New("invalid video url")
	ErrNoTranscript = errors.New("no transcript available")
)

type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string, candidates []transcript.Candidate) transcript.Result
}

type MetadataResolver interface {
	Resolve(ctx context.Context, videoURL, videoID string) *models.Video
}

type Analyzer interface {
	Analyze(ctx context.Context, transcriptText string, video *models.Video) (*models.Report, error)
}

type Persister interface {
	Save(ctx context.Context, report *models.Report) (*models.NoteRecord, error)
}

// Stages holds the pipeline collaborators. Analyzer and Persister may be left
// nil to disable those stages.
type Stages struct {
	Transcripts TranscriptFetcher
	Metadata    MetadataResolver
	Analyzer    Analyzer
	Persister   Persister
}

// Pipeline turns one video URL into a transcript file, a report and a note
type Pipeline struct {
	stages     Stages
	candidates []transcript.Candidate
	outputDir  string
}

func NewPipeline(stages Stages, candidates []transcript.Candidate, outputDir string) *Pipeline {
	return &Pipeline{
		stages:     stages,
		candidates: candidates,
		outputDir:  outputDir,
	}
}

// Result collects what one request produced. Stage failures after the
// transcript step are recorded here instead of aborting the request.
type Result struct {
	RequestID      string
	Video          *models.Video
	Transcript     *models.Transcript
	TranscriptPath string
	Report         *models.Report
	ReportPath     string
	Note           *models.NoteRecord

	AnalysisErr error
	PersistErr  error
	Warnings    []string
}

func (r *Result) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.Warnings = append(r.Warnings, msg)
	log.Printf("[%s] Warning: %s", r.RequestID, msg)
}

// Process runs metadata, transcript, analysis and persistence for videoURL in
// order. An error is returned only for an invalid URL or a missing transcript,
// together with whatever partial Result was built so far.
func (p *Pipeline) Process(ctx context.Context, videoURL string) (*Result, error) {
	res := &Result{RequestID: uuid.NewString()[:8]}

	videoID, err := youtube.ExtractVideoID(videoURL)
	if err != nil {
		return res, fmt.Errorf("%w: %q", ErrInvalidURL, videoURL)
	}
	if videoURL == videoID {
		videoURL = models.WatchURL(videoID)
	}

	log.Printf("[%s] Processing video %s", res.RequestID, videoID)

	res.Video = p.stages.Metadata.Resolve(ctx, videoURL, videoID)
	if res.Video.Title == models.UnknownTitle {
		res.warn("metadata unavailable for %s, using placeholders", videoID)
	}

	fetched := p.stages.Transcripts.Fetch(ctx, videoID, p.candidates)
	switch fetched.Status {
	case transcript.StatusFound:
		res.Transcript = fetched.Transcript
	case transcript.StatusTransportError:
		return res, fmt.Errorf("%w (%w): %v", ErrNoTranscript, transcript.ErrTransport, fetched.Err)
	default:
		if fetched.Err != nil {
			return res, fmt.Errorf("%w: %w", ErrNoTranscript, fetched.Err)
		}
		return res, ErrNoTranscript
	}

	log.Printf("[%s] Transcript: %s (%s), %d segments",
		res.RequestID, res.Transcript.Language, res.Transcript.Tier, len(res.Transcript.Segments))

	text := res.Transcript.Text()
	if path, err := storage.SaveTranscript(p.outputDir, res.Video, text); err != nil {
		res.warn("failed to save transcript: %v", err)
	} else {
		res.TranscriptPath = path
		log.Printf("[%s] Transcript saved to %s", res.RequestID, path)
	}

	if p.stages.Analyzer == nil {
		return res, nil
	}

	report, err := p.stages.Analyzer.Analyze(ctx, text, res.Video)
	if err != nil {
		res.AnalysisErr = err
		log.Printf("[%s] Warning: analysis failed: %v", res.RequestID, err)
		return res, nil
	}
	res.Report = report

	if path, err := storage.SaveReport(p.outputDir, report); err != nil {
		res.warn("failed to save report: %v", err)
	} else {
		res.ReportPath = path
		log.Printf("[%s] Report saved to %s", res.RequestID, path)
	}

	if p.stages.Persister == nil {
		return res, nil
	}

	note, err := p.stages.Persister.Save(ctx, report)
	if err != nil {
		res.PersistErr = err
		log.Printf("[%s] Warning: note creation failed: %v", res.RequestID, err)
		return res, nil
	}
	res.Note = note
	log.Printf("[%s] Note created: %s", res.RequestID, note.URL)

	return res, nil
}
