package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"video-insights/internal/models"
)

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func testVideo() *models.Video {
	return &models.Video{
		ID:           "dQw4w9WgXcQ",
		Title:        "Sleep Science",
		ChannelTitle: "Research Channel",
		URL:          "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	gen := &fakeGenerator{response: "\n## YouTube Video Analysis Report\n" + InsightsHeading + "\n1. Adults need 7 hours\n"}
	a := newAnalyzer(gen, 0)
	fixed := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	report, err := a.Analyze(context.Background(), "line one\nline two", testVideo())
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !strings.HasPrefix(report.Body, "## YouTube Video Analysis Report") {
		t.Errorf("report body not trimmed: %q", report.Body)
	}
	if !report.CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", report.CreatedAt, fixed)
	}

	prompt := gen.prompts[0]
	for _, want := range []string{"Sleep Science", "Research Channel", "line one\nline two", "2025-03-01 10:30:00", InsightsHeading} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAnalyzeFailures(t *testing.T) {
	tests := []struct {
		name       string
		gen        *fakeGenerator
		transcript string
		wantCalls  int
	}{
		{"Empty response", &fakeGenerator{response: ""}, "text", 1},
		{"Whitespace response", &fakeGenerator{response: "  \n "}, "text", 1},
		{"API error", &fakeGenerator{err: errors.New("401 API key not valid")}, "text", 1},
		{"Quota exhausted", &fakeGenerator{err: errors.New("429 RESOURCE_EXHAUSTED")}, "text", 1},
		{"Empty transcript", &fakeGenerator{response: "unused"}, "   ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAnalyzer(tt.gen, 0)

			report, err := a.Analyze(context.Background(), tt.transcript, testVideo())
			if report != nil {
				t.Errorf("expected nil report, got %+v", report)
			}
			if !errors.Is(err, ErrAnalysisFailed) {
				t.Errorf("error = %v, want ErrAnalysisFailed", err)
			}
			if len(tt.gen.prompts) != tt.wantCalls {
				t.Errorf("generator called %d times, want %d", len(tt.gen.prompts), tt.wantCalls)
			}
		})
	}
}

func TestAnalyzeNilVideo(t *testing.T) {
	a := newAnalyzer(&fakeGenerator{response: "ok"}, 0)
	if _, err := a.Analyze(context.Background(), "text", nil); !errors.Is(err, ErrAnalysisFailed) {
		t.Errorf("error = %v, want ErrAnalysisFailed", err)
	}
}

func TestAnalyzeTruncatesTranscript(t *testing.T) {
	gen := &fakeGenerator{response: "report"}
	a := newAnalyzer(gen, 10)

	if _, err := a.Analyze(context.Background(), strings.Repeat("가", 50), testVideo()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !strings.Contains(gen.prompts[0], strings.Repeat("가", 10)+"...") {
		t.Error("transcript was not truncated to 10 runes")
	}
	if strings.Contains(gen.prompts[0], strings.Repeat("가", 11)) {
		t.Error("transcript longer than limit made it into the prompt")
	}
}

func TestExtractInsights(t *testing.T) {
	tests := []struct {
		name   string
		report string
		want   string
	}{
		{"With heading", "header\n" + InsightsHeading + "\n\n1. first\n2. second\n", "1. first\n2. second"},
		{"Without heading", "just a summary", "just a summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractInsights(tt.report); got != tt.want {
				t.Errorf("ExtractInsights() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input string
		max   int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 7, "this is..."},
		{"unlimited", 0, "unlimited"},
	}

	for _, tt := range tests {
		if got := truncateString(tt.input, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
		}
	}
}
