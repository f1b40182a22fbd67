package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"video-insights/internal/models"
	"video-insights/shared/config"

	"google.golang.org/genai"
)

// InsightsHeading marks the start of the insights section in every report
const InsightsHeading = "### 🔍 Key Insights"

const systemInstruction = "You are a helpful assistant that analyzes YouTube video transcripts and extracts key insights."

// ErrAnalysisFailed is the single outcome callers see for any analysis problem.
// The underlying cause is logged.
var ErrAnalysisFailed = errors.New("analysis failed")

// generator is the slice of the Gemini API the analyzer depends on
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Analyzer struct {
	gen                generator
	maxTranscriptChars int
	now                func() time.Time
}

func NewAnalyzer(cfg *config.AIConfig) (*Analyzer, error) {
	ctx := context.Background()

	// Configure client with API key
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	temperature := float32(0.3)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	return newAnalyzer(&geminiGenerator{
		client:          client,
		model:           cfg.Model,
		temperature:     temperature,
		maxOutputTokens: cfg.MaxOutputTokens,
	}, cfg.MaxTranscriptChars), nil
}

func newAnalyzer(gen generator, maxTranscriptChars int) *Analyzer {
	return &Analyzer{
		gen:                gen,
		maxTranscriptChars: maxTranscriptChars,
		now:                time.Now,
	}
}

// Analyze sends the transcript and metadata to the model and returns the formatted report
func (a *Analyzer) Analyze(ctx context.Context, transcriptText string, video *models.Video) (*models.Report, error) {
	if video == nil {
		return nil, fmt.Errorf("%w: video cannot be nil", ErrAnalysisFailed)
	}
	if strings.TrimSpace(transcriptText) == "" {
		log.Printf("Analysis skipped for %s: transcript is empty", video.ID)
		return nil, ErrAnalysisFailed
	}

	createdAt := a.now()
	prompt := a.buildPrompt(truncateString(transcriptText, a.maxTranscriptChars), video, createdAt)

	text, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Gemini analysis failed for video %s (%s): %v", video.ID, video.Title, err)
		return nil, ErrAnalysisFailed
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Printf("Empty response from AI for video %s. This could indicate content filtering or API issues.", video.ID)
		return nil, ErrAnalysisFailed
	}

	return &models.Report{
		Video:     video,
		Body:      text,
		CreatedAt: createdAt,
	}, nil
}

func (a *Analyzer) buildPrompt(transcriptText string, video *models.Video, at time.Time) string {
	return fmt.Sprintf(`You are an AI research specialist who analyzes video transcripts. Analyze the content of this YouTube video and derive findings and insights.

**Video information:**
- Title: %[1]s
- Channel: %[2]s
- URL: %[3]s

**Transcript:**
%[4]s

**Analysis guidelines:**
Focus on finding and extracting the following from the transcript:

- Concrete numbers, statistics and percentages (with their sources)
- Research results or experimental data (including institutions and researcher names)
- New perspectives or findings that differ from common belief
- Surprising or counter-intuitive facts

**Output:**
Following the guidelines above, write the result in exactly this format, in the language of the transcript:

## YouTube Video Analysis Report

**📺 Title:** %[1]s
**🔗 URL:** %[3]s
**👤 Channel:** %[2]s
**📅 Analyzed at:** %[5]s

%[6]s

(Summarize the key insights as 10 items.
Number each item and do not use ** markup.
Each insight must include concrete numbers or sources, and must stress anything that differs from common understanding.)
`,
		video.Title,
		video.ChannelTitle,
		video.URL,
		transcriptText,
		at.Format("2006-01-02 15:04:05"),
		InsightsHeading,
	)
}

// ExtractInsights returns the text after the insights heading, or the whole
// report when the model did not keep the heading.
func ExtractInsights(report string) string {
	if _, after, ok := strings.Cut(report, InsightsHeading); ok {
		return strings.TrimSpace(after)
	}
	return report
}

type geminiGenerator struct {
	client          *genai.Client
	model           string
	temperature     float32
	maxOutputTokens int32
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := g.temperature

	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       &temperature,
		MaxOutputTokens:   g.maxOutputTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return result.Text(), nil
}

func truncateString(s string, maxLength int) string {
	if maxLength <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength]) + "..."
}
