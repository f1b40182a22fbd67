package videoinsights

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"video-insights/agents/video-insights/transcript"
	"video-insights/internal/models"
)

type Searcher interface {
	Search(ctx context.Context, query string, maxResults, offset int) []models.SearchResult
}

const helpText = `Commands:
  <youtube url>     fetch transcript, analyze and save a note
  search <query>    search videos
  more              show the next page of results
  <number>          process a listed result
  help              show this help
  quit | exit       leave`

// Console is the interactive front end. Search state lives on the struct and
// is only touched by Run.
type Console struct {
	pipeline *Pipeline
	searcher Searcher
	pageSize int
	out      io.Writer

	query   string
	offset  int
	results []models.SearchResult
}

// NewConsole creates a console. searcher may be nil when no YouTube API key is configured.
func NewConsole(pipeline *Pipeline, searcher Searcher, pageSize int, out io.Writer) *Console {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Console{
		pipeline: pipeline,
		searcher: searcher,
		pageSize: pageSize,
		out:      out,
	}
}

// Run reads commands from in until EOF, quit or context cancellation
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprint(c.out, "Enter YouTube URL (or 'help'): ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			if quit := c.handle(ctx, line); quit {
				return nil
			}
		}
		fmt.Fprint(c.out, "> ")
	}
	fmt.Fprintln(c.out)

	return scanner.Err()
}

func (c *Console) handle(ctx context.Context, line string) bool {
	command, arg, _ := strings.Cut(line, " ")
	switch strings.ToLower(command) {
	case "quit", "exit":
		fmt.Fprintln(c.out, "Bye.")
		return true
	case "help":
		fmt.Fprintln(c.out, helpText)
	case "search":
		c.search(ctx, strings.TrimSpace(arg))
	case "more":
		c.more(ctx)
	default:
		if n, err := strconv.Atoi(line); err == nil {
			c.selectResult(ctx, n)
			return false
		}
		c.Process(ctx, line)
	}
	return false
}

func (c *Console) search(ctx context.Context, query string) {
	if c.searcher == nil {
		fmt.Fprintln(c.out, "Search is disabled: set YOUTUBE_API_KEY to enable it.")
		return
	}
	if query == "" {
		fmt.Fprintln(c.out, "Usage: search <query>")
		return
	}

	c.query = query
	c.offset = 0
	c.showPage(ctx)
}

func (c *Console) more(ctx context.Context) {
	if c.searcher == nil || c.query == "" {
		fmt.Fprintln(c.out, "Nothing to continue: run 'search <query>' first.")
		return
	}

	c.offset += c.pageSize
	c.showPage(ctx)
}

func (c *Console) showPage(ctx context.Context) {
	c.results = c.searcher.Search(ctx, c.query, c.pageSize, c.offset)
	if len(c.results) == 0 {
		fmt.Fprintf(c.out, "No results for %q.\n", c.query)
		return
	}

	fmt.Fprintf(c.out, "Results for %q (from %d):\n", c.query, c.offset+1)
	for i, r := range c.results {
		fmt.Fprintf(c.out, "%3d. %s\n     %s | %s\n", i+1, r.Title, r.Channel, r.URL)
	}
	fmt.Fprintln(c.out, "Enter a number to process a video, or 'more' for the next page.")
}

func (c *Console) selectResult(ctx context.Context, n int) {
	if n < 1 || n > len(c.results) {
		fmt.Fprintf(c.out, "No listed result %d.\n", n)
		return
	}
	c.Process(ctx, c.results[n-1].URL)
}

// Process runs the pipeline on one URL and prints the outcome of every stage
func (c *Console) Process(ctx context.Context, videoURL string) {
	res, err := c.pipeline.Process(ctx, videoURL)
	if res != nil && res.Video != nil {
		fmt.Fprintf(c.out, "Video: %s (%s)\n", res.Video.Title, res.Video.ChannelTitle)
	}

	switch {
	case errors.Is(err, ErrInvalidURL):
		fmt.Fprintf(c.out, "Not a YouTube URL: %s (type 'help' for commands)\n", videoURL)
		return
	case errors.Is(err, transcript.ErrTransport):
		fmt.Fprintf(c.out, "No transcript: the caption service could not be reached (%v)\n", err)
		return
	case errors.Is(err, ErrNoTranscript):
		fmt.Fprintln(c.out, "No transcript available for this video.")
		return
	case err != nil:
		fmt.Fprintf(c.out, "Error: %v\n", err)
		return
	}

	fmt.Fprintf(c.out, "Transcript: %s (%s), %d segments\n",
		res.Transcript.Language, res.Transcript.Tier, len(res.Transcript.Segments))
	if res.TranscriptPath != "" {
		fmt.Fprintf(c.out, "Transcript saved: %s\n", res.TranscriptPath)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(c.out, "Warning: %s\n", w)
	}

	switch {
	case res.AnalysisErr != nil:
		fmt.Fprintln(c.out, "Analysis failed. Check the logs for details.")
		return
	case res.Report == nil:
		fmt.Fprintln(c.out, "Analysis skipped: set GEMINI_API_KEY to enable it.")
		return
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, res.Report.Body)
	fmt.Fprintln(c.out)
	if res.ReportPath != "" {
		fmt.Fprintf(c.out, "Report saved: %s\n", res.ReportPath)
	}

	switch {
	case res.PersistErr != nil:
		fmt.Fprintf(c.out, "Failed to save to Notion: %v\n", res.PersistErr)
	case res.Note != nil:
		fmt.Fprintf(c.out, "Saved to Notion: %s\n", res.Note.URL)
	default:
		fmt.Fprintln(c.out, "Notion disabled: set NOTION_API_KEY and NOTION_DATABASE_ID to save notes.")
	}
}
