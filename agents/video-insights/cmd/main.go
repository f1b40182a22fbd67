package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	videoinsights "video-insights/agents/video-insights"
	"video-insights/agents/video-insights/transcript"
	"video-insights/agents/video-insights/youtube"
	"video-insights/shared/ai"
	"video-insights/shared/config"
	"video-insights/shared/email"
	"video-insights/shared/notion"
	"video-insights/shared/scheduler"
)

const usage = `Usage:
  video-insights                   interactive console
  video-insights <url> [<url>...]  process the given videos and exit
  video-insights --once            run one watch cycle and exit
  video-insights --watch           run watch mode on the configured schedule
  video-insights --help            show this help`

const (
	modeConsole = "console"
	modeURLs    = "urls"
	modeOnce    = "once"
	modeWatch   = "watch"
	modeHelp    = "help"
)

var errUnknownFlag = errors.New("unknown flag")

// parseArgs picks the run mode from the command line arguments (without the program name)
func parseArgs(args []string) (string, []string, error) {
	if len(args) == 0 {
		return modeConsole, nil, nil
	}

	switch args[0] {
	case "-h", "--help", "help":
		return modeHelp, nil, nil
	case "--once":
		return modeOnce, nil, nil
	case "--watch":
		return modeWatch, nil, nil
	}

	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			return "", nil, fmt.Errorf("%w: %s", errUnknownFlag, arg)
		}
	}
	return modeURLs, args, nil
}

func main() {
	mode, urls, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n\n%s\n", err, usage)
		os.Exit(2)
	}
	if mode == modeHelp {
		fmt.Println(usage)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pipeline, searcher, err := buildPipeline(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	switch mode {
	case modeOnce, modeWatch:
		runWatch(ctx, cfg, pipeline, searcher, mode == modeOnce)
	case modeConsole:
		console := videoinsights.NewConsole(pipeline, searcher, cfg.YouTube.PageSize, os.Stdout)
		if err := console.Run(ctx, os.Stdin); err != nil && ctx.Err() == nil {
			log.Fatalf("Console failed: %v", err)
		}
	case modeURLs:
		console := videoinsights.NewConsole(pipeline, searcher, cfg.YouTube.PageSize, os.Stdout)
		for _, u := range urls {
			console.Process(ctx, u)
		}
	}
}

func buildPipeline(ctx context.Context, cfg *config.Config) (*videoinsights.Pipeline, videoinsights.Searcher, error) {
	stages := videoinsights.Stages{
		Transcripts: transcript.NewFetcher(transcript.NewYouTubeSource(cfg.YouTube.WatchURL, cfg.TranscriptTimeout())),
	}

	var searcher videoinsights.Searcher
	var infoSources []youtube.InfoSource
	if cfg.SearchEnabled() {
		client, err := youtube.NewClient(ctx, &cfg.YouTube)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create YouTube client: %w", err)
		}
		searcher = client
		infoSources = append(infoSources, client)
	} else {
		log.Println("Warning: YOUTUBE_API_KEY not set, search disabled and metadata comes from oEmbed")
	}
	infoSources = append(infoSources, youtube.NewOEmbedClient(cfg.YouTube.OEmbedURL))
	stages.Metadata = youtube.NewMetadataResolver(infoSources...)

	if cfg.AnalysisEnabled() {
		analyzer, err := ai.NewAnalyzer(&cfg.AI)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create AI analyzer: %w", err)
		}
		stages.Analyzer = analyzer
	} else {
		log.Println("Warning: GEMINI_API_KEY not set, analysis disabled (transcripts are still saved)")
	}

	if cfg.NotionEnabled() {
		persister, err := notion.NewPersister(&cfg.Notion)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Notion persister: %w", err)
		}
		stages.Persister = persister
	} else {
		log.Println("Warning: NOTION_API_KEY or NOTION_DATABASE_ID not set, notes will not be saved to Notion")
	}

	candidates := transcript.DefaultCandidates(cfg.Transcript.PrimaryLanguage, cfg.Transcript.FallbackLanguage)
	return videoinsights.NewPipeline(stages, candidates, cfg.Output.Dir), searcher, nil
}

func runWatch(ctx context.Context, cfg *config.Config, pipeline *videoinsights.Pipeline, searcher videoinsights.Searcher, once bool) {
	var digest videoinsights.DigestSender
	if cfg.EmailEnabled() {
		digest = email.NewSender(&cfg.Email)
	}

	agent := videoinsights.NewWatchAgent(cfg, pipeline, searcher, digest)
	s := scheduler.New(cfg, agent)

	if once {
		fmt.Println("Running once...")
		if err := agent.Initialize(); err != nil {
			log.Fatalf("Failed to initialize agent: %v", err)
		}

		if err := s.RunOnce(ctx); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}
		return
	}

	fmt.Println("Starting scheduler...")
	if err := s.Start(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}
