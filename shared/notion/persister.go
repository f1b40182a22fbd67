package notion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"video-insights/internal/models"
	"video-insights/shared/ai"
	"video-insights/shared/config"

	"github.com/jomei/notionapi"
)

// MaxTextLength is the per-field character ceiling of the Notion API. Truncate
// appends "..." after cutting, so a truncated field is MaxTextLength+3 runes and
// can still exceed what the API accepts for a single rich text item.
const MaxTextLength = 2000

const defaultAPIURL = "https://api.notion.com"

var ErrPersistFailed = errors.New("notion persistence failed")

// Persister creates one page per report in a Notion database.
// Save is not idempotent: every call creates a new page.
type Persister struct {
	config   *config.NotionConfig
	client   *notionapi.Client
	location *time.Location
	now      func() time.Time
}

func NewPersister(cfg *config.NotionConfig) (*Persister, error) {
	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", cfg.Timezone, err)
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}
	if cfg.BaseURL != "" && strings.TrimRight(cfg.BaseURL, "/") != defaultAPIURL {
		base, err := url.Parse(cfg.BaseURL)
		if err != nil || base.Host == "" {
			return nil, fmt.Errorf("invalid notion base url %q", cfg.BaseURL)
		}
		httpClient.Transport = &rebaseTransport{base: base, next: http.DefaultTransport}
	}

	opts := []notionapi.ClientOption{notionapi.WithHTTPClient(httpClient)}
	if cfg.Version != "" {
		opts = append(opts, notionapi.WithVersion(cfg.Version))
	}

	return &Persister{
		config:   cfg,
		client:   notionapi.NewClient(notionapi.Token(cfg.APIKey), opts...),
		location: location,
		now:      time.Now,
	}, nil
}

// rebaseTransport sends API requests to another scheme and host, for proxies
// and local test servers.
type rebaseTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = t.base.Scheme
	req.URL.Host = t.base.Host
	req.Host = t.base.Host
	return t.next.RoundTrip(req)
}

// Save writes report as a new database page and returns the page record
func (p *Persister) Save(ctx context.Context, report *models.Report) (*models.NoteRecord, error) {
	if report == nil || strings.TrimSpace(report.Body) == "" {
		return nil, fmt.Errorf("%w: report is empty", ErrPersistFailed)
	}
	video := report.Video
	if video == nil {
		video = &models.Video{Title: models.UnknownTitle, ChannelTitle: models.UnknownChannel}
	}

	log.Printf("Saving to Notion database %s: %s (%s)", p.config.DatabaseID, video.Title, video.ChannelTitle)

	page, err := p.client.Page.Create(ctx, p.buildRequest(report, video))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}
	if page == nil || page.URL == "" {
		return nil, fmt.Errorf("%w: response did not include a page url", ErrPersistFailed)
	}

	return &models.NoteRecord{
		ID:        string(page.ID),
		URL:       page.URL,
		Video:     video,
		CreatedAt: p.now(),
	}, nil
}

func (p *Persister) buildRequest(report *models.Report, video *models.Video) *notionapi.PageCreateRequest {
	names := p.config.Properties
	analyzedAt := report.CreatedAt
	if analyzedAt.IsZero() {
		analyzedAt = p.now()
	}
	start := notionapi.Date(analyzedAt.In(p.location))

	insights := Truncate(ai.ExtractInsights(report.Body), MaxTextLength)
	body := Truncate(report.Body, MaxTextLength)

	properties := notionapi.Properties{
		names.Title: notionapi.TitleProperty{
			Title: textContent(Truncate(video.Title, MaxTextLength)),
		},
		names.Channel: notionapi.RichTextProperty{
			RichText: textContent(Truncate(video.ChannelTitle, MaxTextLength)),
		},
		names.AnalyzedAt: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &start},
		},
		names.Insights: notionapi.RichTextProperty{
			RichText: textContent(insights),
		},
	}
	// Notion rejects an empty url property value
	if video.URL != "" {
		properties[names.URL] = notionapi.URLProperty{URL: video.URL}
	}

	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(p.config.DatabaseID),
		},
		Properties: properties,
		Children: []notionapi.Block{
			&notionapi.ParagraphBlock{
				BasicBlock: notionapi.BasicBlock{
					Object: notionapi.ObjectTypeBlock,
					Type:   notionapi.BlockTypeParagraph,
				},
				Paragraph: notionapi.Paragraph{
					RichText: textContent(body),
				},
			},
		},
	}
}

func textContent(content string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: content},
	}}
}

// Truncate cuts s to max characters and appends "..." when it was longer
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
