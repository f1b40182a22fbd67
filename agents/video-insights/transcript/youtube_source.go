package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"video-insights/internal/models"
)

const (
	innertubeClientName    = "ANDROID"
	innertubeClientVersion = "20.10.38"
	maxPageBytes           = 8 << 20
)

var (
	apiKeyPattern  = regexp.MustCompile(`"INNERTUBE_API_KEY":\s*"([a-zA-Z0-9_-]+)"`)
	captionMarkup  = regexp.MustCompile(`<[^>]*>`)
	recaptchaToken = []byte(`class="g-recaptcha"`)
)

// YouTubeSource reads caption tracks from the public watch page and player endpoint
type YouTubeSource struct {
	baseURL    string
	listClient *http.Client
	client     *http.Client
}

// NewYouTubeSource creates a source rooted at baseURL (normally https://www.youtube.com).
// listTimeout bounds every request made while listing tracks.
func NewYouTubeSource(baseURL string, listTimeout time.Duration) *YouTubeSource {
	return &YouTubeSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		listClient: &http.Client{Timeout: listTimeout},
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		Renderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type captionTrack struct {
	BaseURL string `json:"baseUrl"`
	Name    struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (c captionTrack) displayName() string {
	if c.Name.SimpleText != "" {
		return c.Name.SimpleText
	}
	if len(c.Name.Runs) > 0 {
		return c.Name.Runs[0].Text
	}
	return c.LanguageCode
}

// ListTracks returns every caption track the player advertises for videoID
func (s *YouTubeSource) ListTracks(ctx context.Context, videoID string) ([]Track, error) {
	apiKey, err := s.fetchAPIKey(ctx, videoID)
	if err != nil {
		return nil, err
	}

	player, err := s.fetchPlayer(ctx, videoID, apiKey)
	if err != nil {
		return nil, err
	}

	if status := player.PlayabilityStatus.Status; status != "OK" {
		reason := player.PlayabilityStatus.Reason
		if reason == "" {
			reason = status
		}
		return nil, fmt.Errorf("%w: %s", ErrVideoUnavailable, reason)
	}

	if player.Captions == nil || len(player.Captions.Renderer.CaptionTracks) == 0 {
		return nil, ErrCaptionsDisabled
	}

	tracks := make([]Track, 0, len(player.Captions.Renderer.CaptionTracks))
	for _, ct := range player.Captions.Renderer.CaptionTracks {
		tier := models.TierManual
		if ct.Kind == "asr" {
			tier = models.TierAuto
		}
		tracks = append(tracks, Track{
			Language: ct.LanguageCode,
			Name:     ct.displayName(),
			Tier:     tier,
			URL:      strings.Replace(ct.BaseURL, "&fmt=srv3", "", 1),
		})
	}
	return tracks, nil
}

func (s *YouTubeSource) fetchAPIKey(ctx context.Context, videoID string) (string, error) {
	pageURL := fmt.Sprintf("%s/watch?v=%s", s.baseURL, url.QueryEscape(videoID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create watch page request: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US")

	resp, err := s.listClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to fetch watch page: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: watch page returned status %d", ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read watch page: %w", ErrTransport, err)
	}

	if bytes.Contains(body, recaptchaToken) {
		return "", fmt.Errorf("%w: request blocked by captcha", ErrTransport)
	}

	match := apiKeyPattern.FindSubmatch(body)
	if match == nil {
		return "", fmt.Errorf("%w: no player configuration on watch page", ErrVideoUnavailable)
	}
	return string(match[1]), nil
}

func (s *YouTubeSource) fetchPlayer(ctx context.Context, videoID, apiKey string) (*playerResponse, error) {
	payload := map[string]any{
		"context": map[string]any{
			"client": map[string]string{
				"clientName":    innertubeClientName,
				"clientVersion": innertubeClientVersion,
			},
		},
		"videoId": videoID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode player request: %w", err)
	}

	playerURL := fmt.Sprintf("%s/youtubei/v1/player?key=%s", s.baseURL, url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, playerURL, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create player request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.listClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch player data: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: player endpoint returned status %d", ErrTransport, resp.StatusCode)
	}

	var player playerResponse
	if err := json.NewDecoder(resp.Body).Decode(&player); err != nil {
		return nil, fmt.Errorf("%w: failed to decode player data: %w", ErrTransport, err)
	}
	return &player, nil
}

type timedText struct {
	Texts []struct {
		Start    float64 `xml:"start,attr"`
		Duration float64 `xml:"dur,attr"`
		Body     string  `xml:",chardata"`
	} `xml:"text"`
}

// FetchTrack downloads one caption track and returns its non-blank segments
func (s *YouTubeSource) FetchTrack(ctx context.Context, track Track) ([]models.Segment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create caption request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch captions: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: caption endpoint returned status %d", ErrTransport, resp.StatusCode)
	}

	return parseTimedText(resp.Body)
}

func parseTimedText(r io.Reader) ([]models.Segment, error) {
	var doc timedText
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse captions: %w", err)
	}

	segments := make([]models.Segment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		text := html.UnescapeString(t.Body)
		text = strings.TrimSpace(captionMarkup.ReplaceAllString(text, ""))
		if text == "" {
			continue
		}
		segments = append(segments, models.Segment{
			Text:     text,
			Start:    t.Start,
			Duration: t.Duration,
		})
	}
	return segments, nil
}
