package transcript

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video-insights/internal/models"
)

const watchPage = `<html><script>ytcfg.set({"INNERTUBE_API_KEY": "test-key-123"});</script></html>`

func newYouTubeServer(t *testing.T, player string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, watchPage)
	})
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key-123" {
			http.Error(w, "bad key", http.StatusForbidden)
			return
		}
		var body struct {
			VideoID string `json:"videoId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.VideoID == "" {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, player)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="utf-8" ?><transcript>`+
			`<text start="0.0" dur="1.5">Hello &amp;#39;world&amp;#39;</text>`+
			`<text start="1.5" dur="2.0"><![CDATA[<i>second</i> line]]></text>`+
			`<text start="3.5" dur="1.0">  </text>`+
			`</transcript>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func playerWithTracks(baseURL string) string {
	return fmt.Sprintf(`{
		"playabilityStatus": {"status": "OK"},
		"captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
			{"baseUrl": "%[1]s/api/timedtext?v=abc&lang=ko&fmt=srv3", "name": {"runs": [{"text": "Korean"}]}, "languageCode": "ko"},
			{"baseUrl": "%[1]s/api/timedtext?v=abc&lang=en&kind=asr", "name": {"simpleText": "English (auto-generated)"}, "languageCode": "en", "kind": "asr"}
		]}}
	}`, baseURL)
}

func TestYouTubeSourceListTracks(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	srv = httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, watchPage)
	})
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, playerWithTracks(srv.URL))
	})

	src := NewYouTubeSource(srv.URL, 5*time.Second)
	tracks, err := src.ListTracks(context.Background(), "abc")
	require.NoError(t, err)
	require.Len(t, tracks, 2)

	assert.Equal(t, "ko", tracks[0].Language)
	assert.Equal(t, models.TierManual, tracks[0].Tier)
	assert.Equal(t, "Korean", tracks[0].Name)
	assert.NotContains(t, tracks[0].URL, "fmt=srv3")

	assert.Equal(t, "en", tracks[1].Language)
	assert.Equal(t, models.TierAuto, tracks[1].Tier)
	assert.Equal(t, "English (auto-generated)", tracks[1].Name)
}

func TestYouTubeSourceListErrors(t *testing.T) {
	tests := []struct {
		name    string
		player  string
		wantErr error
	}{
		{"unplayable", `{"playabilityStatus": {"status": "ERROR", "reason": "Video unavailable"}}`, ErrVideoUnavailable},
		{"login required", `{"playabilityStatus": {"status": "LOGIN_REQUIRED"}}`, ErrVideoUnavailable},
		{"no captions", `{"playabilityStatus": {"status": "OK"}}`, ErrCaptionsDisabled},
		{"empty track list", `{"playabilityStatus": {"status": "OK"}, "captions": {"playerCaptionsTracklistRenderer": {"captionTracks": []}}}`, ErrCaptionsDisabled},
		{"garbage", `not json`, ErrTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newYouTubeServer(t, tt.player)
			src := NewYouTubeSource(srv.URL, 5*time.Second)

			_, err := src.ListTracks(context.Background(), "abc")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestYouTubeSourceWatchPageFailures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewYouTubeSource(srv.URL, time.Second).ListTracks(context.Background(), "abc")
		assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
	})

	t.Run("captcha", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<div class="g-recaptcha"></div>`)
		}))
		defer srv.Close()

		_, err := NewYouTubeSource(srv.URL, time.Second).ListTracks(context.Background(), "abc")
		assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
	})

	t.Run("no api key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html>nothing here</html>`)
		}))
		defer srv.Close()

		_, err := NewYouTubeSource(srv.URL, time.Second).ListTracks(context.Background(), "abc")
		assert.True(t, errors.Is(err, ErrVideoUnavailable), "got %v", err)
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewYouTubeSource(url, time.Second).ListTracks(context.Background(), "abc")
		assert.True(t, errors.Is(err, ErrTransport), "got %v", err)
	})
}

func TestYouTubeSourceFetchTrack(t *testing.T) {
	srv := newYouTubeServer(t, `{}`)
	src := NewYouTubeSource(srv.URL, 5*time.Second)

	segments, err := src.FetchTrack(context.Background(), Track{URL: srv.URL + "/api/timedtext?v=abc"})
	require.NoError(t, err)
	require.Len(t, segments, 2)

	assert.Equal(t, "Hello 'world'", segments[0].Text)
	assert.Equal(t, 1.5, segments[0].Duration)
	assert.Equal(t, "second line", segments[1].Text)
	assert.Equal(t, 1.5, segments[1].Start)
}

func TestParseTimedTextEmpty(t *testing.T) {
	segments, err := parseTimedText(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, segments)

	_, err = parseTimedText(strings.NewReader("<transcript><text>unclosed"))
	assert.Error(t, err)
}

func TestFetcherEndToEnd(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	srv = httptest.NewServer(mux)
	defer srv.Close()
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, watchPage)
	})
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"playabilityStatus": {"status": "OK"}, "captions": {"playerCaptionsTracklistRenderer": {"captionTracks": [
			{"baseUrl": "%s/api/timedtext?lang=en&kind=asr", "languageCode": "en", "kind": "asr"}
		]}}}`, srv.URL)
	})
	mux.HandleFunc("/api/timedtext", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<transcript><text start="0" dur="1">first</text><text start="1" dur="1">second</text></transcript>`)
	})

	fetcher := NewFetcher(NewYouTubeSource(srv.URL, 5*time.Second))
	res := fetcher.Fetch(context.Background(), "abc", DefaultCandidates("ko", "en"))

	require.Equal(t, StatusFound, res.Status)
	assert.Equal(t, "en", res.Transcript.Language)
	assert.Equal(t, models.TierAuto, res.Transcript.Tier)
	assert.Equal(t, "first\nsecond", res.Transcript.Text())
}
