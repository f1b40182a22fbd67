package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"video-insights/internal/models"
)

const maxFilenameLength = 200

var (
	disallowedChars = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	separatorRuns   = regexp.MustCompile(`[-\s]+`)
)

// SanitizeFilename turns arbitrary text into a filesystem friendly name.
// Letters in any script are kept; separators collapse to a single underscore.
func SanitizeFilename(text string, maxLength int) string {
	sanitized := norm.NFC.String(text)
	sanitized = disallowedChars.ReplaceAllString(sanitized, "")
	sanitized = separatorRuns.ReplaceAllString(sanitized, "_")

	if runes := []rune(sanitized); len(runes) > maxLength {
		sanitized = string(runes[:maxLength])
	}

	sanitized = strings.Trim(sanitized, "_")
	if sanitized == "" {
		return "Unknown"
	}
	return sanitized
}

// TranscriptFilename is {title}_{channel}_{id}_trans.txt, shortened when it would exceed 200 characters
func TranscriptFilename(video *models.Video) string {
	name := fmt.Sprintf("%s_%s_%s_trans.txt",
		SanitizeFilename(video.Title, 50), SanitizeFilename(video.ChannelTitle, 50), video.ID)
	if len([]rune(name)) > maxFilenameLength {
		name = fmt.Sprintf("%s_%s_%s_trans.txt",
			SanitizeFilename(video.Title, 30), SanitizeFilename(video.ChannelTitle, 20), video.ID)
	}
	return name
}

// ReportFilename is {title}_{id}_analysis.txt
func ReportFilename(video *models.Video) string {
	return fmt.Sprintf("%s_%s_analysis.txt", SanitizeFilename(video.Title, 50), video.ID)
}

// SaveTranscript writes the plain transcript text and returns the file path
func SaveTranscript(dir string, video *models.Video, text string) (string, error) {
	return writeText(dir, TranscriptFilename(video), text)
}

// SaveReport writes the analysis report and returns the file path
func SaveReport(dir string, report *models.Report) (string, error) {
	if report == nil || report.Video == nil {
		return "", fmt.Errorf("report and its video are required")
	}
	return writeText(dir, ReportFilename(report.Video), report.Body)
}

func writeText(dir, name, text string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
