package models

import "strings"

// Tier tells whether captions were authored by a person or generated by the platform
type Tier int

const (
	TierManual Tier = iota
	TierAuto
)

func (t Tier) String() string {
	switch t {
	case TierManual:
		return "manual"
	case TierAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// Segment is one caption line. Timing is kept but not used by the pipeline.
type Segment struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// Transcript is an ordered list of caption segments in a single language
type Transcript struct {
	VideoID  string    `json:"video_id"`
	Language string    `json:"language"`
	Tier     Tier      `json:"tier"`
	Segments []Segment `json:"segments"`
}

// Text joins all segments, one per line
func (t *Transcript) Text() string {
	if t == nil {
		return ""
	}
	lines := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		lines = append(lines, s.Text)
	}
	return strings.Join(lines, "\n")
}
