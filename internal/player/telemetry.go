package player

import (
	"fmt"
	"math"
)

// NoValue is the placeholder shown for telemetry that is not known
const NoValue = "-"

// unknownHeight replaces the pixel height in quality labels when the tier has no resolution
const unknownHeight = "Unknown"

// QualityLevel is a snapshot of the active tier as shown to the user
type QualityLevel struct {
	Height  int
	Bitrate int
}

// Label renders the quality as "720p (2500 kbps)", "1080p" or "Unknown (800 kbps)"
func (q QualityLevel) Label() string {
	height := unknownHeight
	if q.Height > 0 {
		height = fmt.Sprintf("%dp", q.Height)
	}
	if q.Bitrate <= 0 {
		return height
	}
	return fmt.Sprintf("%s (%d kbps)", height, int(math.Round(float64(q.Bitrate)/1000)))
}

// Monitor derives live/VOD, quality and latency telemetry from engine events for one session
type Monitor struct {
	isLive       bool
	quality      *QualityLevel
	latency      *float64
	latencyLabel string
}

// NewMonitor returns a monitor with everything unknown
func NewMonitor() *Monitor {
	return &Monitor{latencyLabel: NoValue}
}

// ClassifyLive decides live vs VOD from the primary tier's playlist details.  A primary tier without loaded
// details counts as VOD.
func ClassifyLive(levels []Level) bool {
	if len(levels) == 0 || levels[0].Details == nil {
		return false
	}
	return levels[0].Details.EndSequence == nil
}

// SetLive records the session's classification.  It does not change afterwards.
func (m *Monitor) SetLive(live bool) {
	m.isLive = live
}

// IsLive reports the session's classification
func (m *Monitor) IsLive() bool {
	return m.isLive
}

// UpdateQuality recomputes the quality from the tier at index.  Returns false when index does not name a tier.
func (m *Monitor) UpdateQuality(levels []Level, index int) (QualityLevel, bool) {
	if index < 0 || index >= len(levels) {
		return QualityLevel{}, false
	}
	q := QualityLevel{Height: levels[index].Height, Bitrate: levels[index].Bitrate}
	m.quality = &q
	return q, true
}

// Quality returns the last computed quality, nil before the first level event
func (m *Monitor) Quality() *QualityLevel {
	return m.quality
}

// UpdateLatency folds a fragment's latency estimate into the rendered label.  VOD sessions always render NoValue and
// live sessions keep the previous label when the engine has no estimate.
func (m *Monitor) UpdateLatency(latency *float64) string {
	if !m.isLive {
		m.latency = nil
		m.latencyLabel = NoValue
		return m.latencyLabel
	}
	if latency == nil {
		return m.latencyLabel
	}
	value := *latency
	m.latency = &value
	m.latencyLabel = FormatLatency(value)
	return m.latencyLabel
}

// Latency returns the last latency estimate in seconds, nil when there is none
func (m *Monitor) Latency() *float64 {
	return m.latency
}

// LatencyLabel returns the currently rendered latency
func (m *Monitor) LatencyLabel() string {
	return m.latencyLabel
}

// FormatLatency renders seconds with one decimal and an "s" suffix
func FormatLatency(seconds float64) string {
	return fmt.Sprintf("%.1fs", seconds)
}
