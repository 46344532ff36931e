package progress

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DisplayConfig controls the periodic progress line
type DisplayConfig struct {
	DisplayInterval   time.Duration
	EnableProgress    bool
	ShowETAEstimation bool
}

// DefaultDisplayConfig logs every three seconds with ETA
func DefaultDisplayConfig() *DisplayConfig {
	return &DisplayConfig{
		DisplayInterval:   3 * time.Second,
		EnableProgress:    true,
		ShowETAEstimation: true,
	}
}

// DisplayManager logs a progress bar for one search, on a ticker and on every update.
// It implements Listener.
type DisplayManager struct {
	mutex          sync.RWMutex
	logger         zerolog.Logger
	config         *DisplayConfig
	label          string
	state          State
	startTime      time.Time
	completed      bool
	lastDisplayed  string
	isRunning      bool
	displayTicker  *time.Ticker
	stopChan       chan struct{}
	loopDone       chan struct{}
	triggerDisplay chan struct{}
}

// NewDisplayManager creates a display for the search labelled label
func NewDisplayManager(logger zerolog.Logger, label string, config *DisplayConfig) *DisplayManager {
	if config == nil {
		config = DefaultDisplayConfig()
	}
	if config.DisplayInterval <= 0 {
		config.DisplayInterval = DefaultDisplayConfig().DisplayInterval
	}

	return &DisplayManager{
		logger:         logger.With().Str("component", "ProgressDisplay").Str("identifier", label).Logger(),
		config:         config,
		label:          label,
		stopChan:       make(chan struct{}),
		loopDone:       make(chan struct{}),
		triggerDisplay: make(chan struct{}, 1),
	}
}

// Start launches the display loop; it is a no-op when progress display is disabled
func (dm *DisplayManager) Start() {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	if dm.isRunning {
		return
	}
	if !dm.config.EnableProgress {
		dm.logger.Debug().Msg("Progress display disabled in configuration")
		return
	}

	dm.isRunning = true
	dm.startTime = time.Now()
	dm.displayTicker = time.NewTicker(dm.config.DisplayInterval)
	go dm.displayLoop()
}

// Stop ends the display loop and waits for it to exit
func (dm *DisplayManager) Stop() {
	dm.mutex.Lock()
	if !dm.isRunning {
		dm.mutex.Unlock()
		return
	}
	dm.isRunning = false
	dm.displayTicker.Stop()
	close(dm.stopChan)
	dm.mutex.Unlock()

	<-dm.loopDone
}

// OnProgress records the latest counts and asks for a redraw
func (dm *DisplayManager) OnProgress(s State) {
	dm.mutex.Lock()
	dm.state = s
	dm.mutex.Unlock()
	dm.triggerImmediateDisplay()
}

// OnComplete prints the final line immediately
func (dm *DisplayManager) OnComplete(s State) {
	dm.mutex.Lock()
	dm.state = s
	dm.completed = true
	enabled := dm.config.EnableProgress
	dm.mutex.Unlock()

	if enabled {
		dm.displayProgress()
	}
}

func (dm *DisplayManager) triggerImmediateDisplay() {
	select {
	case dm.triggerDisplay <- struct{}{}:
	default:
	}
}

func (dm *DisplayManager) displayLoop() {
	defer close(dm.loopDone)
	for {
		select {
		case <-dm.stopChan:
			return
		case <-dm.displayTicker.C:
			dm.displayProgress()
		case <-dm.triggerDisplay:
			dm.displayProgress()
		}
	}
}

func (dm *DisplayManager) displayProgress() {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	output := dm.formatLine()
	if output == "" || output == dm.lastDisplayed {
		return
	}
	dm.lastDisplayed = output
	dm.logger.Info().
		Int("matched", dm.state.SuccessCount).
		Int("not_matched", dm.state.FailCount).
		Int("total", dm.state.Total).
		Msg(output)
}

// formatLine must be called with the mutex held
func (dm *DisplayManager) formatLine() string {
	if dm.state.Total == 0 && !dm.completed {
		return ""
	}

	var builder strings.Builder
	percentage := dm.state.Percentage()
	builder.WriteString(fmt.Sprintf("🔍 %s: %s %s %.1f%% (%d/%d) | found %d",
		dm.label, dm.statusIcon(), createProgressBar(percentage, 20), percentage,
		dm.state.Completed(), dm.state.Total, dm.state.SuccessCount))

	if dm.config.ShowETAEstimation && !dm.completed && !dm.startTime.IsZero() {
		if eta := dm.state.EstimateETA(dm.startTime); eta > 0 {
			builder.WriteString(fmt.Sprintf(" | ETA: %s", formatDuration(eta)))
		}
	}
	return builder.String()
}

func (dm *DisplayManager) statusIcon() string {
	if dm.completed {
		return "✅"
	}
	return "⏳"
}

func createProgressBar(percentage float64, width int) string {
	if width <= 0 {
		return ""
	}

	filled := int((percentage / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.0fm", d.Minutes())
	default:
		return fmt.Sprintf("%.1fh", d.Hours())
	}
}
