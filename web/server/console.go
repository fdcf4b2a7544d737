package server

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// ConsoleHistory keeps the most recent console messages across renders
type ConsoleHistory struct {
	mu       sync.Mutex
	messages []ConsoleMessage
	limit    int
}

// NewConsoleHistory creates a history holding at most limit messages
func NewConsoleHistory(limit int) *ConsoleHistory {
	return &ConsoleHistory{limit: limit}
}

// Add appends a message, dropping the oldest when full
func (h *ConsoleHistory) Add(msg ConsoleMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.messages = append(h.messages, msg)
	if over := len(h.messages) - h.limit; over > 0 {
		h.messages = append([]ConsoleMessage(nil), h.messages[over:]...)
	}
}

// Messages returns a copy of the history, oldest first
func (h *ConsoleHistory) Messages() []ConsoleMessage {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ConsoleMessage(nil), h.messages...)
}

// WebLogger implements core.Logger by sending messages to a console channel
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	history     *ConsoleHistory
}

// NewWebLogger creates a new web logger for a specific render.
// consoleChan and history may each be nil.
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage, history *ConsoleHistory) core.Logger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
		history:     history,
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	// Also write to the server log
	log.Printf("[%s] %s", wl.renderID, message)

	msg := ConsoleMessage{
		RenderID:  wl.renderID,
		Message:   message,
		Timestamp: time.Now(),
		Level:     "info",
	}

	if wl.history != nil {
		wl.history.Add(msg)
	}

	// Send to web console if channel is available (non-blocking)
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- msg:
		default:
			// Channel full, skip (don't block)
		}
	}
}
