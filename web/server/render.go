package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/df07/go-weekend-raytracer/pkg/core"
	"github.com/df07/go-weekend-raytracer/pkg/output"
	"github.com/df07/go-weekend-raytracer/pkg/renderer"
	"github.com/df07/go-weekend-raytracer/pkg/scene"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene    string        `json:"scene"`    // Scene id (e.g., "random-spheres")
	Width    int           `json:"width"`    // Image width
	Samples  int           `json:"samples"`  // Samples per pixel, 0 keeps the scene default
	MaxDepth int           `json:"maxDepth"` // Bounce limit, 0 keeps the scene default
	VFov     float64       `json:"vfov"`     // Vertical field of view, 0 keeps the scene default
	Seed     int64         `json:"seed"`     // Base random seed
	Format   output.Format `json:"format"`   // Encoding of the returned image
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// RenderComplete is the payload of the final SSE event
type RenderComplete struct {
	ImageData        string  `json:"imageData"` // Base64 encoded PNG
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	ElapsedMs        int64   `json:"elapsedMs"`
	TotalSamples     int     `json:"totalSamples"`
	AverageLuminance float64 `json:"averageLuminance"`
}

// RenderingPipeline contains the configured scene and raytracer
type RenderingPipeline struct {
	Scene     *scene.Scene
	Raytracer *renderer.Raytracer
}

// errInvalidRequest marks pipeline errors caused by the request
var errInvalidRequest = errors.New("invalid request")

// handleRender renders synchronously and responds with the encoded image
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	renderID := newRenderID()
	logger := NewWebLogger(renderID, nil, s.history)

	pipeline, err := s.setupRenderingPipeline(req, logger)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, errInvalidRequest) {
			status = http.StatusBadRequest
		}
		writeJSONError(w, status, err.Error())
		return
	}

	var buf bytes.Buffer
	sink, err := output.NewSink(&buf, req.Format)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := pipeline.Raytracer.Render(r.Context(), pipeline.Scene.World, sink)
	if err != nil {
		if r.Context().Err() != nil {
			logger.Printf("Render cancelled: %v\n", err)
			return
		}
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Rendering failed: %v", err))
		return
	}
	if err := sink.Close(); err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Encoding failed: %v", err))
		return
	}

	logger.Printf("Render finished in %v (%.0f samples/s)\n", stats.Duration, stats.SamplesPerSecond())

	w.Header().Set("Content-Type", req.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Id", renderID)
	w.Header().Set("X-Render-Duration-Ms", strconv.FormatInt(stats.Duration.Milliseconds(), 10))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Error writing render %s: %v", renderID, err)
	}
}

// handleRenderStream renders while streaming console output via SSE, then
// sends the finished image as a base64 PNG
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)
	ctx := r.Context()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeSSEEvent(w, SSEEvent{Type: "error", Data: fmt.Sprintf("Invalid request: %v", err)})
		return
	}

	// Setup console logging
	consoleChan, webLogger := s.setupConsoleLogging()

	pipeline, err := s.setupRenderingPipeline(req, webLogger)
	if err != nil {
		writeSSEEvent(w, SSEEvent{Type: "error", Data: err.Error()})
		return
	}

	// Unified SSE event channel, drained only by this goroutine
	sseEventChan := make(chan SSEEvent, 100)

	go func() {
		defer close(sseEventChan)

		forwarded := make(chan struct{})
		go func() {
			defer close(forwarded)
			s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
		}()

		startTime := time.Now()
		collector := output.NewImageCollector()
		stats, err := pipeline.Raytracer.Render(ctx, pipeline.Scene.World, collector)

		// The logger is not used after Render returns
		close(consoleChan)
		<-forwarded

		if err != nil {
			s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
			return
		}
		s.handleRenderComplete(ctx, sseEventChan, collector.Image(), stats, startTime)
	}()

	s.writeSSEEvents(w, ctx, sseEventChan)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// newRenderID returns a unique id for log correlation
func newRenderID() string {
	return fmt.Sprintf("render-%d", time.Now().UnixNano())
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, core.Logger) {
	consoleChan := make(chan ConsoleMessage, 50)
	webLogger := NewWebLogger(newRenderID(), consoleChan, s.history)
	return consoleChan, webLogger
}

// writeSSEEvent writes and flushes a single event
func writeSSEEvent(w http.ResponseWriter, event SSEEvent) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
		return err
	}
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
	return nil
}

// writeSSEEvents writes events until the channel closes or the client goes away
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan chan SSEEvent) {
	for {
		select {
		case event, ok := <-sseEventChan:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, event); err != nil {
				// Client disconnected during write
				return
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}
}

// streamConsoleMessages forwards console messages until consoleChan closes
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan chan ConsoleMessage, sseEventChan chan SSEEvent) {
	for {
		select {
		case consoleMsg, ok := <-consoleChan:
			if !ok {
				return
			}

			data, err := json.Marshal(consoleMsg)
			if err != nil {
				log.Printf("Error marshaling console message: %v", err)
				continue
			}

			select {
			case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// handleRenderComplete sends the finished frame
func (s *Server) handleRenderComplete(ctx context.Context, sseEventChan chan SSEEvent, img image.Image, stats renderer.RenderStats, startTime time.Time) {
	imageData, err := s.imageToBase64PNG(img)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Encoding failed: %v", err))
		return
	}

	data, err := json.Marshal(RenderComplete{
		ImageData:        imageData,
		Width:            stats.Width,
		Height:           stats.Height,
		ElapsedMs:        time.Since(startTime).Milliseconds(),
		TotalSamples:     stats.TotalSamples,
		AverageLuminance: stats.AverageLuminance,
	})
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Encoding failed: %v", err))
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: string(data)}:
	case <-ctx.Done():
	}
}

// setupRenderingPipeline creates and configures the scene and raytracer
func (s *Server) setupRenderingPipeline(req *RenderRequest, logger core.Logger) (*RenderingPipeline, error) {
	overrides := renderer.CameraConfig{
		Width:           req.Width,
		SamplesPerPixel: req.Samples,
		MaxDepth:        req.MaxDepth,
		VFov:            req.VFov,
	}

	sceneObj, err := scene.Create(req.Scene, overrides)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	if err := sceneObj.CameraConfig.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidRequest, err)
	}

	integ, ok := sceneObj.NewIntegrator()
	if !ok {
		return nil, fmt.Errorf("scene %s uses unknown integrator %q", sceneObj.Name, sceneObj.Integrator)
	}

	camera := sceneObj.Camera()
	if camera.ImageWidth()*camera.ImageHeight() > 800*600 && sceneObj.CameraConfig.SamplesPerPixel > 100 {
		logger.Printf("Render warning: Large image with high samples may render slowly\n")
	}

	raytracer := renderer.NewRaytracer(camera, integ, renderer.RenderConfig{
		NumWorkers: s.workers,
		Seed:       req.Seed,
	}, logger)

	return &RenderingPipeline{
		Scene:     sceneObj,
		Raytracer: raytracer,
	}, nil
}

// parseCommonSceneParams parses the parameters shared by render and inspect
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	if sceneName := r.URL.Query().Get("scene"); sceneName != "" {
		req.Scene = sceneName
	} else {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(r.URL.Query(), "width", 400, MinWidth, MaxWidth); err != nil {
		return err
	}
	if req.VFov, err = parseFloatParam(r.URL.Query(), "vfov", 0, 1, 179); err != nil {
		return err
	}
	return nil
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	req := &RenderRequest{Seed: s.seed, Format: output.FormatPNG}

	if err := s.parseCommonSceneParams(r, req); err != nil {
		return nil, err
	}

	var err error
	if req.Samples, err = parseIntParam(r.URL.Query(), "samples", 0, 1, MaxSamples); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(r.URL.Query(), "depth", 0, 1, MaxDepth); err != nil {
		return nil, err
	}
	if value := r.URL.Query().Get("seed"); value != "" {
		if req.Seed, err = strconv.ParseInt(value, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
	}
	if value := r.URL.Query().Get("format"); value != "" {
		if req.Format, err = output.ParseFormat(value); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
