// Package controller implements the per-session detection request lifecycle: image selection,
// the startup health probe, and a single in-flight detect call whose outcome is reconciled into
// renderable state.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/aidetect/aidetect/internal/detector"
	"github.com/aidetect/aidetect/internal/metrics"
)

// NoImageMessage is the user-visible text for a submit without a selected image.
const NoImageMessage = "Please select an image first"

var (
	// ErrNoImageSelected is returned by Submit when no image has been selected.
	ErrNoImageSelected = errors.New("no image selected")
	// ErrRequestInFlight is returned by Submit while a detect call is outstanding.
	ErrRequestInFlight = errors.New("detect request already in flight")
	// ErrClosed is returned once the controller has been torn down.
	ErrClosed = errors.New("controller closed")

	errDetectAborted = errors.New("detect call aborted")
)

// Detector is the remote service as seen by the controller.
type Detector interface {
	Health(ctx context.Context) error
	Detect(ctx context.Context, img detector.Image) (detector.Result, error)
}

// Previews stores preview resources for selected images.
type Previews interface {
	Put(contentType string, data []byte) string
	Release(id string)
}

// Connectivity is the outcome of the startup health probe.
type Connectivity int

const (
	ConnectivityUnknown Connectivity = iota
	ConnectivityConnected
	ConnectivityDisconnected
)

func (c Connectivity) String() string {
	switch c {
	case ConnectivityConnected:
		return "Connected"
	case ConnectivityDisconnected:
		return "Disconnected"
	default:
		return "Checking..."
	}
}

// RequestState is the lifecycle of the current detect call.
type RequestState int

const (
	StateIdle RequestState = iota
	StateInFlight
	StateSucceeded
	StateFailed
)

func (s RequestState) String() string {
	switch s {
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Snapshot is a point-in-time copy of controller state for rendering.
type Snapshot struct {
	ID           string
	Connectivity Connectivity
	State        RequestState
	HasImage     bool
	Filename     string
	ContentType  string
	Size         int
	PreviewID    string
	Result       *detector.Result
	Error        string
}

// InFlight reports whether a detect call is outstanding.
func (s Snapshot) InFlight() bool {
	return s.State == StateInFlight
}

// Options configures a Controller.
type Options struct {
	ID       string
	Detector Detector
	Previews Previews
	Logger   *slog.Logger
	Now      func() time.Time
}

// Controller owns the UI state of one browser session. It is safe for concurrent use.
type Controller struct {
	id       string
	detector Detector
	previews Previews
	logger   *slog.Logger
	now      func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	probeOnce sync.Once
	probeDone chan struct{}

	mu           sync.Mutex
	closed       bool
	lastActive   time.Time
	connectivity Connectivity
	image        *detector.Image
	previewID    string
	generation   uint64
	state        RequestState
	result       *detector.Result
	errMsg       string
}

// New returns an idle controller. Call Probe to start the health check.
func New(opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		id:         opts.ID,
		detector:   opts.Detector,
		previews:   opts.Previews,
		logger:     logger.With("controller_id", opts.ID),
		now:        now,
		ctx:        ctx,
		cancel:     cancel,
		probeDone:  make(chan struct{}),
		lastActive: now(),
	}
}

// ID returns the controller id.
func (c *Controller) ID() string {
	return c.id
}

// Probe starts the one-shot asynchronous health check. Later calls do nothing.
func (c *Controller) Probe() {
	c.probeOnce.Do(func() {
		go c.probe()
	})
}

// ProbeDone is closed once the health probe has recorded its outcome.
func (c *Controller) ProbeDone() <-chan struct{} {
	return c.probeDone
}

func (c *Controller) probe() {
	defer close(c.probeDone)

	err := c.detector.Health(c.ctx)

	status := "success"
	connectivity := ConnectivityConnected
	if err != nil {
		status = "failure"
		connectivity = ConnectivityDisconnected
		c.logger.Warn("detection service health probe failed", "error", err)
	} else {
		c.logger.Debug("detection service reachable")
	}
	metrics.HealthProbesTotal.WithLabelValues(status).Inc()

	c.mu.Lock()
	c.connectivity = connectivity
	c.mu.Unlock()
}

// SelectImage replaces the selected image and clears any result or error. A nil image is a no-op.
// A detect call still in flight keeps running but its outcome is discarded.
func (c *Controller) SelectImage(img *detector.Image) error {
	if img == nil {
		return nil
	}
	selected := detector.Image{
		Filename:    img.Filename,
		ContentType: img.ContentType,
		Data:        append([]byte(nil), img.Data...),
	}

	var previewID string
	if c.previews != nil {
		previewID = c.previews.Put(selected.ContentType, selected.Data)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.release(previewID)
		return ErrClosed
	}
	superseded := c.previewID
	c.image = &selected
	c.previewID = previewID
	c.generation++
	c.result = nil
	c.errMsg = ""
	if c.state != StateInFlight {
		c.state = StateIdle
	}
	c.lastActive = c.now()
	c.mu.Unlock()

	c.release(superseded)
	c.logger.Debug("image selected", "filename", selected.Filename, "bytes", len(selected.Data))
	return nil
}

// Submit starts a detect call for the selected image. The returned channel is closed once the
// outcome has been recorded. Without a selected image it fails synchronously and records
// NoImageMessage; while a call is outstanding it is rejected and state is left untouched.
func (c *Controller) Submit() (<-chan struct{}, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.lastActive = c.now()
	if c.image == nil {
		c.errMsg = NoImageMessage
		c.mu.Unlock()
		metrics.DetectRejectedTotal.WithLabelValues("no_image").Inc()
		return nil, ErrNoImageSelected
	}
	if c.state == StateInFlight {
		c.mu.Unlock()
		metrics.DetectRejectedTotal.WithLabelValues("in_flight").Inc()
		return nil, ErrRequestInFlight
	}
	c.state = StateInFlight
	c.result = nil
	c.errMsg = ""
	gen := c.generation
	img := *c.image
	c.mu.Unlock()

	done := make(chan struct{})
	metrics.DetectInFlight.Inc()
	go c.run(gen, img, done)
	return done, nil
}

func (c *Controller) run(gen uint64, img detector.Image, done chan struct{}) {
	start := time.Now()
	var (
		res detector.Result
		err = errDetectAborted
	)
	defer func() {
		c.finish(gen, res, err, time.Since(start))
		close(done)
	}()

	res, err = c.detector.Detect(c.ctx, img)
}

func (c *Controller) finish(gen uint64, res detector.Result, err error, elapsed time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	metrics.DetectInFlight.Dec()
	metrics.DetectRequestsTotal.WithLabelValues(status).Inc()
	metrics.DetectDuration.WithLabelValues(status).Observe(elapsed.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateIdle
	if gen != c.generation {
		c.logger.Debug("discarding detect outcome for replaced image", "status", status)
		return
	}
	if err != nil {
		c.state = StateFailed
		c.errMsg = detector.Message(err)
		c.logger.Warn("detect failed", "error", err, "duration", elapsed)
		return
	}
	c.state = StateSucceeded
	c.result = &res
	c.logger.Info("detect succeeded",
		"classification", res.Classification,
		"confidence", res.Confidence,
		"duration", elapsed,
	)
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		ID:           c.id,
		Connectivity: c.connectivity,
		State:        c.state,
		PreviewID:    c.previewID,
		Error:        c.errMsg,
	}
	if c.image != nil {
		snap.HasImage = true
		snap.Filename = c.image.Filename
		snap.ContentType = c.image.ContentType
		snap.Size = len(c.image.Data)
	}
	if c.result != nil {
		res := *c.result
		snap.Result = &res
	}
	return snap
}

// Touch marks the controller as recently used.
func (c *Controller) Touch() {
	c.mu.Lock()
	c.lastActive = c.now()
	c.mu.Unlock()
}

// LastActive returns the time of the last user action.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActive
}

// Close tears the controller down: an outstanding detect call is canceled and the preview is
// released. Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	previewID := c.previewID
	c.previewID = ""
	c.image = nil
	c.mu.Unlock()

	c.cancel()
	c.release(previewID)
}

func (c *Controller) release(previewID string) {
	if c.previews != nil && previewID != "" {
		c.previews.Release(previewID)
	}
}
