package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/agroscan/agroscan-bot/internal/domain/entity"
	"github.com/agroscan/agroscan-bot/internal/domain/port"
)

// FailureMessage is the only error text ever shown to the user.
const FailureMessage = "Failed to analyze the image. Please try again with a clearer picture."

// Session is the upload -> analyze -> result/error state machine for one user.
type Session struct {
	analyzer port.ImageAnalyzer
	timeout  time.Duration
	logger   *log.Entry

	mu         sync.Mutex
	image      *entity.Image
	result     *entity.AnalysisResult
	loading    bool
	errMsg     string
	generation uint64
}

// SessionOption customises a Session.
type SessionOption func(*Session)

// WithTimeout bounds every analysis call. Zero means no bound.
func WithTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.timeout = d }
}

// WithLogger sets the entry used for diagnostics.
func WithLogger(entry *log.Entry) SessionOption {
	return func(s *Session) { s.logger = entry }
}

// NewSession creates an idle session backed by the analyzer.
func NewSession(analyzer port.ImageAnalyzer, opts ...SessionOption) *Session {
	s := &Session{
		analyzer: analyzer,
		logger:   log.NewEntry(log.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request tracks one started analysis.
type Request struct {
	ID      string
	done    chan struct{}
	applied bool
}

// Done is closed once the response has been applied or discarded.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Applied reports whether the response reached the session. Valid after Done.
func (r *Request) Applied() bool {
	<-r.done
	return r.applied
}

// Wait blocks until the request finishes or ctx ends.
func (r *Request) Wait(ctx context.Context) (bool, error) {
	select {
	case <-r.done:
		return r.applied, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// UploadImage replaces the image and clears any result or error.
// A response still in flight for the previous image is discarded.
func (s *Session) UploadImage(img *entity.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image = img
	s.result = nil
	s.errMsg = ""
	s.loading = false
	s.generation++
}

// RequestAnalysis starts diagnosing the current image in the background.
// It returns nil without calling the analyzer when no image is selected
// or when an analysis is already running.
func (s *Session) RequestAnalysis(ctx context.Context) *Request {
	s.mu.Lock()
	if s.image == nil || s.loading {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.errMsg = ""
	gen := s.generation
	img := s.image
	s.mu.Unlock()

	req := &Request{ID: uuid.NewString(), done: make(chan struct{})}
	go s.run(ctx, req, gen, img)
	return req
}

// Reset returns the session to the idle state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.image = nil
	s.result = nil
	s.errMsg = ""
	s.loading = false
	s.generation++
}

// State returns a snapshot of the raw session fields.
func (s *Session) State() entity.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	return entity.SessionState{
		Image:   s.image,
		Result:  s.result,
		Loading: s.loading,
		Error:   s.errMsg,
	}
}

// View returns the single view the user should see.
func (s *Session) View() entity.View {
	return s.State().View()
}

func (s *Session) run(ctx context.Context, req *Request, gen uint64, img *entity.Image) {
	defer close(req.done)

	logger := s.logger.WithField("request_id", req.ID).WithField("image", img.Name)
	start := time.Now()

	result, err := s.analyze(ctx, img)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		logger.WithField("elapsed", time.Since(start)).Debug("discarding stale analysis response")
		return
	}

	s.loading = false
	req.applied = true

	if err != nil {
		s.result = nil
		s.errMsg = FailureMessage
		logger = logger.WithError(err).WithField("elapsed", time.Since(start))
		var se *port.ServiceError
		if errors.As(err, &se) {
			logger = logger.WithField("kind", se.Kind)
		}
		logger.Error("image analysis failed")
		return
	}

	s.result = result
	logger.WithField("elapsed", time.Since(start)).WithField("disease", result.English.Disease).Info("image analysis complete")
}

// analyze calls the collaborator and turns every failure mode into an error.
func (s *Session) analyze(ctx context.Context, img *entity.Image) (result *entity.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("analyzer panicked: %v", r)
		}
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	result, err = s.analyzer.Analyze(ctx, img)
	if err != nil {
		return nil, err
	}
	if verr := result.Validate(); verr != nil {
		return nil, &port.ServiceError{Kind: port.ErrKindMalformed, Message: "invalid analysis result", Err: verr}
	}
	return result, nil
}
