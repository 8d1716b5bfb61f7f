package app

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/agroscan/agroscan-bot/internal/domain/entity"
	"github.com/agroscan/agroscan-bot/internal/domain/port"
)

// DiagnosisService routes chat actions to the chat's own session.
type DiagnosisService struct {
	sessions port.SessionRepository[*Session]
	analyzer port.ImageAnalyzer
	opts     []SessionOption
}

// NewDiagnosisService creates a service whose sessions share the analyzer and options.
func NewDiagnosisService(sessions port.SessionRepository[*Session], analyzer port.ImageAnalyzer, opts ...SessionOption) *DiagnosisService {
	return &DiagnosisService{
		sessions: sessions,
		analyzer: analyzer,
		opts:     opts,
	}
}

// Session returns the chat's session, creating an idle one on first use.
func (s *DiagnosisService) Session(ctx context.Context, chatID int64) (*Session, error) {
	return s.sessions.GetOrCreate(ctx, chatID, func() *Session {
		opts := append([]SessionOption{
			WithLogger(log.WithField("chat_id", chatID)),
		}, s.opts...)
		return NewSession(s.analyzer, opts...)
	})
}

// Upload stores a new photo for the chat.
func (s *DiagnosisService) Upload(ctx context.Context, chatID int64, img *entity.Image) (entity.View, error) {
	session, err := s.Session(ctx, chatID)
	if err != nil {
		return nil, err
	}
	session.UploadImage(img)
	return session.View(), nil
}

// Analyze starts an analysis for the chat. The request is nil when nothing was started.
func (s *DiagnosisService) Analyze(ctx context.Context, chatID int64) (*Request, entity.View, error) {
	session, err := s.Session(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	req := session.RequestAnalysis(ctx)
	if req != nil {
		// the analyzer may already have answered, report the state the request started in
		return req, entity.LoadingView{}, nil
	}
	return nil, session.View(), nil
}

// Reset clears the chat's session and releases it. The next action starts a fresh one.
func (s *DiagnosisService) Reset(ctx context.Context, chatID int64) (entity.View, error) {
	session, err := s.Session(ctx, chatID)
	if err != nil {
		return nil, err
	}
	session.Reset()
	if err := s.sessions.Delete(ctx, chatID); err != nil {
		return nil, err
	}
	return session.View(), nil
}

// View returns what the chat should currently see.
func (s *DiagnosisService) View(ctx context.Context, chatID int64) (entity.View, error) {
	session, err := s.Session(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return session.View(), nil
}

// ActiveSessions reports how many chats have a session.
func (s *DiagnosisService) ActiveSessions(ctx context.Context) (int, error) {
	return s.sessions.Count(ctx)
}

// EvictIdle drops sessions with no activity for idleFor, releasing their images.
func (s *DiagnosisService) EvictIdle(ctx context.Context, idleFor time.Duration) (int, error) {
	return s.sessions.EvictIdle(ctx, idleFor)
}

// RunEviction calls EvictIdle every interval until ctx is cancelled.
func (s *DiagnosisService) RunEviction(ctx context.Context, idleFor, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			evicted, err := s.EvictIdle(ctx, idleFor)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if evicted > 0 {
				log.WithField("evicted", evicted).Info("evicted idle sessions")
			}
		}
	}
}
