package container

import (
	"time"

	app "github.com/agroscan/agroscan-bot/internal/application"
	"github.com/agroscan/agroscan-bot/internal/domain/port"
	"github.com/agroscan/agroscan-bot/internal/infrastructure/storage"
)

type Container struct {
	Analyzer         port.ImageAnalyzer
	DiagnosisService *app.DiagnosisService
	AnalysisTimeout  time.Duration
}

func New(analyzer port.ImageAnalyzer, analysisTimeout time.Duration) *Container {
	sessions := storage.NewMemorySessionRepository[*app.Session]()
	diagnosisService := app.NewDiagnosisService(sessions, analyzer, app.WithTimeout(analysisTimeout))

	return &Container{
		Analyzer:         analyzer,
		DiagnosisService: diagnosisService,
		AnalysisTimeout:  analysisTimeout,
	}
}

// NewSession creates a standalone session for single-user front-ends.
func (c *Container) NewSession() *app.Session {
	return app.NewSession(c.Analyzer, app.WithTimeout(c.AnalysisTimeout))
}
