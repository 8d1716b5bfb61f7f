package container

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agroscan/agroscan-bot/internal/domain/entity"
)

type staticAnalyzer struct {
	result *entity.AnalysisResult
}

func (a staticAnalyzer) Analyze(ctx context.Context, image *entity.Image) (*entity.AnalysisResult, error) {
	return a.result, nil
}

func TestNew_WiresDiagnosisService(t *testing.T) {
	result := &entity.AnalysisResult{
		English: entity.AnalysisContent{Disease: "Healthy", Recommendation: "No action needed"},
		Telugu:  entity.AnalysisContent{Disease: "ఆరోగ్యకరమైనది", Recommendation: "చర్య అవసరం లేదు"},
	}
	c := New(staticAnalyzer{result: result}, time.Second)
	ctx := context.Background()

	_, err := c.DiagnosisService.Upload(ctx, 5, &entity.Image{Data: []byte("x"), MIMEType: "image/png"})
	require.NoError(t, err)

	req, _, err := c.DiagnosisService.Analyze(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, req)
	require.True(t, req.Applied())

	view, err := c.DiagnosisService.View(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, entity.StatusSuccess, view.Status())
}

func TestContainer_NewSessionIsIndependent(t *testing.T) {
	c := New(staticAnalyzer{}, time.Second)
	a, b := c.NewSession(), c.NewSession()
	require.NotSame(t, a, b)

	a.UploadImage(&entity.Image{Data: []byte("x")})
	require.Equal(t, entity.IdleView{}, b.View())
}
