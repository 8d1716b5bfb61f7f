package ui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "github.com/agroscan/agroscan-bot/internal/application"
	"github.com/agroscan/agroscan-bot/internal/domain/entity"
)

type analyzerFunc func(ctx context.Context, img *entity.Image) (*entity.AnalysisResult, error)

func (f analyzerFunc) Analyze(ctx context.Context, img *entity.Image) (*entity.AnalysisResult, error) {
	return f(ctx, img)
}

func loadFake(path string) (*entity.Image, error) {
	if path == "missing.jpg" {
		return nil, errors.New("no such file")
	}
	return &entity.Image{Data: []byte("leaf"), MIMEType: "image/jpeg", Name: path}, nil
}

func key(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func result() *entity.AnalysisResult {
	return &entity.AnalysisResult{
		English: entity.AnalysisContent{Disease: "Leaf rust", Pesticide: "Mancozeb", Recommendation: "Remove infected leaves"},
		Telugu:  entity.AnalysisContent{Disease: "ఆకు తుప్పు", Recommendation: "సోకిన ఆకులను తొలగించండి"},
	}
}

func TestModel_StartsWithFirstImage(t *testing.T) {
	session := app.NewSession(nil)
	m := NewModel(context.Background(), session, []string{"one.jpg", "two.jpg"}, loadFake)

	view, ok := session.View().(entity.IdleView)
	require.True(t, ok)
	require.True(t, view.CanAnalyze())
	assert.Equal(t, "one.jpg", view.Image.Name)
	assert.Contains(t, m.View(), "a: analyze")
}

func TestModel_NextImageCycles(t *testing.T) {
	session := app.NewSession(nil)
	m := NewModel(context.Background(), session, []string{"one.jpg", "two.jpg"}, loadFake)

	m.Update(key("n"))
	assert.Equal(t, "two.jpg", session.State().Image.Name)

	m.Update(key("n"))
	assert.Equal(t, "one.jpg", session.State().Image.Name)
}

func TestModel_LoadErrorIsANotice(t *testing.T) {
	session := app.NewSession(nil)
	m := NewModel(context.Background(), session, []string{"missing.jpg"}, loadFake)

	assert.Nil(t, session.State().Image)
	assert.Contains(t, m.View(), "Could not load missing.jpg")
}

func TestModel_AnalyzeSuccess(t *testing.T) {
	session := app.NewSession(analyzerFunc(func(ctx context.Context, img *entity.Image) (*entity.AnalysisResult, error) {
		return result(), nil
	}))
	m := NewModel(context.Background(), session, []string{"one.jpg"}, loadFake)

	_, cmd := m.Update(key("a"))
	require.NotNil(t, cmd)

	msg := cmd()
	done, ok := msg.(analysisDoneMsg)
	require.True(t, ok)
	assert.True(t, done.applied)
	m.Update(msg)

	out := m.View()
	assert.Contains(t, out, "📷 one.jpg", "the file name stands in for the photo preview")
	assert.Contains(t, out, "Leaf rust")
	assert.Contains(t, out, "Mancozeb")
	assert.Contains(t, out, "ఆకు తుప్పు")
	assert.Contains(t, out, "—")
}

func TestModel_AnalyzeFailureThenReset(t *testing.T) {
	session := app.NewSession(analyzerFunc(func(ctx context.Context, img *entity.Image) (*entity.AnalysisResult, error) {
		return nil, errors.New("boom")
	}))
	m := NewModel(context.Background(), session, []string{"one.jpg"}, loadFake)

	_, cmd := m.Update(key("a"))
	require.NotNil(t, cmd)
	cmd()

	assert.Contains(t, m.View(), app.FailureMessage)

	m.Update(key("r"))
	assert.Equal(t, entity.IdleView{}, session.View())
	assert.Contains(t, m.View(), "Load a leaf photo")
}

func TestModel_LoadingView(t *testing.T) {
	release := make(chan struct{})
	session := app.NewSession(analyzerFunc(func(ctx context.Context, img *entity.Image) (*entity.AnalysisResult, error) {
		<-release
		return result(), nil
	}))
	m := NewModel(context.Background(), session, []string{"one.jpg"}, loadFake)

	_, cmd := m.Update(key("a"))
	require.NotNil(t, cmd)

	out := m.View()
	assert.Contains(t, out, "Analyzing")
	assert.NotContains(t, out, "Leaf rust")

	_, second := m.Update(key("a"))
	assert.Nil(t, second, "a second analyze while loading is ignored")

	close(release)
	cmd()
	assert.Contains(t, m.View(), "Leaf rust")
}

func TestModel_AnalyzeWithoutImage(t *testing.T) {
	session := app.NewSession(nil)
	m := NewModel(context.Background(), session, nil, loadFake)

	_, cmd := m.Update(key("a"))
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Load a leaf photo")

	m.Update(key("n"))
	assert.Contains(t, m.View(), "No images given")
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(context.Background(), app.NewSession(nil), nil, loadFake)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
