package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	app "github.com/agroscan/agroscan-bot/internal/application"
	"github.com/agroscan/agroscan-bot/internal/domain/entity"
)

// ImageLoader reads an image from disk.
type ImageLoader func(path string) (*entity.Image, error)

// Model drives one analysis session from the keyboard.
type Model struct {
	ctx     context.Context
	session *app.Session
	paths   []string
	next    int
	load    ImageLoader
	styles  styles

	notice   string
	quitting bool
}

// NewModel creates the model and uploads the first image, if any.
func NewModel(ctx context.Context, session *app.Session, paths []string, load ImageLoader) *Model {
	m := &Model{
		ctx:     ctx,
		session: session,
		paths:   paths,
		load:    load,
		styles:  newStyles(DefaultTheme),
	}
	if len(paths) > 0 {
		m.uploadNext()
	}
	return m
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "n":
			m.uploadNext()
		case "a":
			m.notice = ""
			if req := m.session.RequestAnalysis(m.ctx); req != nil {
				return m, waitForAnalysis(m.ctx, req)
			}
		case "r":
			m.notice = ""
			m.session.Reset()
		}

	case analysisDoneMsg:
		log.WithField("request_id", msg.requestID).WithField("applied", msg.applied).Debug("analysis finished")
	}

	return m, nil
}

func (m *Model) uploadNext() {
	if len(m.paths) == 0 {
		m.notice = "No images given on the command line."
		return
	}
	path := m.paths[m.next%len(m.paths)]
	m.next++

	img, err := m.load(path)
	if err != nil {
		m.notice = fmt.Sprintf("Could not load %s: %v", filepath.Base(path), err)
		return
	}
	m.notice = ""
	m.session.UploadImage(img)
}

// View renders exactly one of the session views
func (m *Model) View() string {
	if m.quitting {
		return "Bye! 👋\n"
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render("🌿 AgroScan"))
	b.WriteString("\n\n")

	switch v := m.session.View().(type) {
	case entity.LoadingView:
		b.WriteString(m.styles.loading.Render("⏳ Analyzing the leaf..."))
	case entity.ErrorView:
		b.WriteString(m.styles.err.Render("⚠️  " + v.Message))
		b.WriteString("\n\n")
		b.WriteString(m.styles.help.Render("r: try again"))
	case entity.SuccessView:
		fmt.Fprintf(&b, "📷 %s\n", imageName(v.Image))
		for _, lang := range entity.Languages {
			b.WriteString("\n")
			b.WriteString(m.renderContent(lang, v.Result.Content(lang)))
		}
		b.WriteString("\n")
		b.WriteString(m.styles.help.Render("r: new scan"))
	case entity.IdleView:
		if v.CanAnalyze() {
			fmt.Fprintf(&b, "📷 %s\n\n", imageName(v.Image))
			b.WriteString(m.styles.help.Render("a: analyze"))
		} else {
			b.WriteString("📸 Load a leaf photo to start.")
		}
	}

	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(m.styles.notice.Render(m.notice))
	}
	b.WriteString("\n\n")
	b.WriteString(m.styles.help.Render("n: next image • a: analyze • r: reset • q: quit"))

	return m.styles.frame.Render(b.String()) + "\n"
}

var languageTitles = map[entity.Language]string{
	entity.LanguageEnglish: "English",
	entity.LanguageTelugu:  "తెలుగు",
}

func (m *Model) renderContent(lang entity.Language, c entity.AnalysisContent) string {
	var b strings.Builder
	b.WriteString(m.styles.heading.Render(languageTitles[lang]))
	b.WriteString("\n")
	for _, f := range []struct{ label, value string }{
		{"Disease", c.Disease},
		{"Pesticide", c.Pesticide},
		{"Recommendation", c.Recommendation},
	} {
		value := f.value
		if strings.TrimSpace(value) == "" {
			value = "—"
		}
		fmt.Fprintf(&b, "%s %s\n", m.styles.label.Render(f.label+":"), value)
	}
	return b.String()
}

func imageName(img *entity.Image) string {
	if img == nil || img.Name == "" {
		return "image"
	}
	return img.Name
}

// Run starts the interactive program.
func Run(ctx context.Context, session *app.Session, paths []string, load ImageLoader) error {
	p := tea.NewProgram(NewModel(ctx, session, paths, load), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
