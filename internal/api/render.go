package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/agroscan/agroscan-bot/internal/domain/entity"
)

const (
	callbackAnalyze = "analyze"
	callbackReset   = "reset"

	btnAnalyze  = "🔍 Analyze"
	btnTryAgain = "🔄 Try Again"
	btnNewScan  = "📸 New scan"
)

const (
	msgUpload      = "📸 Send a clear photo of a single crop leaf and I will look for diseases."
	msgReadyToScan = "✅ Photo received. Tap Analyze to diagnose it, or send another photo to replace it."
	msgAnalyzing   = "⏳ Analyzing the leaf, this usually takes a few seconds..."
	msgResultTitle = "🌿 Diagnosis"
	emptyField     = "—"
)

type fieldLabels struct {
	heading        string
	disease        string
	pesticide      string
	recommendation string
}

var labels = map[entity.Language]fieldLabels{
	entity.LanguageEnglish: {"🇬🇧 English", "Disease", "Pesticide", "Recommendation"},
	entity.LanguageTelugu:  {"🇮🇳 తెలుగు", "వ్యాధి", "పురుగుమందు", "సిఫార్సు"},
}

// reply is everything a view turns into in the chat.
type reply struct {
	Photo    *entity.Image
	Text     string
	Keyboard *tgbotapi.InlineKeyboardMarkup
}

// renderView maps the session view onto one chat reply.
func renderView(v entity.View) reply {
	switch view := v.(type) {
	case entity.LoadingView:
		return reply{Text: msgAnalyzing}
	case entity.ErrorView:
		return reply{Text: "⚠️ " + view.Message, Keyboard: keyboard(btnTryAgain, callbackReset)}
	case entity.SuccessView:
		return reply{Photo: view.Image, Text: formatResult(view.Result), Keyboard: keyboard(btnNewScan, callbackReset)}
	case entity.IdleView:
		if view.CanAnalyze() {
			return reply{Text: msgReadyToScan, Keyboard: keyboard(btnAnalyze, callbackAnalyze)}
		}
		return reply{Text: msgUpload}
	default:
		return reply{Text: msgUpload}
	}
}

func keyboard(text, data string) *tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data)),
	)
	return &markup
}

func formatResult(result *entity.AnalysisResult) string {
	var b strings.Builder
	b.WriteString(msgResultTitle)
	for _, lang := range entity.Languages {
		l := labels[lang]
		c := result.Content(lang)
		fmt.Fprintf(&b, "\n\n%s\n%s: %s\n%s: %s\n%s: %s",
			l.heading,
			l.disease, orDash(c.Disease),
			l.pesticide, orDash(c.Pesticide),
			l.recommendation, orDash(c.Recommendation))
	}
	return b.String()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return emptyField
	}
	return s
}
