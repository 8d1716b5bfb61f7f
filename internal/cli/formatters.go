package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/agroscan/agroscan-bot/internal/domain/entity"
)

const (
	OutputHuman = "human"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// diagnosisOutput is the machine readable form of a final view.
type diagnosisOutput struct {
	Status entity.Status          `json:"status" yaml:"status"`
	Image  string                 `json:"image,omitempty" yaml:"image,omitempty"`
	Error  string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Result *entity.AnalysisResult `json:"result,omitempty" yaml:"result,omitempty"`
}

func toOutput(view entity.View) diagnosisOutput {
	out := diagnosisOutput{Status: view.Status()}
	switch v := view.(type) {
	case entity.IdleView:
		if v.Image != nil {
			out.Image = v.Image.Name
		}
	case entity.ErrorView:
		out.Error = v.Message
	case entity.SuccessView:
		if v.Image != nil {
			out.Image = v.Image.Name
		}
		out.Result = v.Result
	}
	return out
}

// displayView writes the view in the requested format
func displayView(w io.Writer, view entity.View, format string) error {
	switch format {
	case OutputJSON:
		return displayJSON(w, toOutput(view))
	case OutputYAML:
		return displayYAML(w, toOutput(view))
	case OutputHuman, "":
		displayHuman(w, view)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (use human, json or yaml)", format)
	}
}

func displayJSON(w io.Writer, out diagnosisOutput) error {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func displayYAML(w io.Writer, out diagnosisOutput) error {
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(data))
	return err
}

var languageTitles = map[entity.Language]string{
	entity.LanguageEnglish: "🇬🇧 ENGLISH",
	entity.LanguageTelugu:  "🇮🇳 తెలుగు",
}

func displayHuman(w io.Writer, view entity.View) {
	red := color.New(color.FgRed, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)

	fmt.Fprintln(w)
	switch v := view.(type) {
	case entity.ErrorView:
		red.Fprintf(w, "⚠️  %s\n", v.Message)
	case entity.LoadingView:
		yellow.Fprintln(w, "⏳ Still analyzing...")
	case entity.IdleView:
		fmt.Fprintln(w, "📸 No diagnosis yet.")
	case entity.SuccessView:
		green.Fprintln(w, "🌿 DIAGNOSIS")
		for _, lang := range entity.Languages {
			c := v.Result.Content(lang)
			fmt.Fprintln(w)
			cyan.Fprintln(w, languageTitles[lang])
			fmt.Fprintf(w, "   Disease:        %s\n", orDash(c.Disease))
			fmt.Fprintf(w, "   Pesticide:      %s\n", orDash(c.Pesticide))
			fmt.Fprintf(w, "   Recommendation: %s\n", orDash(c.Recommendation))
		}
	}
	fmt.Fprintln(w)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "—"
	}
	return s
}
