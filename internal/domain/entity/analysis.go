package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Language identifies one of the two fixed result variants.
type Language string

const (
	LanguageEnglish Language = "english"
	LanguageTelugu  Language = "telugu"
)

// Languages lists the variants in display order.
var Languages = []Language{LanguageEnglish, LanguageTelugu}

// AnalysisContent is the diagnosis in a single language.
type AnalysisContent struct {
	Disease        string `json:"disease" yaml:"disease"`
	Pesticide      string `json:"pesticide" yaml:"pesticide"`
	Recommendation string `json:"recommendation" yaml:"recommendation"`
}

// AnalysisResult is the diagnosis returned by the analysis service.
// Both variants are always present together.
type AnalysisResult struct {
	English AnalysisContent `json:"english" yaml:"english"`
	Telugu  AnalysisContent `json:"telugu" yaml:"telugu"`
}

// ErrIncompleteResult is returned by Validate for partially populated results.
var ErrIncompleteResult = errors.New("incomplete analysis result")

// Content returns the variant for the given language.
func (r *AnalysisResult) Content(lang Language) AnalysisContent {
	if lang == LanguageTelugu {
		return r.Telugu
	}
	return r.English
}

// Validate checks that both variants carry a disease and a recommendation.
func (r *AnalysisResult) Validate() error {
	if r == nil {
		return ErrIncompleteResult
	}
	for _, lang := range Languages {
		c := r.Content(lang)
		if strings.TrimSpace(c.Disease) == "" {
			return fmt.Errorf("%w: %s disease is empty", ErrIncompleteResult, lang)
		}
		if strings.TrimSpace(c.Recommendation) == "" {
			return fmt.Errorf("%w: %s recommendation is empty", ErrIncompleteResult, lang)
		}
	}
	return nil
}
