package config

import (
	"os"
	"sync"
)

type GeminiConfig struct {
	APIKey        string
	DialogueModel string
	AnalysisModel string
}

var (
	geminiConfig *GeminiConfig
	geminiOnce   sync.Once
)

func LoadGeminiConfig() *GeminiConfig {
	geminiOnce.Do(func() {
		dialogueModel := os.Getenv("GEMINI_DIALOGUE_MODEL")
		if dialogueModel == "" {
			dialogueModel = "gemini-2.5-flash"
		}
		analysisModel := os.Getenv("GEMINI_ANALYSIS_MODEL")
		if analysisModel == "" {
			analysisModel = dialogueModel
		}
		geminiConfig = &GeminiConfig{
			APIKey:        os.Getenv("GEMINI_API_KEY"),
			DialogueModel: dialogueModel,
			AnalysisModel: analysisModel,
		}
	})
	return geminiConfig
}
