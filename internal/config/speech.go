package config

import (
	"os"
	"sync"
)

type SpeechConfig struct {
	Key      string
	Region   string
	Voice    string
	Language string
}

var (
	speechConfig *SpeechConfig
	speechOnce   sync.Once
)

func LoadSpeechConfig() *SpeechConfig {
	speechOnce.Do(func() {
		voice := os.Getenv("AZURE_SPEECH_VOICE")
		if voice == "" {
			voice = "en-US-JennyNeural"
		}
		language := os.Getenv("AZURE_SPEECH_LANGUAGE")
		if language == "" {
			language = "en-US"
		}
		speechConfig = &SpeechConfig{
			Key:      os.Getenv("AZURE_SPEECH_KEY"),
			Region:   os.Getenv("AZURE_SPEECH_REGION"),
			Voice:    voice,
			Language: language,
		}
	})
	return speechConfig
}
