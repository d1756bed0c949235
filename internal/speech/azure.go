package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const requestTimeout = 30 * time.Second

// AzureSpeech implements Synthesizer and Transcriber against the Azure
// Cognitive Services speech REST endpoints.
type AzureSpeech struct {
	key      string
	region   string
	voice    string
	language string
	client   *resty.Client
	logger   *zap.Logger
}

// NewAzureSpeech builds an adapter. Missing credentials are not an error
// here; they surface as a configuration error on first use so the session
// can degrade to text-only instead of failing at boot.
func NewAzureSpeech(key, region, voice, language string, logger *zap.Logger) *AzureSpeech {
	if logger == nil {
		logger = zap.NewNop()
	}
	if voice == "" {
		voice = "en-US-JennyNeural"
	}
	if language == "" {
		language = "en-US"
	}
	return &AzureSpeech{
		key:      key,
		region:   region,
		voice:    voice,
		language: language,
		client:   resty.New().SetTimeout(requestTimeout),
		logger:   logger,
	}
}

func (a *AzureSpeech) checkConfig() error {
	if strings.TrimSpace(a.key) == "" || strings.TrimSpace(a.region) == "" {
		return errorf(KindConfiguration, "azure speech credentials not configured")
	}
	return nil
}

// Synthesize converts interviewer text into riff-16khz-16bit-mono-pcm
// audio. Input is validated before any network call.
func (a *AzureSpeech) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errorf(KindEmptyInput, "empty text provided for speech synthesis")
	}
	if err := a.checkConfig(); err != nil {
		return nil, err
	}

	ssml := fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		a.language, a.voice, escapeSSML(text),
	)

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", a.key).
		SetHeader("Content-Type", "application/ssml+xml").
		SetHeader("X-Microsoft-OutputFormat", "riff-16khz-16bit-mono-pcm").
		SetBody(ssml).
		Post(fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", a.region))
	if err != nil {
		return nil, errorf(KindSynthesisFailed, "synthesis request: %w", err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return nil, errorf(KindConfiguration, "synthesis rejected: status=%d", resp.StatusCode())
	}
	if resp.IsError() {
		return nil, errorf(KindSynthesisFailed, "synthesis failed: status=%d body=%s",
			resp.StatusCode(), truncate(resp.String(), 200))
	}
	audio := resp.Body()
	if len(audio) == 0 {
		return nil, errorf(KindSynthesisFailed, "synthesis returned no audio")
	}
	a.logger.Debug("synthesized speech",
		zap.Int("text_len", len(text)),
		zap.Int("audio_bytes", len(audio)))
	return audio, nil
}

// Transcribe converts a candidate voice recording into text. The recording
// is decoded, resampled to 16 kHz and clamp-converted to int16 before being
// sent to the recognizer. All failures are terminal for this one utterance
// only; the caller prompts a retry or falls back to typed input.
func (a *AzureSpeech) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", errorf(KindEmptyAudio, "empty audio data provided")
	}
	if err := a.checkConfig(); err != nil {
		return "", err
	}

	payload, err := prepareForRecognition(audio)
	if err != nil {
		return "", err
	}

	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Ocp-Apim-Subscription-Key", a.key).
		SetHeader("Content-Type", "audio/wav; codecs=audio/pcm; samplerate=16000").
		SetHeader("Accept", "application/json").
		SetBody(payload).
		Post(fmt.Sprintf(
			"https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1?language=%s&format=simple",
			a.region, a.language))
	if err != nil {
		return "", errorf(KindNotRecognized, "recognition request: %w", err)
	}
	if resp.StatusCode() == 401 || resp.StatusCode() == 403 {
		return "", errorf(KindConfiguration, "recognition rejected: status=%d", resp.StatusCode())
	}
	if resp.IsError() {
		return "", errorf(KindNotRecognized, "recognition failed: status=%d body=%s",
			resp.StatusCode(), truncate(resp.String(), 200))
	}

	body := resp.String()
	status := gjson.Get(body, "RecognitionStatus").String()
	text := strings.TrimSpace(gjson.Get(body, "DisplayText").String())

	switch status {
	case "Success":
		if text == "" {
			return "", errorf(KindNoSpeechDetected, "no speech detected in the audio")
		}
	case "InitialSilenceTimeout", "BabbleTimeout":
		return "", errorf(KindNoSpeechDetected, "recognizer reported %s", status)
	case "NoMatch":
		return "", errorf(KindNotRecognized, "speech could not be recognized")
	default:
		return "", errorf(KindNotRecognized, "recognition status %q", status)
	}

	a.logger.Debug("transcribed speech",
		zap.Int("audio_bytes", len(audio)),
		zap.Int("text_len", len(text)))
	return text, nil
}

func escapeSSML(text string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(text)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
