package speech

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
)

// openaiSynthesizer calls the OpenAI speech endpoint through the official
// SDK. Narrator voice ids from the catalog are mapped onto the closest
// OpenAI voices so stories keep a comparable character across providers.
type openaiSynthesizer struct {
	client openaiclient.Client
}

func newOpenAISynthesizer(apiKey, endpoint string) *openaiSynthesizer {
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(strings.TrimSpace(apiKey)),
		openaioption.WithMaxRetries(0),
	}
	if ep := strings.TrimSpace(endpoint); ep != "" {
		opts = append(opts, openaioption.WithBaseURL(ep))
	}
	return &openaiSynthesizer{client: openaiclient.NewClient(opts...)}
}

var openaiVoiceByCatalogID = map[string]openaiclient.AudioSpeechNewParamsVoice{
	"pqHfZKP75CvOlQylNhV4": openaiclient.AudioSpeechNewParamsVoice("onyx"), // Bill
	"21m00Tcm4TlvDq8ikWAM": openaiclient.AudioSpeechNewParamsVoice("nova"), // Rachel
	"N2lVS1w4EtoT3dr4eOWO": openaiclient.AudioSpeechNewParamsVoiceEcho, // Callum
}

func (s *openaiSynthesizer) Synthesize(ctx context.Context, text, voiceID string, speed float64) (*Audio, error) {
	voice, ok := openaiVoiceByCatalogID[voiceID]
	if !ok {
		voice = openaiclient.AudioSpeechNewParamsVoiceAlloy
	}

	resp, err := s.client.Audio.Speech.New(ctx, openaiclient.AudioSpeechNewParams{
		Model:          openaiclient.SpeechModelGPT4oMiniTTS,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openaiclient.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openaiclient.Float(speed),
	})
	if err != nil {
		return nil, fmt.Errorf("openai speech: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai speech error %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai speech read body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("openai speech returned empty audio")
	}
	return &Audio{Data: data, MIMEType: AudioMIMEType}, nil
}
