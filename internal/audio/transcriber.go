package audio

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"google.golang.org/api/option"
	speech "google.golang.org/api/speech/v1"
)

// maxSyncFileSize предел размера для синхронного распознавания.
const maxSyncFileSize = 10 * 1024 * 1024

// languageMap коды языков системы -> коды Google Cloud Speech.
var languageMap = map[string]string{
	"ru": "ru-RU",
	"kz": "kk-KZ",
	"kk": "kk-KZ",
}

// Transcriber распознаёт речь через Google Cloud Speech-to-Text.
type Transcriber struct {
	service *speech.Service
}

// NewTranscriber создаёт клиент распознавания речи.
// credentialsPath может быть пустым: тогда используются умолчания окружения.
func NewTranscriber(ctx context.Context, credentialsPath string) (*Transcriber, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		if _, err := os.Stat(credentialsPath); err == nil {
			opts = append(opts, option.WithCredentialsFile(credentialsPath))
			log.Printf("Используются реквизиты Google Cloud: %s", credentialsPath)
		} else {
			log.Printf("Файл реквизитов %s не найден, используются умолчания окружения", credentialsPath)
		}
	}

	service, err := speech.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("audio: failed to create speech service: %w", err)
	}
	return &Transcriber{service: service}, nil
}

// MapLanguageCode переводит код языка системы в код Google Cloud.
func MapLanguageCode(language string) string {
	if code, ok := languageMap[strings.ToLower(language)]; ok {
		return code
	}
	return "ru-RU"
}

// Transcribe распознаёт WAV-файл и возвращает текст.
// Файлы крупнее 10 МБ уходят в длительное распознавание с опросом операции.
func (t *Transcriber) Transcribe(ctx context.Context, audioFilePath, language string) (string, error) {
	content, err := os.ReadFile(audioFilePath)
	if err != nil {
		return "", fmt.Errorf("audio: failed to read file: %w", err)
	}
	log.Printf("Распознавание аудио: %s (%.1f КБ, язык %s)",
		audioFilePath, float64(len(content))/1024, language)

	config := &speech.RecognitionConfig{
		Encoding:                   "LINEAR16",
		SampleRateHertz:            outputSampleRate,
		LanguageCode:               MapLanguageCode(language),
		EnableAutomaticPunctuation: true,
		Model:                      "default",
		UseEnhanced:                true,
	}
	encoded := base64.StdEncoding.EncodeToString(content)

	if len(content) <= maxSyncFileSize {
		return t.recognizeSync(ctx, config, encoded)
	}
	return t.recognizeLongRunning(ctx, config, encoded)
}

func (t *Transcriber) recognizeSync(ctx context.Context, config *speech.RecognitionConfig, content string) (string, error) {
	resp, err := t.service.Speech.Recognize(&speech.RecognizeRequest{
		Config: config,
		Audio:  &speech.RecognitionAudio{Content: content},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("audio: recognition failed: %w", err)
	}
	return extractTranscript(resp.Results)
}

func (t *Transcriber) recognizeLongRunning(ctx context.Context, config *speech.RecognitionConfig, content string) (string, error) {
	op, err := t.service.Speech.Longrunningrecognize(&speech.LongRunningRecognizeRequest{
		Config: config,
		Audio:  &speech.RecognitionAudio{Content: content},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("audio: long-running recognition failed: %w", err)
	}

	log.Println("Ожидание завершения длительного распознавания")
	for !op.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(5 * time.Second):
		}
		op, err = t.service.Operations.Get(op.Name).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("audio: failed to poll operation: %w", err)
		}
	}

	if op.Error != nil {
		return "", fmt.Errorf("audio: recognition operation failed: %s", op.Error.Message)
	}

	var result speech.LongRunningRecognizeResponse
	if err := json.Unmarshal(op.Response, &result); err != nil {
		return "", fmt.Errorf("audio: failed to decode operation response: %w", err)
	}
	return extractTranscript(result.Results)
}

// extractTranscript склеивает лучшие альтернативы всех фрагментов.
func extractTranscript(results []*speech.SpeechRecognitionResult) (string, error) {
	var parts []string
	for _, result := range results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}
	transcript := strings.TrimSpace(strings.Join(parts, " "))
	if transcript == "" {
		return "", fmt.Errorf("audio: no transcript produced")
	}
	log.Printf("Распознавание завершено: %d символов", len([]rune(transcript)))
	return transcript, nil
}
