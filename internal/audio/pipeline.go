package audio

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/viper"
)

// ErrorLogger пишет ошибку пайплайна во внешний журнал (лист ошибок).
type ErrorLogger func(errorType, message, errContext string)

// Pipeline полный цикл обработки голосового сообщения:
// конвертация в WAV и распознавание речи, с журналированием сбоев.
type Pipeline struct {
	converter   *Converter
	transcriber *Transcriber
	logError    ErrorLogger
}

// NewPipeline собирает пайплайн. Недоступность ffmpeg или Speech API
// не является фатальной: пайплайн создаётся неактивным.
func NewPipeline(ctx context.Context, logError ErrorLogger) *Pipeline {
	p := &Pipeline{logError: logError}

	converter, err := NewConverter()
	if err != nil {
		log.Printf("Конвертер аудио недоступен: %v", err)
		p.reportError("audio_init_error", fmt.Sprintf("Converter initialization failed: %v", err), "NewPipeline")
	} else {
		p.converter = converter
	}

	transcriber, err := NewTranscriber(ctx, viper.GetString("audio.credentials"))
	if err != nil {
		log.Printf("Распознавание речи недоступно: %v", err)
		p.reportError("audio_init_error", fmt.Sprintf("Transcriber initialization failed: %v", err), "NewPipeline")
	} else {
		p.transcriber = transcriber
	}

	return p
}

// Available обе ступени пайплайна готовы к работе.
func (p *Pipeline) Available() bool {
	return p.converter != nil && p.transcriber != nil
}

// ProcessVoiceMessage конвертирует и распознаёт голосовое сообщение.
// Временный WAV-файл удаляется после распознавания.
func (p *Pipeline) ProcessVoiceMessage(ctx context.Context, audioFilePath, language string) (string, error) {
	if p.converter == nil {
		p.reportError("audio_unavailable", "Audio converter not initialized", "File: "+audioFilePath)
		return "", fmt.Errorf("audio: converter not available")
	}
	if p.transcriber == nil {
		p.reportError("audio_unavailable", "Speech transcriber not initialized", "File: "+audioFilePath)
		return "", fmt.Errorf("audio: transcriber not available")
	}

	convertedPath, err := p.converter.Convert(ctx, audioFilePath)
	if err != nil {
		p.reportError("audio_conversion_error", err.Error(),
			fmt.Sprintf("Input: %s, Language: %s", audioFilePath, language))
		return "", err
	}
	defer Cleanup(convertedPath)

	transcript, err := p.transcriber.Transcribe(ctx, convertedPath, language)
	if err != nil {
		p.reportError("transcription_error", err.Error(),
			fmt.Sprintf("File: %s, Language: %s", convertedPath, language))
		return "", err
	}
	return transcript, nil
}

func (p *Pipeline) reportError(errorType, message, errContext string) {
	if p.logError == nil {
		return
	}
	p.logError(errorType, message, errContext)
}
