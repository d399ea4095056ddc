package audio

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Параметры выходного формата: PCM WAV, оптимальный для распознавания речи.
const (
	outputSampleRate = 16000
	outputChannels   = 1
	outputCodec      = "pcm_s16le"

	convertTimeout = 60 * time.Second
)

// supportedFormats форматы голосовых сообщений Telegram и WhatsApp.
var supportedFormats = map[string]bool{
	".oga": true,
	".ogg": true,
	".m4a": true,
	".mp3": true,
	".wav": true,
}

// Converter конвертирует аудиофайлы в PCM WAV через ffmpeg.
type Converter struct {
	ffmpegPath string
}

// NewConverter проверяет наличие ffmpeg в системе.
func NewConverter() (*Converter, error) {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("audio: ffmpeg not found in PATH: %w", err)
	}
	return &Converter{ffmpegPath: path}, nil
}

// IsFormatSupported проверяет расширение файла по списку поддерживаемых.
func IsFormatSupported(filePath string) bool {
	return supportedFormats[strings.ToLower(filepath.Ext(filePath))]
}

// Convert перекодирует входной файл в WAV 16kHz mono 16-bit.
// Возвращает путь к временному WAV-файлу; удаление — на вызывающем.
func (c *Converter) Convert(ctx context.Context, inputPath string) (string, error) {
	if _, err := os.Stat(inputPath); err != nil {
		return "", fmt.Errorf("audio: input file does not exist: %w", err)
	}

	if !IsFormatSupported(inputPath) {
		return "", fmt.Errorf("audio: unsupported format %q", filepath.Ext(inputPath))
	}

	outFile, err := os.CreateTemp("", "audio_conv_*.wav")
	if err != nil {
		return "", fmt.Errorf("audio: failed to create temp file: %w", err)
	}
	outputPath := outFile.Name()
	outFile.Close()

	ctx, cancel := context.WithTimeout(ctx, convertTimeout)
	defer cancel()

	log.Printf("Конвертация аудио: %s -> %s", inputPath, outputPath)
	cmd := exec.CommandContext(ctx, c.ffmpegPath,
		"-i", inputPath,
		"-ar", fmt.Sprint(outputSampleRate),
		"-ac", fmt.Sprint(outputChannels),
		"-acodec", outputCodec,
		"-y", outputPath,
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		Cleanup(outputPath)
		return "", fmt.Errorf("audio: ffmpeg failed: %w: %s", err, tail(string(output), 300))
	}

	info, err := os.Stat(outputPath)
	if err != nil || info.Size() == 0 {
		Cleanup(outputPath)
		return "", fmt.Errorf("audio: conversion produced empty output")
	}

	log.Printf("Аудио сконвертировано: %s (%d байт)", outputPath, info.Size())
	return outputPath, nil
}

// Cleanup удаляет временный файл, игнорируя отсутствие.
func Cleanup(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("Не удалось удалить временный файл %s: %v", filePath, err)
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
