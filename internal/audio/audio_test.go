package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	speech "google.golang.org/api/speech/v1"
)

func TestIsFormatSupported(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"voice_123.oga", true},
		{"voice.OGG", true},
		{"/tmp/note.m4a", true},
		{"song.mp3", true},
		{"recording.wav", true},
		{"video.mp4", false},
		{"document.pdf", false},
		{"noext", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsFormatSupported(tt.path), "файл %q", tt.path)
	}
}

func TestMapLanguageCode(t *testing.T) {
	assert.Equal(t, "ru-RU", MapLanguageCode("ru"))
	assert.Equal(t, "kk-KZ", MapLanguageCode("kz"))
	assert.Equal(t, "kk-KZ", MapLanguageCode("KK"))
	assert.Equal(t, "ru-RU", MapLanguageCode("en"))
	assert.Equal(t, "ru-RU", MapLanguageCode(""))
}

func TestExtractTranscript(t *testing.T) {
	results := []*speech.SpeechRecognitionResult{
		{Alternatives: []*speech.SpeechRecognitionAlternative{
			{Transcript: "Хочу записаться"},
			{Transcript: "Хочу записать"},
		}},
		{Alternatives: []*speech.SpeechRecognitionAlternative{
			{Transcript: "к терапевту"},
		}},
		{Alternatives: nil},
	}

	transcript, err := extractTranscript(results)
	assert.NoError(t, err)
	assert.Equal(t, "Хочу записаться к терапевту", transcript)
}

func TestExtractTranscriptEmpty(t *testing.T) {
	_, err := extractTranscript(nil)
	assert.Error(t, err)

	_, err = extractTranscript([]*speech.SpeechRecognitionResult{
		{Alternatives: []*speech.SpeechRecognitionAlternative{{Transcript: "   "}}},
	})
	assert.Error(t, err)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "abc", tail("abc", 10))
	assert.Equal(t, "def", tail("abcdef", 3))
	assert.Equal(t, "abc", tail("  abc  ", 10))
}
