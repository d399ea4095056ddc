package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseClassificationValidJSON(t *testing.T) {
	text := "Вот результат анализа:\n" +
		`{"request_type": "appointment_booking", "urgency": "high", ` +
		`"specialist_suggestion": "терапевт", "confidence": 0.92, "reasoning": "просит записать"}`

	result := parseClassification(text)
	assert.Equal(t, RequestAppointmentBooking, result.RequestType)
	assert.Equal(t, UrgencyHigh, result.Urgency)
	assert.Equal(t, "терапевт", result.SpecialistSuggestion)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
}

func TestParseClassificationNoJSON(t *testing.T) {
	result := parseClassification("извините, не могу помочь")
	assert.Equal(t, RequestGeneralInquiry, result.RequestType)
	assert.Equal(t, UrgencyMedium, result.Urgency)
	assert.InDelta(t, 0.5, result.Confidence, 0.001)
}

func TestParseClassificationBrokenJSON(t *testing.T) {
	result := parseClassification(`{"request_type": "appointment_booking",`)
	assert.Equal(t, RequestGeneralInquiry, result.RequestType)
	assert.Equal(t, "Parsing error", result.Reasoning)
}

func TestParseClassificationUnknownValues(t *testing.T) {
	result := parseClassification(`{"request_type": "telepathy", "urgency": "extreme", "confidence": 0.8}`)
	// Неизвестные значения сводятся к безопасным
	assert.Equal(t, RequestOther, result.RequestType)
	assert.Equal(t, UrgencyMedium, result.Urgency)
	assert.InDelta(t, 0.8, result.Confidence, 0.001)
}

func TestParseClassificationJSONInsideMarkdown(t *testing.T) {
	text := "```json\n{\"request_type\": \"complaint\", \"urgency\": \"high\", \"confidence\": 0.7}\n```"
	result := parseClassification(text)
	assert.Equal(t, RequestComplaint, result.RequestType)
	assert.Equal(t, UrgencyHigh, result.Urgency)
}

func TestCacheKey(t *testing.T) {
	key1 := cacheKey("хочу записаться", "ru")
	key2 := cacheKey("хочу записаться", "ru")
	assert.Equal(t, key1, key2)

	// Язык входит в ключ
	assert.NotEqual(t, key1, cacheKey("хочу записаться", "kz"))
	assert.NotEqual(t, key1, cacheKey("другое сообщение", "ru"))
}

func TestAnalyzerCacheLifecycle(t *testing.T) {
	a := NewAnalyzer(nil, 0, nil)
	assert.Equal(t, 0, a.CacheSize())

	a.cache.SetDefault(cacheKey("тест", "ru"), Classification{RequestType: RequestFeedback})
	assert.Equal(t, 1, a.CacheSize())

	a.ClearCache()
	assert.Equal(t, 0, a.CacheSize())
}
