package gemini

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vitaplus/vitabot/internal/i18n"
)

// RequestType тип запроса пользователя по результату классификации.
type RequestType string

const (
	RequestAppointmentBooking      RequestType = "appointment_booking"
	RequestAppointmentCancellation RequestType = "appointment_cancellation"
	RequestAppointmentRescheduling RequestType = "appointment_rescheduling"
	RequestScheduleInquiry         RequestType = "schedule_inquiry"
	RequestSpecialistInquiry       RequestType = "specialist_inquiry"
	RequestComplaint               RequestType = "complaint"
	RequestFeedback                RequestType = "feedback"
	RequestGeneralInquiry          RequestType = "general_inquiry"
	RequestOther                   RequestType = "other"
)

// UrgencyLevel уровень срочности запроса.
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "low"
	UrgencyMedium UrgencyLevel = "medium"
	UrgencyHigh   UrgencyLevel = "high"
)

var validRequestTypes = map[RequestType]bool{
	RequestAppointmentBooking:      true,
	RequestAppointmentCancellation: true,
	RequestAppointmentRescheduling: true,
	RequestScheduleInquiry:         true,
	RequestSpecialistInquiry:       true,
	RequestComplaint:               true,
	RequestFeedback:                true,
	RequestGeneralInquiry:          true,
	RequestOther:                   true,
}

var validUrgencyLevels = map[UrgencyLevel]bool{
	UrgencyLow:    true,
	UrgencyMedium: true,
	UrgencyHigh:   true,
}

// Classification структурированный результат классификации запроса.
type Classification struct {
	RequestType          RequestType  `json:"request_type"`
	Urgency              UrgencyLevel `json:"urgency"`
	SpecialistSuggestion string       `json:"specialist_suggestion,omitempty"`
	Confidence           float64      `json:"confidence"`
	Reasoning            string       `json:"reasoning,omitempty"`
}

// Response результат генерации ответа.
type Response struct {
	Text       string
	IsFallback bool
	Err        error
}

// NotifierFunc вызывается при невосстановимой ошибке сервиса.
type NotifierFunc func(service, errorMsg string)

var jsonBlockRe = regexp.MustCompile(`\{[\s\S]*\}`)

// Analyzer классифицирует запросы и генерирует ответы через Gemini,
// кэшируя классификации по хэшу сообщения и языку.
type Analyzer struct {
	client   *Client
	cache    *gocache.Cache
	notifier NotifierFunc
}

// NewAnalyzer создаёт анализатор с TTL-кэшем классификаций.
func NewAnalyzer(client *Client, cacheTTL time.Duration, notifier NotifierFunc) *Analyzer {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Analyzer{
		client:   client,
		cache:    gocache.New(cacheTTL, 10*time.Minute),
		notifier: notifier,
	}
}

func cacheKey(message, language string) string {
	sum := md5.Sum([]byte(message))
	return hex.EncodeToString(sum[:]) + ":" + language
}

// ClassifyRequest определяет тип и срочность запроса пользователя.
// При ошибке API возвращается fallback-классификация, а не ошибка.
func (a *Analyzer) ClassifyRequest(ctx context.Context, userMessage, language string) Classification {
	key := cacheKey(userMessage, language)
	if cached, ok := a.cache.Get(key); ok {
		return cached.(Classification)
	}

	text, err := a.client.generate(ctx, language, userMessage, generateParams{
		system:      classificationPrompt(language),
		temperature: 0.3,
		maxTokens:   300,
	})
	if err != nil {
		log.Printf("Не удалось классифицировать запрос: %v", err)
		a.notify(fmt.Sprintf("Classification error: %v", err))
		fallback := Classification{
			RequestType: RequestGeneralInquiry,
			Urgency:     UrgencyMedium,
			Confidence:  0,
			Reasoning:   "Fallback due to API error",
		}
		a.cache.SetDefault(key, fallback)
		return fallback
	}

	result := parseClassification(text)
	a.cache.SetDefault(key, result)
	return result
}

// GenerateResponse генерирует ответ на сообщение пользователя.
// extra — дополнительный контекст (специалисты, записи), попадает в системный промпт.
func (a *Analyzer) GenerateResponse(ctx context.Context, message string, extra map[string]interface{}, language string) Response {
	text, err := a.client.generate(ctx, language, message, generateParams{
		system:      responsePrompt(language, extra),
		temperature: 0.7,
		maxTokens:   500,
	})
	if err != nil {
		log.Printf("Не удалось сгенерировать ответ: %v", err)
		a.notify(fmt.Sprintf("Response generation error: %v", err))
		return Response{
			Text:       i18n.GetText("gemini.fallback_response", language),
			IsFallback: true,
			Err:        err,
		}
	}
	return Response{Text: text}
}

// SummarizeComplaint делает краткое резюме длинной жалобы или отзыва.
func (a *Analyzer) SummarizeComplaint(ctx context.Context, longText, language string) Response {
	text, err := a.client.generate(ctx, language, longText, generateParams{
		system:      summaryPrompt(language),
		temperature: 0.5,
		maxTokens:   300,
	})
	if err != nil {
		log.Printf("Не удалось создать резюме: %v", err)
		a.notify(fmt.Sprintf("Summary error: %v", err))
		return Response{
			Text:       i18n.GetText("gemini.fallback_summary", language),
			IsFallback: true,
			Err:        err,
		}
	}
	return Response{Text: text}
}

// ClearCache сбрасывает кэш классификаций.
func (a *Analyzer) ClearCache() {
	a.cache.Flush()
	log.Println("Кэш классификаций очищен")
}

// CacheSize количество записей в кэше классификаций.
func (a *Analyzer) CacheSize() int {
	return a.cache.ItemCount()
}

func (a *Analyzer) notify(errorMsg string) {
	if a.notifier == nil {
		return
	}
	a.notifier("gemini", errorMsg)
}

// parseClassification извлекает JSON из ответа модели.
// Невалидный или отсутствующий JSON даёт общую классификацию.
func parseClassification(responseText string) Classification {
	match := jsonBlockRe.FindString(responseText)
	if match == "" {
		log.Printf("JSON не найден в ответе модели: %q", responseText)
		return Classification{
			RequestType: RequestGeneralInquiry,
			Urgency:     UrgencyMedium,
			Confidence:  0.5,
		}
	}

	var raw struct {
		RequestType          string  `json:"request_type"`
		Urgency              string  `json:"urgency"`
		SpecialistSuggestion string  `json:"specialist_suggestion"`
		Confidence           float64 `json:"confidence"`
		Reasoning            string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(match), &raw); err != nil {
		log.Printf("Не удалось разобрать классификацию: %v", err)
		return Classification{
			RequestType: RequestGeneralInquiry,
			Urgency:     UrgencyMedium,
			Confidence:  0.5,
			Reasoning:   "Parsing error",
		}
	}

	result := Classification{
		RequestType:          RequestType(raw.RequestType),
		Urgency:              UrgencyLevel(raw.Urgency),
		SpecialistSuggestion: raw.SpecialistSuggestion,
		Confidence:           raw.Confidence,
		Reasoning:            raw.Reasoning,
	}
	if !validRequestTypes[result.RequestType] {
		result.RequestType = RequestOther
	}
	if !validUrgencyLevels[result.Urgency] {
		result.Urgency = UrgencyMedium
	}
	if raw.Confidence == 0 && result.Reasoning == "" {
		result.Confidence = 0.5
	}
	return result
}

func classificationPrompt(language string) string {
	if language == "kz" {
		return `Сіз клиника әкімшісінің көмекшісісіз.
Пайдаланушының хабарламасын талдап, жауапты JSON форматында беріңіз:

{
  "request_type": біреуі: appointment_booking, appointment_cancellation, appointment_rescheduling, schedule_inquiry, specialist_inquiry, complaint, feedback, general_inquiry, other
  "urgency": біреуі: low, medium, high
  "specialist_suggestion": ұсынылатын мамандық немесе null
  "confidence": 0-ден 1-ге дейінгі сан
  "reasoning": қысқаша негіздеме
}`
	}
	return `Вы помощник администратора клиники.
Проанализируйте сообщение пользователя и дайте ответ в формате JSON:

{
  "request_type": одна из: appointment_booking, appointment_cancellation, appointment_rescheduling, schedule_inquiry, specialist_inquiry, complaint, feedback, general_inquiry, other
  "urgency": одна из: low, medium, high
  "specialist_suggestion": рекомендуемая специальность или null
  "confidence": число от 0 до 1
  "reasoning": краткое обоснование
}`
}

func responsePrompt(language string, extra map[string]interface{}) string {
	contextStr := ""
	if len(extra) > 0 {
		if data, err := json.MarshalIndent(extra, "", "  "); err == nil {
			contextStr = "\n\nКонтекст: " + string(data)
		}
	}

	if language == "kz" {
		return `Сіз клиника әкімшісісіз.
Сыпайы, ресми, бірақ жылы жауап беріңіз.
Клиенттерге сұрақтарын шешуге көмектесіңіз.` + contextStr
	}
	return `Вы администратор клиники.
Отвечайте вежливо, официально, но дружелюбно.
Помогайте клиентам с их запросами.` + contextStr
}

func summaryPrompt(language string) string {
	if language == "kz" {
		return `Мәтіннің 1-2 сөйлемнен тұратын қысқаша түйіндемесін жасаңыз. Көрсетіңіз:
- Негізгі мәні:
- Проблемалық сала:
- Қажетті әрекет:`
	}
	return `Сделайте краткое резюме текста в 1-2 предложения. Укажите:
- Основная суть:
- Проблемная область:
- Требуемое действие:`
}
