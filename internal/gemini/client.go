package gemini

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
)

// DefaultRequestTimeout таймаут одного запроса к Gemini.
const DefaultRequestTimeout = 30 * time.Second

// модель на язык; обе пока указывают на одну
var models = map[string]string{
	"ru": "gemini-pro",
	"kz": "gemini-pro",
}

// Client обёртка над клиентом Gemini с общей конфигурацией.
type Client struct {
	client         *genai.Client
	configModel    string // gemini.model из конфигурации, пусто если не задана
	requestTimeout time.Duration
}

// NewClient создаёт клиент Gemini из конфигурации (gemini.api_key, gemini.model).
func NewClient(ctx context.Context) (*Client, error) {
	apiKey := viper.GetString("gemini.api_key")
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	timeout := DefaultRequestTimeout
	if sec := viper.GetInt("gemini.request_timeout"); sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}

	log.Println("Клиент Gemini инициализирован")
	return &Client{
		client:         client,
		configModel:    strings.TrimSpace(viper.GetString("gemini.model")),
		requestTimeout: timeout,
	}, nil
}

// ModelFor возвращает имя модели для языка.
// Модель из конфигурации перекрывает таблицу языков.
func (c *Client) ModelFor(language string) string {
	if c.configModel != "" {
		return c.configModel
	}
	if m, ok := models[language]; ok {
		return m
	}
	return models["ru"]
}

// generateParams параметры генерации для одного запроса.
type generateParams struct {
	system      string
	temperature float32
	maxTokens   int32
}

// generate выполняет один запрос к модели и возвращает текст ответа.
func (c *Client) generate(ctx context.Context, language, prompt string, p generateParams) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.ModelFor(language))
	model.SetTemperature(p.temperature)
	model.SetTopP(0.95)
	model.SetTopK(40)
	if p.maxTokens > 0 {
		model.SetMaxOutputTokens(p.maxTokens)
	}
	model.SafetySettings = blockNoneSafetySettings()
	if strings.TrimSpace(p.system) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(p.system))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini: generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("gemini: empty content in response")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func blockNoneSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
	}
	settings := make([]*genai.SafetySetting, 0, len(categories))
	for _, cat := range categories {
		settings = append(settings, &genai.SafetySetting{
			Category:  cat,
			Threshold: genai.HarmBlockNone,
		})
	}
	return settings
}

// Ping проверяет доступность API дешёвым запросом подсчёта токенов.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.ModelFor("ru"))
	if _, err := model.CountTokens(ctx, genai.Text("ping")); err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	return nil
}

// Close освобождает ресурсы клиента.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}
