package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModelForUsesLanguageTable(t *testing.T) {
	c := &Client{}

	assert.Equal(t, models["ru"], c.ModelFor("ru"))
	assert.Equal(t, models["kz"], c.ModelFor("kz"))
	// Неизвестный язык откатывается к русской модели
	assert.Equal(t, models["ru"], c.ModelFor("en"))
}

func TestModelForPrefersConfiguredModel(t *testing.T) {
	c := &Client{configModel: "gemini-1.5-flash"}

	assert.Equal(t, "gemini-1.5-flash", c.ModelFor("ru"))
	assert.Equal(t, "gemini-1.5-flash", c.ModelFor("kz"))
	assert.Equal(t, "gemini-1.5-flash", c.ModelFor("en"))
}
