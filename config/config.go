package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding without it.")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found. Creating a default config file.")
			createDefaultConfig()
		} else {
			log.Fatalf("Error reading config file: %v", err)
		}
	} else {
		log.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func createDefaultConfig() {
	viper.SetDefault("node.mode", os.Getenv("NODE_MODE"))

	viper.SetDefault("telegram.token", os.Getenv("TELEGRAM_BOT_TOKEN"))

	viper.SetDefault("database.host", os.Getenv("DB_HOST"))
	viper.SetDefault("database.port", os.Getenv("DB_PORT"))
	viper.SetDefault("database.user", os.Getenv("DB_USER"))
	viper.SetDefault("database.password", os.Getenv("DB_PASSWORD"))
	viper.SetDefault("database.name", os.Getenv("DB_NAME"))
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 3600)
	viper.SetDefault("cache.host", os.Getenv("REDIS_HOST"))

	viper.SetDefault("gemini.api_key", os.Getenv("GEMINI_API_KEY"))
	viper.SetDefault("gemini.model", "gemini-pro")
	viper.SetDefault("gemini.request_timeout", 30)
	viper.SetDefault("gemini.cache_ttl", 3600)

	viper.SetDefault("sheets.spreadsheet_id", os.Getenv("GOOGLE_SHEETS_ID"))
	viper.SetDefault("sheets.service_account", os.Getenv("SERVICE_ACCOUNT_JSON_PATH"))

	viper.SetDefault("twilio.account_sid", os.Getenv("TWILIO_ACCOUNT_SID"))
	viper.SetDefault("twilio.auth_token", os.Getenv("TWILIO_AUTH_TOKEN"))
	viper.SetDefault("twilio.whatsapp_from", os.Getenv("TWILIO_WHATSAPP_FROM"))
	viper.SetDefault("instagram.access_token", os.Getenv("INSTAGRAM_ACCESS_TOKEN"))

	viper.SetDefault("audio.credentials", os.Getenv("GOOGLE_CLOUD_CREDENTIALS_PATH"))

	viper.SetDefault("notifications.retry_attempts", 3)
	viper.SetDefault("notifications.retry_delay_min", 2)
	viper.SetDefault("notifications.retry_delay_max", 10)
	viper.SetDefault("notifications.digest_hour", 8)
	viper.SetDefault("notifications.digest_minute", 0)

	viper.SetDefault("health.check_interval", 300)
	viper.SetDefault("session.max_age_seconds", 86400)

	viper.SetDefault("admin.ids", os.Getenv("ADMIN_IDS"))

	if err := viper.SafeWriteConfig(); err != nil {
		log.Fatalf("Error writing default config file: %v", err)
	}

	log.Println("Default config file created. Please edit it with your settings and restart the application.")
	os.Exit(0)
}

// AdminIDs возвращает список Telegram ID администраторов из "admin.ids"
// (значения через запятую).
func AdminIDs() []int64 {
	raw := viper.GetString("admin.ids")
	if raw == "" {
		return nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Printf("Invalid admin id %q: %v", part, err)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func IsAdmin(userID int64) bool {
	for _, id := range AdminIDs() {
		if id == userID {
			return true
		}
	}
	return false
}
