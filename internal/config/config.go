package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Token        string  `env:"TOKEN,required,notEmpty"`
	AllowedUsers []int64 `env:"ALLOWED_USERS"`
	DBPath       string  `env:"DB_PATH"                 envDefault:"db.sqlite"`

	YandexAPIKey     string        `env:"YANDEX_API_KEY"`
	YandexFolderID   string        `env:"YANDEX_FOLDER_ID"`
	LLMBaseURL       string        `env:"LLM_BASE_URL"       envDefault:"https://llm.api.cloud.yandex.net/foundationModels/v1"`
	OperationBaseURL string        `env:"OPERATION_BASE_URL" envDefault:"https://operation.api.cloud.yandex.net"`
	PollInterval     time.Duration `env:"POLL_INTERVAL"      envDefault:"1s"`
	MaxPollAttempts  int           `env:"MAX_POLL_ATTEMPTS"  envDefault:"20"`
	HTTPTimeout      time.Duration `env:"HTTP_TIMEOUT"       envDefault:"30s"`

	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	DigestCronSpec string `env:"DIGEST_CRON_SPEC" envDefault:"0 8 * * *"`
}

func Load() (Config, error) {
	return env.ParseAs[Config]()
}
