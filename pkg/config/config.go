package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	LLM       LLMConfig
	GigaChat  GigaChatConfig
	Embedding EmbeddingConfig
	Retrieval RetrievalConfig
	Agent     AgentConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig describes the managed Postgres backend. URL wins over the
// discrete DB_* fields when set.
type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	SessionTTL time.Duration
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type AuthConfig struct {
	CredentialPrefix string
}

type LLMConfig struct {
	Provider     string
	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string
	Temperature  float32
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	Model              string
	InsecureSkipVerify bool
}

type EmbeddingConfig struct {
	Provider    string
	OpenAIModel string
	GeminiModel string
}

// RetrievalConfig names the remote match functions and views and carries
// the adapter defaults.
type RetrievalConfig struct {
	MatchThreshold     float64
	DefaultLimit       int
	DefaultMatchCount  int
	ComparisonLimit    int
	DocumentsFunction  string
	ThirdPartyFunction string
	ProposalsFunction  string
	SafeViewProcedure  string
	DocsViewProcedure  string
	InternalView       string
	InvoiceView        string
	ProposalView       string
}

type AgentConfig struct {
	InstructionsPath string
	MaxToolRounds    int
	HistorySize      int
}

func Load() (*Config, error) {
	// Try to load .env file from current directory or project root
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "120"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	sessionTTL, _ := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "120"))
	temperature, _ := strconv.ParseFloat(getEnv("LLM_TEMPERATURE", "0.3"), 32)
	threshold, _ := strconv.ParseFloat(getEnv("MATCH_THRESHOLD", "0.4"), 64)
	defaultLimit, _ := strconv.Atoi(getEnv("MATCH_LIMIT", "150"))
	matchCount, _ := strconv.Atoi(getEnv("MATCH_COUNT", "100"))
	comparisonLimit, _ := strconv.Atoi(getEnv("COMPARISON_LIMIT", "200"))
	maxRounds, _ := strconv.Atoi(getEnv("AGENT_MAX_TOOL_ROUNDS", "5"))
	historySize, _ := strconv.Atoi(getEnv("AGENT_HISTORY_SIZE", "12"))
	insecureSkipVerify := getEnv("GIGACHAT_INSECURE_SKIP_VERIFY", "true") == "true"

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "pricing"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:       getEnv("REDIS_ADDR", ""),
			Password:   getEnv("REDIS_PASSWORD", ""),
			DB:         redisDB,
			SessionTTL: time.Duration(sessionTTL) * time.Minute,
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Auth: AuthConfig{
			CredentialPrefix: getEnv("AUTH_CREDENTIAL_PREFIX", "PRICING_USER_"),
		},
		LLM: LLMConfig{
			Provider:     getEnv("LLM_PROVIDER", "openai"),
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			Temperature:  float32(temperature),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			Model:              getEnv("GIGACHAT_MODEL", "GigaChat"),
			InsecureSkipVerify: insecureSkipVerify,
		},
		Embedding: EmbeddingConfig{
			Provider:    getEnv("EMBEDDING_PROVIDER", "openai"),
			OpenAIModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			GeminiModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		},
		Retrieval: RetrievalConfig{
			MatchThreshold:     threshold,
			DefaultLimit:       defaultLimit,
			DefaultMatchCount:  matchCount,
			ComparisonLimit:    comparisonLimit,
			DocumentsFunction:  getEnv("MATCH_DOCUMENTS_FN", "match_documents"),
			ThirdPartyFunction: getEnv("MATCH_THIRDPARTY_FN", "match_thirdparty"),
			ProposalsFunction:  getEnv("MATCH_PROPOSALS_FN", "match_proposals"),
			SafeViewProcedure:  getEnv("EXEC_SAFE_VIEW_FN", "exec_safe_view"),
			DocsViewProcedure:  getEnv("EXEC_DOCUMENTS_VIEW_FN", "exec_documents_view"),
			InternalView:       getEnv("INTERNAL_SALES_VIEW", "vw_vendas_internas"),
			InvoiceView:        getEnv("THIRDPARTY_INVOICES_VIEW", "vw_notas_concorrentes"),
			ProposalView:       getEnv("THIRDPARTY_PROPOSALS_VIEW", "vw_propostas_concorrentes"),
		},
		Agent: AgentConfig{
			InstructionsPath: getEnv("AGENT_INSTRUCTIONS_PATH", ""),
			MaxToolRounds:    maxRounds,
			HistorySize:      historySize,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
