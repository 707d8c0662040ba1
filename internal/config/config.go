package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	APIAddr           string
	TemporalAddress   string
	TemporalTaskQueue string
	PostgresURL       string
	RedisURL          string
	SessionTTL        time.Duration
	DataInRoot        string
	DataOutRoot       string
	ChunkSize         int
	ChunkOverlap      int
	LLMChunking       bool
	EmbedDim          int
	LLMProviders      string
	EmbedProviders    string
	TTSProvider       string
	MurfBaseURL       string
	MurfVoiceID       string
	TavilyBaseURL     string
	ArxivBaseURL      string
	PersistMode       string
	QueueWorkers      int
	QueueSize         int
	HistoryLimit      int
	SummaryEvery      int
	RetrievalK        int
	ContextMaxChars   int
	SandboxTimeout    time.Duration
	DefaultTemp       float64
	LogFile           string
	LogProduction     bool
}

func Load() Config {
	return Config{
		APIAddr:           getenv("VOXLIT_API_ADDR", ":8080"),
		TemporalAddress:   getenv("VOXLIT_TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalTaskQueue: getenv("VOXLIT_TEMPORAL_TASK_QUEUE", "voxlit"),
		PostgresURL:       getenv("VOXLIT_POSTGRES_URL", ""),
		RedisURL:          getenv("VOXLIT_REDIS_URL", ""),
		SessionTTL:        time.Duration(getenvInt("VOXLIT_SESSION_TTL_SECONDS", 0)) * time.Second,
		DataInRoot:        getenv("VOXLIT_DATA_IN", "./data/in"),
		DataOutRoot:       getenv("VOXLIT_DATA_OUT", "./data/out"),
		ChunkSize:         getenvInt("VOXLIT_CHUNK_SIZE", 1200),
		ChunkOverlap:      getenvInt("VOXLIT_CHUNK_OVERLAP", 200),
		LLMChunking:       getenvBool("VOXLIT_LLM_CHUNKING", true),
		EmbedDim:          getenvInt("VOXLIT_EMBED_DIM", 1536),
		LLMProviders:      getenv("VOXLIT_LLM_PROVIDERS", "mock"),
		EmbedProviders:    getenv("VOXLIT_EMBED_PROVIDERS", "mock"),
		TTSProvider:       strings.ToLower(getenv("VOXLIT_TTS_PROVIDER", "mock")),
		MurfBaseURL:       getenv("VOXLIT_MURF_BASE_URL", "https://global.api.murf.ai"),
		MurfVoiceID:       getenv("VOXLIT_MURF_VOICE_ID", "en-IN-nikhil"),
		TavilyBaseURL:     getenv("VOXLIT_TAVILY_BASE_URL", "https://api.tavily.com"),
		ArxivBaseURL:      getenv("VOXLIT_ARXIV_BASE_URL", "http://export.arxiv.org"),
		PersistMode:       strings.ToLower(getenv("VOXLIT_PERSIST_MODE", "queue")),
		QueueWorkers:      getenvInt("VOXLIT_QUEUE_WORKERS", 2),
		QueueSize:         getenvInt("VOXLIT_QUEUE_SIZE", 64),
		HistoryLimit:      getenvInt("VOXLIT_HISTORY_LIMIT", 20),
		SummaryEvery:      getenvInt("VOXLIT_SUMMARY_EVERY", 5),
		RetrievalK:        getenvInt("VOXLIT_RETRIEVAL_K", 5),
		ContextMaxChars:   getenvInt("VOXLIT_CONTEXT_MAX_CHARS", 4000),
		SandboxTimeout:    time.Duration(getenvInt("VOXLIT_SANDBOX_TIMEOUT_MS", 2000)) * time.Millisecond,
		DefaultTemp:       getenvFloat("VOXLIT_DEFAULT_TEMPERATURE", 0.5),
		LogFile:           getenv("VOXLIT_LOG_FILE", "./logs/voxlit.log"),
		LogProduction:     getenvBool("VOXLIT_LOG_PRODUCTION", false),
	}
}

// UseTemporal reports whether tool results are persisted through Temporal
// workflows rather than the in-process queue.
func (c Config) UseTemporal() bool {
	return c.PersistMode == "temporal"
}

func getenv(k, fallback string) string {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	return v
}

func getenvInt(k string, fallback int) int {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(k string, fallback float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(k string, fallback bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
