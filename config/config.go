package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Server      ServerConfig
	Redis       RedisConfig
	Ethereum    EthereumConfig
	DEX         DEXConfig
	Routing     RoutingConfig
	Performance PerformanceConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Backend selects the pool store: "memory", "redis" or "two-level".
	Backend string
}

type EthereumConfig struct {
	ChainID uint64
}

type DEXConfig struct {
	BaseTokens []string
}

// RoutingConfig holds the knobs that bound the quoting engine's runtime.
type RoutingConfig struct {
	MaxHops            int     `json:"max_hops"`
	MaxSplitRoutes     int     `json:"max_split_routes"`
	SplitIterations    int     `json:"split_iterations"`
	MaxConcurrentPaths int     `json:"max_concurrent_paths"`
	MinLiquidityUSD    float64 `json:"min_liquidity_usd"`
	BaseFeeGwei        float64 `json:"base_fee_gwei"`
	PriorityFeeGwei    float64 `json:"priority_fee_gwei"`
}

type PerformanceConfig struct {
	CacheTTL       time.Duration `json:"cache_ttl"`
	RequestTimeout time.Duration `json:"request_timeout"`
}

type LogConfig struct {
	Level  string
	Pretty bool
}

var AppConfig *Config

func Init() error {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, using environment variables")
	}

	AppConfig = &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Backend:  getEnv("STORE_BACKEND", "memory"),
		},
		Ethereum: EthereumConfig{
			ChainID: getEnvAsUint64("ETH_CHAIN_ID", 1),
		},
		DEX: DEXConfig{
			BaseTokens: getEnvAsSlice("BASE_TOKENS", ",", []string{
				"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
				"0xdac17f958d2ee523a2206206994597c13d831ec7",
				"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
				"0x6b175474e89094c44da98b954eedeac495271d0f",
			}),
		},
		Routing: DefaultRoutingConfig(),
		Performance: PerformanceConfig{
			CacheTTL:       time.Duration(getEnvAsInt("CACHE_TTL_SECONDS", 300)) * time.Second,
			RequestTimeout: time.Duration(getEnvAsInt("REQUEST_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
	}

	return nil
}

// DefaultRoutingConfig reads the routing section from the environment,
// falling back to the engine defaults.
func DefaultRoutingConfig() RoutingConfig {
	return RoutingConfig{
		MaxHops:            getEnvAsInt("MAX_HOPS", 3),
		MaxSplitRoutes:     getEnvAsInt("MAX_SPLIT_ROUTES", 5),
		SplitIterations:    getEnvAsInt("SPLIT_ITERATIONS", 100),
		MaxConcurrentPaths: getEnvAsInt("MAX_CONCURRENT_PATHS", 10),
		MinLiquidityUSD:    getEnvAsFloat("MIN_POOL_LIQUIDITY_USD", 1000),
		BaseFeeGwei:        getEnvAsFloat("BASE_FEE_GWEI", 20),
		PriorityFeeGwei:    getEnvAsFloat("PRIORITY_FEE_GWEI", 1),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseUint(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key, separator string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
