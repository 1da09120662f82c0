package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/ellifont/NFT-platform/internal/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env   string
	Index string
	Debug bool

	PlatformFeeBps    uint64
	FeeRecipient      string
	DefaultRoyaltyBps uint64

	ApiPort      string
	AdminToken   string
	AdminAddress string

	EngineAddress  string
	SingleContract string
	MultiContract  string

	MetadataRetries int
	MetadataTimeout int
	IpfsGateway     string

	MirrorEnabled bool
	QueueEnabled  bool

	Aws           AwsConfig
	ElasticSearch ElasticSearchConfig
}

type AwsConfig struct {
	AccessKey string
	SecretKey string
	Region    string
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	MappingDir       string
	BulkPersistCount int
	Refresh          string
}

func Init(service string) {
	if err := godotenv.Load(".env"); err != nil {
		zap.L().With(zap.Error(err)).Warn("Unable to load .env, using environment")
	}

	initLogger(service)
}

func initLogger(service string) {
	log.NewLogger(getString("LOG_PATH", "./var/"+service+".log"), Get().Debug)
}

func Get() *Config {
	return &Config{
		Env:               getString("ENV", ""),
		Index:             getString("INDEX_NAME", "marketplace"),
		Debug:             getBool("DEBUG", false),
		PlatformFeeBps:    getUint64("PLATFORM_FEE_BPS", 250),
		FeeRecipient:      getString("FEE_RECIPIENT", ""),
		DefaultRoyaltyBps: getUint64("DEFAULT_ROYALTY_BPS", 500),
		ApiPort:           getString("API_PORT", "8080"),
		AdminToken:        getString("ADMIN_TOKEN", ""),
		AdminAddress:      getString("ADMIN_ADDRESS", ""),
		EngineAddress:     getString("ENGINE_ADDRESS", "0x0000000000000000000000000000000000000e01"),
		SingleContract:    getString("SINGLE_CONTRACT", "0x0000000000000000000000000000000000000721"),
		MultiContract:     getString("MULTI_CONTRACT", "0x0000000000000000000000000000000000001155"),
		MetadataRetries:   getInt("METADATA_RETRIES", 3),
		MetadataTimeout:   getInt("METADATA_TIMEOUT", 10),
		IpfsGateway:       getString("IPFS_GATEWAY", "https://cloudflare-ipfs.com"),
		MirrorEnabled:     getBool("MIRROR_ENABLED", true),
		QueueEnabled:      getBool("QUEUE_ENABLED", false),
		Aws: AwsConfig{
			AccessKey: getString("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getString("AWS_SECRET_KEY_ID", ""),
			Region:    getString("AWS_REGION", ""),
		},
		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "/data/mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint64(key string, defaultValue uint) uint64 {
	return uint64(getInt(key, int(defaultValue)))
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}
