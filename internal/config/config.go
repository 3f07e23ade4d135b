package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string
	MongoURI     string
	MongoDB      string
	RedisAddr    string
	RabbitURL    string
	JWTSecret    string
	JWTTTL       time.Duration
	QRSize       int
	OTLPEndpoint string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	httpAddr := os.Getenv("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	mongoDB := os.Getenv("MONGO_DB")
	if mongoDB == "" {
		mongoDB = "museum"
	}

	jwtTTL, _ := time.ParseDuration(os.Getenv("JWT_TTL"))
	if jwtTTL == 0 {
		jwtTTL = 24 * time.Hour
	}

	qrSize, _ := strconv.Atoi(os.Getenv("QR_SIZE"))
	if qrSize == 0 {
		qrSize = 256
	}

	return &Config{
		HTTPAddr:     httpAddr,
		MongoURI:     os.Getenv("MONGO_URI"),
		MongoDB:      mongoDB,
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		JWTTTL:       jwtTTL,
		QRSize:       qrSize,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
