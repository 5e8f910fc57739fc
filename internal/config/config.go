package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port          string
	Mode          string
	Environment   string
	LotCapacities []int
	OwnerName     string
	SecurityName  string
	AttendantName string
	OTelConfig    OTelConfig
}

type OTelConfig struct {
	ServiceName  string
	OTLPEndpoint string
}

func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Mode:          getEnv("MODE", "cli"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		LotCapacities: parseCapacities(os.Getenv("LOT_CAPACITIES")),
		OwnerName:     getEnv("OWNER_NAME", "owner"),
		SecurityName:  getEnv("SECURITY_NAME", "security"),
		AttendantName: getEnv("ATTENDANT_NAME", "attendant"),
		OTelConfig: OTelConfig{
			ServiceName:  getEnv("OTEL_SERVICE_NAME", "parking-fleet"),
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseCapacities reads a comma separated list such as "5,4,10".
// Entries that are not positive integers are skipped.
func parseCapacities(s string) []int {
	var capacities []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			continue
		}
		capacities = append(capacities, n)
	}
	return capacities
}
