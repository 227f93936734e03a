package app

import (
	"github.com/CryptracSolutions/ultaura-insights/internal/platform/envutil"
)

type Config struct {
	// KEKHex is the 64-hex-character root key-encryption key. No default:
	// a missing or malformed value is startup-fatal.
	KEKHex string

	// AuthJWTSecret verifies caregiver bearer tokens minted by the account
	// platform.
	AuthJWTSecret string

	ListenAddr  string
	Environment string
	Version     string
}

func LoadConfig() Config {
	return Config{
		KEKHex:        envutil.Get("INSIGHTS_KEK", ""),
		AuthJWTSecret: envutil.Get("AUTH_JWT_SECRET", ""),
		ListenAddr:    envutil.Get("LISTEN_ADDR", ":8080"),
		Environment:   envutil.Get("APP_ENV", "development"),
		Version:       envutil.Get("APP_VERSION", "dev"),
	}
}
