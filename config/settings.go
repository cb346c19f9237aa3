package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultOrderLimit  = 3000
	defaultOdooTimeout = 60
)

func init() {
	// Load env from .env
	godotenv.Load()
}

// OdooSettings describes the ERP connection the service reconciles against.
//
// Set via env:
// - ODOO_URL, ODOO_DB, ODOO_LOGIN, ODOO_API_KEY
// - ODOO_COMPANY_ID, ODOO_COMPANY_NAME (optional company scoping)
// - ODOO_TIMEOUT_SECONDS (default 60), ODOO_ORDER_LIMIT (default 3000)
// - ODOO_RATE_LIMIT_PER_MIN (default 0, unlimited)
type OdooSettings struct {
	URL         string
	DB          string
	Login       string
	APIKey      string
	CompanyID   int64
	CompanyName string
	Timeout     time.Duration
	OrderLimit  int

	// RateLimitPerMin caps JSON-RPC calls per minute for each ERP; 0 means no cap.
	RateLimitPerMin int
}

func GetOdooSettings() OdooSettings {
	return OdooSettings{
		URL:         strings.TrimRight(EnvString("ODOO_URL", ""), "/"),
		DB:          EnvString("ODOO_DB", ""),
		Login:       EnvString("ODOO_LOGIN", ""),
		APIKey:      EnvString("ODOO_API_KEY", ""),
		CompanyID:   int64(IntFromEnv("ODOO_COMPANY_ID", 0)),
		CompanyName: EnvString("ODOO_COMPANY_NAME", ""),
		Timeout:     time.Duration(IntFromEnv("ODOO_TIMEOUT_SECONDS", defaultOdooTimeout)) * time.Second,
		OrderLimit:  IntFromEnv("ODOO_ORDER_LIMIT", defaultOrderLimit),

		RateLimitPerMin: IntFromEnv("ODOO_RATE_LIMIT_PER_MIN", 0),
	}
}

// Configured reports whether enough is set to attempt authentication.
func (s OdooSettings) Configured() bool {
	return s.URL != "" && s.DB != "" && s.Login != "" && s.APIKey != ""
}

func EnvString(key string, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func IntFromEnv(key string, def int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	val := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch val {
	case "true", "1", "yes", "y", "on":
		return true
	case "false", "0", "no", "n", "off":
		return false
	default:
		return def
	}
}

func IsProduction() bool {
	return strings.EqualFold(EnvString("GO_ENV", ""), "production")
}
