package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"time"    // time parses duration values
)

// Config holds all runtime configuration values.  Each field
// corresponds to an environment variable.  The service is designed to
// run next to a desktop client, so most values have sensible local
// defaults; only the QR signing secret is mandatory.
type Config struct {
	Env           string        // application environment (e.g. "dev", "prod")
	Port          string        // HTTP port to listen on
	IPCSocket     string        // optional unix socket path for the local desktop boundary
	DBPath        string        // path of the SQLite database file
	QRSecret      string        // secret used to sign QR auth keys
	SessionTTL    time.Duration // lifetime of issued sessions
	BcryptCost    int           // bcrypt cost for password hashing
	AMQPURL       string        // optional AMQP broker URL for the receipt queue
	ReceiptsDir   string        // directory the receipt consumer writes into
	OverdueCron   string        // cron spec of the nightly overdue sweep
	SeedSampleRow bool          // whether a fresh database gets sample rows
}

// Load reads configuration from environment variables and returns a
// Config.  Missing required variables cause the program to exit with a
// fatal log message.
func Load() Config {
	return Config{
		Env:           getenv("APP_ENV", "dev"),
		Port:          getenv("APP_PORT", "8080"),
		IPCSocket:     os.Getenv("IPC_SOCKET"), // empty disables the unix listener
		DBPath:        getenv("DB_PATH", "library.db"),
		QRSecret:      must("QR_SECRET"),
		SessionTTL:    getdur("SESSION_TTL", 7*24*time.Hour),
		BcryptCost:    getint("BCRYPT_COST", 10),
		AMQPURL:       os.Getenv("AMQP_URL"), // empty disables receipt publishing
		ReceiptsDir:   getenv("RECEIPTS_DIR", "receipts"),
		OverdueCron:   getenv("OVERDUE_CRON", "0 0 * * *"),
		SeedSampleRow: getbool("SEED_SAMPLE_DATA", true),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and
// exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// getenv returns the value of key or def when unset.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getint is getenv for integers; non-numeric values fall back to def.
func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}

// getdur is getenv for durations.
func getdur(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Fatalf("invalid duration for %s: %q", key, v)
	}
	return d
}

// getbool is getenv for booleans.
func getbool(key string, def bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "TRUE", "True", "yes", "on":
		return true
	case "0", "false", "FALSE", "False", "no", "off":
		return false
	}
	return def
}
