package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "strings" // strings splits list-valued variables
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. The approval routing of the reservation workflow
// is configuration too: MDRRFacilityIDs lists the facilities handled by
// MDRR staff instead of the general admin, and AdminReviewerID optionally
// pins the admin who reviews promoted bookings.
type Config struct {
    Env             string   // application environment (e.g. "dev", "prod")
    Port            string   // HTTP port to listen on
    DBUser          string   // database username
    DBPass          string   // database password (optional)
    DBHost          string   // database host address
    DBPort          string   // database port number
    DBName          string   // database name
    JWTSecret       string   // secret used to sign JWTs
    AccessTTLMin    int      // access token time-to-live in minutes
    RefreshTTLDays  int      // refresh token time-to-live in days
    BcryptCost      int      // bcrypt cost for password hashing
    MDRRFacilityIDs []uint64 // facilities routed to MDRR staff (comma-separated ids)
    AdminReviewerID uint64   // designated reviewer for promoted bookings (0 = first admin)
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:             must("APP_ENV"),
        Port:            must("APP_PORT"),
        DBUser:          must("DB_USER"),
        DBPass:          os.Getenv("DB_PASS"), // empty allowed
        DBHost:          must("DB_HOST"),
        DBPort:          must("DB_PORT"),
        DBName:          must("DB_NAME"),
        JWTSecret:       must("JWT_SECRET"),
        AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:      mustInt("BCRYPT_COST"),
        MDRRFacilityIDs: idList("MDRR_FACILITY_IDS"),
        AdminReviewerID: optUint("ADMIN_REVIEWER_ID"),
    }
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}

// idList parses an optional comma-separated list of ids. Blank entries are
// skipped; malformed entries are fatal so a routing typo cannot silently
// send bookings to the wrong approver pool.
func idList(key string) []uint64 {
    raw := os.Getenv(key)
    if strings.TrimSpace(raw) == "" {
        return nil
    }
    var ids []uint64
    for _, part := range strings.Split(raw, ",") {
        part = strings.TrimSpace(part)
        if part == "" {
            continue
        }
        id, err := strconv.ParseUint(part, 10, 64)
        if err != nil {
            log.Fatalf("invalid id in %s: %q", key, part)
        }
        ids = append(ids, id)
    }
    return ids
}

// optUint parses an optional unsigned integer, defaulting to zero.
func optUint(key string) uint64 {
    s := os.Getenv(key)
    if s == "" {
        return 0
    }
    n, err := strconv.ParseUint(s, 10, 64)
    if err != nil {
        log.Fatalf("invalid uint for %s: %q", key, s)
    }
    return n
}
