package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/venue-reservation/internal/config"
)

// The response cache fronts the public facility catalogue: the list,
// detail, availability and quote endpoints are read-heavy and identical
// for every anonymous caller, so successful GET responses are stored in
// Redis verbatim and replayed until the TTL runs out. Availability windows
// may therefore lag a fresh booking by up to one TTL; the workflow's
// conflict check stays authoritative.

// recorder mirrors the response to the client while keeping a bounded
// copy for the cache entry. Bodies above the limit are streamed through
// but not stored.
type recorder struct {
    http.ResponseWriter
    status   int
    body     bytes.Buffer
    written  int64
    limit    int64
    overflow bool
}

func (r *recorder) WriteHeader(code int) {
    r.status = code
    r.ResponseWriter.WriteHeader(code)
}

func (r *recorder) Write(b []byte) (int, error) {
    r.written += int64(len(b))
    if r.limit > 0 && r.written > r.limit {
        r.overflow = true
    } else {
        r.body.Write(b)
    }
    return r.ResponseWriter.Write(b)
}

// entryKey hashes route + raw query under the configured prefix. Hashing
// keeps arbitrary query strings out of the Redis keyspace.
func entryKey(prefix string, c echo.Context) string {
    sum := sha1.Sum([]byte(c.Path() + "?" + c.Request().URL.RawQuery))
    return fmt.Sprintf("%s:%x", prefix, sum)
}

// A cache entry is [status u32][header length u32][header JSON][body].
// Replaying the original headers keeps content type and formatting
// identical to the first response.
func packEntry(status int, header http.Header, body []byte) []byte {
    hdr, err := json.Marshal(header)
    if err != nil {
        return nil
    }
    out := make([]byte, 8, 8+len(hdr)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdr)))
    out = append(out, hdr...)
    return append(out, body...)
}

func unpackEntry(raw []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(raw) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(raw[0:4]))
    hlen := int(binary.BigEndian.Uint32(raw[4:8]))
    if hlen < 0 || 8+hlen > len(raw) {
        return 0, nil, nil, false
    }
    header = make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(raw[8:8+hlen], &header); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, header, raw[8+hlen:], true
}

// NewRedisCache returns the catalogue response cache. A nil client or a
// disabled config yields a pass-through middleware so the server keeps
// serving without Redis.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = time.Minute
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if c.Request().Method != http.MethodGet {
                return next(c)
            }
            ctx := c.Request().Context()
            key := entryKey(cfg.Prefix, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := unpackEntry(raw); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") {
                            continue
                        }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("X-Cache", "HIT")
                    c.Response().WriteHeader(status)
                    _, err := c.Response().Write(body)
                    return err
                }
            }

            rec := &recorder{
                ResponseWriter: c.Response().Writer,
                status:         http.StatusOK,
                limit:          int64(cfg.MaxBodyBytes),
            }
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }

            // Only complete 200 responses are worth replaying.
            if rec.status == http.StatusOK && !rec.overflow {
                if entry := packEntry(rec.status, c.Response().Header().Clone(), rec.body.Bytes()); entry != nil {
                    _ = rdb.SetEx(context.Background(), key, entry, ttl).Err()
                }
            }
            return nil
        }
    }
}
