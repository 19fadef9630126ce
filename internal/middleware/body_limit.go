package middleware

import (
	"net/http"
	"strings"
)

// BodyLimitRule raises or lowers the body cap for one route. Path is matched
// with or without the /api prefix; an empty Method matches any method.
type BodyLimitRule struct {
	Method   string
	Path     string
	MaxBytes int64
}

func (rule BodyLimitRule) matches(r *http.Request) bool {
	if rule.Method != "" && rule.Method != r.Method {
		return false
	}
	path := strings.TrimSuffix(r.URL.Path, "/")
	return path == rule.Path || strings.TrimPrefix(path, "/api") == rule.Path
}

func LimitBodyBytes(defaultMax int64, rules ...BodyLimitRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			maxBytes := defaultMax
			for _, rule := range rules {
				if rule.MaxBytes > 0 && rule.matches(r) {
					maxBytes = rule.MaxBytes
					break
				}
			}
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
