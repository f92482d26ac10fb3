package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CORSConfig controls cross-origin access to the token endpoint. Disabled by
// default; when disabled the preflight verb is simply not allowed.
type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string // exact origins, or "*"
	AllowedHeaders   string
	AllowedMethods   string
	MaxAge           int // seconds a preflight result may be cached
	AllowCredentials bool
}

// DefaultCORSHeaders and friends are the values used when configuration
// leaves the fields empty.
const (
	DefaultCORSHeaders = "Authorization, Content-Type"
	DefaultCORSMethods = "GET, POST, OPTIONS"
	DefaultCORSMaxAge  = 86400
)

// requestOrigin determines the caller's origin. The Origin header wins; some
// agents omit it, so the Referer's scheme://host[:port] is the fallback.
func requestOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" {
		return origin
	}
	referer := r.Header.Get("Referer")
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// originAllowed matches case-insensitively; "*" admits every origin.
func (c CORSConfig) originAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// applyHeaders writes the CORS response headers, echoing the specific origin
// rather than a wildcard so responses stay cacheable per-origin.
func (c CORSConfig) applyHeaders(w http.ResponseWriter, origin string) {
	headers := c.AllowedHeaders
	if headers == "" {
		headers = DefaultCORSHeaders
	}
	methods := c.AllowedMethods
	if methods == "" {
		methods = DefaultCORSMethods
	}
	maxAge := c.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultCORSMaxAge
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Headers", headers)
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Max-Age", strconv.Itoa(maxAge))
	if c.AllowCredentials {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Add("Vary", "Origin")
}
