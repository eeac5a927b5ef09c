package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type marketContextKey struct{}

// MarketKey carries the detected target market (lowercase ISO country code).
var MarketKey = marketContextKey{}

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// Market detects the target keyword market for a request: an explicit
// X-Market header wins, then the Accept-Language region, then the GeoIP
// country of the client address, then the configured default.
func Market(defaultMarket string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			market := detectMarket(r, defaultMarket, lookup)
			ctx := context.WithValue(r.Context(), MarketKey, market)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// MarketFromContext returns the detected market, or empty when absent.
func MarketFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(MarketKey).(string); ok {
		return v
	}
	return ""
}

func detectMarket(r *http.Request, fallback string, lookup CountryLookup) string {
	if v := strings.TrimSpace(r.Header.Get("X-Market")); v != "" {
		return strings.ToLower(v)
	}
	if region := regionFromAcceptLanguage(r.Header.Get("Accept-Language")); region != "" {
		return region
	}
	if lookup != nil {
		if country, err := lookup(clientIP(r)); err == nil && country != "" {
			return strings.ToLower(country)
		}
	}
	return strings.ToLower(fallback)
}

func regionFromAcceptLanguage(header string) string {
	if header == "" {
		return ""
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	region, confidence := tags[0].Region()
	if confidence == language.No || !region.IsCountry() {
		return ""
	}
	return strings.ToLower(region.String())
}

func clientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			ip := strings.TrimSpace(part)
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
