package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func detectFor(t *testing.T, configure func(*http.Request), lookup CountryLookup) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.10:1234"
	if configure != nil {
		configure(req)
	}
	var got string
	handler := Market("kr", lookup)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = MarketFromContext(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestMarketHeaderWins(t *testing.T) {
	got := detectFor(t, func(r *http.Request) {
		r.Header.Set("X-Market", "JP")
		r.Header.Set("Accept-Language", "ko-KR")
	}, nil)
	if got != "jp" {
		t.Fatalf("market = %q, want jp", got)
	}
}

func TestMarketFromAcceptLanguageRegion(t *testing.T) {
	got := detectFor(t, func(r *http.Request) {
		r.Header.Set("Accept-Language", "ko-KR,ko;q=0.9")
	}, nil)
	if got != "kr" {
		t.Fatalf("market = %q, want kr", got)
	}
}

func TestMarketFromGeoIPLookup(t *testing.T) {
	lookup := func(ip string) (string, error) {
		if ip != "198.51.100.10" {
			t.Fatalf("lookup ip = %q", ip)
		}
		return "JP", nil
	}
	got := detectFor(t, nil, lookup)
	if got != "jp" {
		t.Fatalf("market = %q, want jp", got)
	}
}

func TestMarketDefaultWhenLookupFails(t *testing.T) {
	lookup := func(string) (string, error) {
		return "", errors.New("db unavailable")
	}
	got := detectFor(t, nil, lookup)
	if got != "kr" {
		t.Fatalf("market = %q, want default kr", got)
	}
}
