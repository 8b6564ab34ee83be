package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestFeed(url string) *Feed {
	return NewFeed(FeedOptions{
		URL:       url,
		Timeout:   time.Second,
		UserAgent: "test",
	}, noopLogger())
}

func TestFeedFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": 0,
			"data": []map[string]string{
				{"CurPrice": "451.00", "Variety": "AUTD"},
				{"CurPrice": "452.00", "Variety": "AGTD"},
			},
		})
	}))
	defer srv.Close()

	snap, err := newTestFeed(srv.URL).FetchPrice(context.Background(), "glod")
	if err != nil {
		t.Fatalf("成功响应不应报错: %v", err)
	}
	if snap.Code != "AUTD" {
		t.Fatalf("应采用响应中的 Variety, 实际 %q", snap.Code)
	}
	if !snap.CurrentPrice.Equal(decimal.RequireFromString("451.00")) {
		t.Fatalf("期望价格 451.00, 实际 %s", snap.CurrentPrice.String())
	}
	if snap.FetchedAt.IsZero() {
		t.Fatal("FetchedAt 应被填充")
	}
}

func TestFeedFetchEmptyData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": 0, "data": []any{}})
	}))
	defer srv.Close()

	_, err := newTestFeed(srv.URL).FetchPrice(context.Background(), "glod")
	if !errors.Is(err, ErrEmptyFeed) {
		t.Fatalf("空数据应返回 ErrEmptyFeed, 实际 %v", err)
	}
}

func TestFeedFetchMalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	_, err := newTestFeed(srv.URL).FetchPrice(context.Background(), "glod")
	if !errors.Is(err, ErrMalformedFeed) {
		t.Fatalf("非 JSON 响应应返回 ErrMalformedFeed, 实际 %v", err)
	}
}

func TestFeedFetchUnparsablePrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": 0,
			"data":   []map[string]string{{"CurPrice": "n/a", "Variety": "AUTD"}},
		})
	}))
	defer srv.Close()

	// An unparsable price must never be coerced to 0.00; that would fire
	// every buy-side rule.
	_, err := newTestFeed(srv.URL).FetchPrice(context.Background(), "glod")
	if !errors.Is(err, ErrMalformedFeed) {
		t.Fatalf("无法解析的价格应返回 ErrMalformedFeed, 实际 %v", err)
	}
}

func TestFeedFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestFeed(srv.URL).FetchPrice(context.Background(), "glod")
	if !errors.Is(err, ErrMalformedFeed) {
		t.Fatalf("HTTP 500 应返回 ErrMalformedFeed, 实际 %v", err)
	}
}

func TestFeedFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestFeed(srv.URL).FetchPrice(context.Background(), "glod")
	if err == nil {
		t.Fatal("连接失败应返回错误")
	}
	if errors.Is(err, ErrMalformedFeed) || errors.Is(err, ErrEmptyFeed) {
		t.Fatalf("网络错误不应归类为数据错误: %v", err)
	}
}

func TestFeedFallsBackToRequestedCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": 0,
			"data":   []map[string]string{{"CurPrice": "400.00", "Variety": ""}},
		})
	}))
	defer srv.Close()

	snap, err := newTestFeed(srv.URL).FetchPrice(context.Background(), "glod")
	if err != nil {
		t.Fatalf("未预期的错误: %v", err)
	}
	if snap.Code != "glod" {
		t.Fatalf("Variety 为空时应回退到请求的 code, 实际 %q", snap.Code)
	}
}
