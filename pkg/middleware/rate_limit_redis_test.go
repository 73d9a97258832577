package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eatme/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// fakeScripter answers script calls with canned results. Only EvalSha and Eval are
// used by redis.Script.Run.
type fakeScripter struct {
	redis.Scripter
	results []any
	err     error
	keys    [][]string
	args    [][]any
}

func (f *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...any) *redis.Cmd {
	return f.next(keys, args)
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	return f.next(keys, args)
}

func (f *fakeScripter) next(keys []string, args []any) *redis.Cmd {
	f.keys = append(f.keys, keys)
	f.args = append(f.args, args)
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	result := f.results[0]
	f.results = f.results[1:]
	return redis.NewCmdResult(result, nil)
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	fake := &fakeScripter{results: []any{
		[]any{int64(1), int64(4), int64(0)},
		[]any{int64(0), int64(0), int64(1500)},
	}}
	rl := NewRedisRateLimiter(fake, 5, time.Minute, logger.Discard())
	now := time.UnixMilli(1_700_000_000_000)
	rl.now = func() time.Time { return now }

	if ok, _ := rl.Allow(context.Background(), "uid:alice"); !ok {
		t.Fatal("request with tokens left should pass")
	}
	ok, retryAfter := rl.Allow(context.Background(), "uid:alice")
	if ok {
		t.Error("request on an empty bucket should be blocked")
	}
	if retryAfter != 1500*time.Millisecond {
		t.Errorf("retryAfter = %v, want 1.5s", retryAfter)
	}

	if got := fake.keys[0][0]; got != "eatme:ratelimit:uid:alice" {
		t.Errorf("key = %q", got)
	}
	args := fake.args[0]
	if args[0] != now.UnixMilli() || args[1] != 5 || args[2] != int64(12000) || args[3] != int64(60000) {
		t.Errorf("args = %v, want [now 5 12000 60000]", args)
	}
}

func TestRedisRateLimiter_RedisDownLetsRequestsThrough(t *testing.T) {
	fake := &fakeScripter{err: errors.New("connection refused")}
	rl := NewRedisRateLimiter(fake, 1, time.Minute, logger.Discard())

	for i := 0; i < 3; i++ {
		if ok, _ := rl.Allow(context.Background(), "ip:10.0.0.1"); !ok {
			t.Fatalf("request %d should pass while Redis is unavailable", i)
		}
	}
}

func TestRateLimit_RedisRetryAfterHeader(t *testing.T) {
	fake := &fakeScripter{results: []any{
		[]any{int64(0), int64(0), int64(1500)},
	}}
	rl := NewRedisRateLimiter(fake, 1, time.Minute, logger.Discard())

	h := RateLimit(rl, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithPrincipal(req.Context(), Principal{UID: "bob"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "2" {
		t.Errorf("Retry-After = %q, want 2", got)
	}
	if got := fake.keys[0][0]; got != "eatme:ratelimit:uid:bob" {
		t.Errorf("key = %q", got)
	}
}
