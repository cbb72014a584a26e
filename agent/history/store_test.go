package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	contractx "github.com/razaqfatiu/m3-multi-agent-system/agent/contract"
)

type commandLog struct {
	commands [][]any
}

func newFakeRedis(t *testing.T, log *commandLog, respond func(cmd []any) (any, string)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected authorization header %q", got)
		}

		var cmd []any
		if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
			t.Fatalf("decode command: %v", err)
		}
		log.commands = append(log.commands, cmd)

		result, redisErr := respond(cmd)
		if redisErr != "" {
			_ = json.NewEncoder(w).Encode(map[string]any{"error": redisErr})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
	}))
}

func newTestStore(t *testing.T, serverURL string, opts ...StoreOption) *UpstashRedisStore {
	t.Helper()
	store, err := NewUpstashRedisStore(UpstashRedisConfig{
		URL:   serverURL,
		Token: "test-token",
	}, opts...)
	if err != nil {
		t.Fatalf("NewUpstashRedisStore: %v", err)
	}
	return store
}

func sampleRecord(runID string) *RouteRecord {
	return &RouteRecord{
		RunID:    runID,
		Question: "How many vacation days do I have left?",
		Result: contractx.RouteResult{
			Classification: contractx.ClassificationResult{
				Intents:    []contractx.DepartmentIntent{contractx.IntentHR},
				Confidence: 0.92,
				Reasoning:  "leave balance question",
			},
			Turns: []contractx.AgentTurn{{
				Intent: contractx.IntentHR,
				Result: contractx.AgentResult{Text: "You have 12 days remaining."},
			}},
		},
		CreatedAt: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestUpstashRedisStoreSaveSetsKeyAndTTL(t *testing.T) {
	t.Parallel()

	log := &commandLog{}
	server := newFakeRedis(t, log, func(cmd []any) (any, string) { return "OK", "" })
	defer server.Close()

	store := newTestStore(t, server.URL, WithTTL(time.Hour))
	if err := store.Save(context.Background(), sampleRecord("run-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if len(log.commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(log.commands))
	}
	cmd := log.commands[0]
	if len(cmd) != 5 {
		t.Fatalf("got command %v, want SET key payload EX seconds", cmd)
	}
	if cmd[0] != "SET" || cmd[1] != "m3:route:run-1" {
		t.Errorf("unexpected command head %v", cmd[:2])
	}
	if cmd[3] != "EX" || cmd[4] != float64(3600) {
		t.Errorf("unexpected ttl args %v", cmd[3:])
	}

	var stored RouteRecord
	if err := json.Unmarshal([]byte(cmd[2].(string)), &stored); err != nil {
		t.Fatalf("stored payload is not a route record: %v", err)
	}
	if stored.RunID != "run-1" || len(stored.Result.Turns) != 1 {
		t.Errorf("unexpected stored record %+v", stored)
	}
}

func TestUpstashRedisStoreSaveWithoutTTL(t *testing.T) {
	t.Parallel()

	log := &commandLog{}
	server := newFakeRedis(t, log, func(cmd []any) (any, string) { return "OK", "" })
	defer server.Close()

	store := newTestStore(t, server.URL, WithTTL(0))
	if err := store.Save(context.Background(), sampleRecord("run-2")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := len(log.commands[0]); got != 3 {
		t.Errorf("got %d command args, want 3 (no EX)", got)
	}
}

func TestUpstashRedisStoreLoadRoundTrip(t *testing.T) {
	t.Parallel()

	rec := sampleRecord("run-3")
	payload, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal record: %v", err)
	}

	log := &commandLog{}
	server := newFakeRedis(t, log, func(cmd []any) (any, string) {
		if cmd[0] != "GET" || cmd[1] != "m3:route:run-3" {
			t.Errorf("unexpected command %v", cmd)
		}
		return string(payload), ""
	})
	defer server.Close()

	store := newTestStore(t, server.URL)
	got, err := store.Load(context.Background(), "run-3")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Question != rec.Question {
		t.Errorf("got question %q, want %q", got.Question, rec.Question)
	}
	if len(got.Result.Turns) != 1 || got.Result.Turns[0].Intent != contractx.IntentHR {
		t.Errorf("unexpected loaded result %+v", got.Result)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Errorf("got created_at %v, want %v", got.CreatedAt, rec.CreatedAt)
	}
}

func TestUpstashRedisStoreLoadMissing(t *testing.T) {
	t.Parallel()

	server := newFakeRedis(t, &commandLog{}, func(cmd []any) (any, string) { return nil, "" })
	defer server.Close()

	store := newTestStore(t, server.URL)
	if _, err := store.Load(context.Background(), "absent"); !errors.Is(err, ErrRecordNotFound) {
		t.Errorf("got %v, want ErrRecordNotFound", err)
	}
}

func TestUpstashRedisStoreDelete(t *testing.T) {
	t.Parallel()

	log := &commandLog{}
	server := newFakeRedis(t, log, func(cmd []any) (any, string) { return float64(1), "" })
	defer server.Close()

	store := newTestStore(t, server.URL)
	if err := store.Delete(context.Background(), "run-4"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if cmd := log.commands[0]; cmd[0] != "DEL" || cmd[1] != "m3:route:run-4" {
		t.Errorf("unexpected command %v", cmd)
	}
}

func TestUpstashRedisStoreRedisError(t *testing.T) {
	t.Parallel()

	server := newFakeRedis(t, &commandLog{}, func(cmd []any) (any, string) {
		return nil, "WRONGTYPE Operation against a key"
	})
	defer server.Close()

	store := newTestStore(t, server.URL)
	if err := store.Delete(context.Background(), "run-5"); err == nil {
		t.Fatal("expected error from redis error payload")
	}
}

func TestUpstashRedisStoreHTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	store := newTestStore(t, server.URL)
	if _, err := store.Load(context.Background(), "run-6"); err == nil {
		t.Fatal("expected error on http 500")
	}
}

func TestUpstashRedisStoreValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewUpstashRedisStore(UpstashRedisConfig{Token: "t"}); err == nil {
		t.Error("expected error for missing url")
	}
	if _, err := NewUpstashRedisStore(UpstashRedisConfig{URL: "https://example.upstash.io"}); err == nil {
		t.Error("expected error for missing token")
	}

	store := newTestStore(t, "https://example.upstash.io")
	if err := store.Save(context.Background(), nil); !errors.Is(err, ErrNilRecord) {
		t.Errorf("got %v, want ErrNilRecord", err)
	}
	if _, err := store.Load(context.Background(), "  "); !errors.Is(err, ErrInvalidRunID) {
		t.Errorf("got %v, want ErrInvalidRunID", err)
	}

	custom := newTestStore(t, "https://example.upstash.io", WithKeyPrefix("custom:"))
	key, err := custom.redisKey("abc")
	if err != nil {
		t.Fatalf("redisKey: %v", err)
	}
	if key != "custom:abc" {
		t.Errorf("got key %q, want custom:abc", key)
	}
}
