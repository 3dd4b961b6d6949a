package speech

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/voxstory/core/internal/config"
	"github.com/voxstory/core/internal/middleware"
	"go.uber.org/zap"
)

func newTestRouter(svc *Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authMW := func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, "u1")
		c.Next()
	}
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"), authMW)
	return r
}

func postSay(t *testing.T, r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/say", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSayEndpointReturnsAudio(t *testing.T) {
	synth := &fakeSynth{}
	svc := NewService(synth, &fakeLedger{}, nil, zap.NewNop())
	r := newTestRouter(svc)

	w := postSay(t, r, SayDTO{Text: "a quiet morning"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != AudioMIMEType {
		t.Fatalf("expected %s, got %s", AudioMIMEType, ct)
	}
	if w.Body.Len() == 0 {
		t.Fatal("expected audio bytes")
	}
}

func TestSayEndpointEmptyText(t *testing.T) {
	synth := &fakeSynth{}
	svc := NewService(synth, &fakeLedger{}, nil, zap.NewNop())
	r := newTestRouter(svc)

	w := postSay(t, r, SayDTO{Text: ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if synth.calls != 0 {
		t.Fatal("provider must not be called")
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error == "" {
		t.Fatalf("expected {error} body, got %s", w.Body.String())
	}
}

func TestSayEndpointQuotaDenial(t *testing.T) {
	synth := &fakeSynth{}
	ledger := &fakeLedger{count: config.DailyGenerationLimit}
	svc := NewService(synth, ledger, nil, zap.NewNop())
	r := newTestRouter(svc)

	w := postSay(t, r, SayDTO{Text: "hello"})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	var body struct {
		Usage struct {
			Count int `json:"tts_generations_count"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Usage.Count != config.DailyGenerationLimit {
		t.Fatalf("denial should carry current usage, got %s", w.Body.String())
	}
	if synth.calls != 0 {
		t.Fatal("provider must not be called")
	}
}

func TestSayEndpointProviderFailure(t *testing.T) {
	synth := &fakeSynth{err: errProviderDown}
	svc := NewService(synth, &fakeLedger{}, nil, zap.NewNop())
	r := newTestRouter(svc)

	w := postSay(t, r, SayDTO{Text: "hello"})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
}

func TestVoicesEndpoint(t *testing.T) {
	svc := NewService(&fakeSynth{}, &fakeLedger{}, nil, zap.NewNop())
	r := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/voices", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data []Voice `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Data) != len(Voices) {
		t.Fatalf("expected %d voices, got %d", len(Voices), len(body.Data))
	}
}
