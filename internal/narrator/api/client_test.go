package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/voxstory/core/internal/narrator/dispatch"
)

func TestSynthesizeReturnsAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/say" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization header %q", got)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["text"] != "hello" {
			t.Errorf("text %v", body["text"])
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("mp3"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-1")
	data, mimeType, err := c.Synthesize(context.Background(), dispatch.Request{Text: "hello", VoiceID: "v", Speed: 1})
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !bytes.Equal(data, []byte("mp3")) || mimeType != "audio/mpeg" {
		t.Fatalf("got %q %q", data, mimeType)
	}
}

func TestSynthesizeErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "validation",
			status: http.StatusBadRequest,
			body:   `{"ok":0,"error":"text too long"}`,
			check: func(t *testing.T, err error) {
				var ve *dispatch.ValidationError
				if !errors.As(err, &ve) || ve.Msg != "text too long" {
					t.Fatalf("want ValidationError, got %v", err)
				}
			},
		},
		{
			name:   "authentication",
			status: http.StatusUnauthorized,
			body:   `{"ok":0,"error":"Authentication required"}`,
			check: func(t *testing.T, err error) {
				var ae *dispatch.AuthenticationError
				if !errors.As(err, &ae) {
					t.Fatalf("want AuthenticationError, got %v", err)
				}
			},
		},
		{
			name:   "quota",
			status: http.StatusTooManyRequests,
			body:   `{"ok":0,"error":"daily limit reached","usage":{"tts_generations_count":3,"total_characters_generated":1200,"date":"2026-09-01"}}`,
			check: func(t *testing.T, err error) {
				var qe *dispatch.QuotaExceededError
				if !errors.As(err, &qe) {
					t.Fatalf("want QuotaExceededError, got %v", err)
				}
				if qe.GenerationCount != 3 || qe.CharactersGenerated != 1200 {
					t.Fatalf("usage not carried: %+v", qe)
				}
			},
		},
		{
			name:   "provider",
			status: http.StatusBadGateway,
			body:   `{"ok":0,"error":"Text-to-speech service unavailable"}`,
			check: func(t *testing.T, err error) {
				var pe *dispatch.ProviderError
				if !errors.As(err, &pe) {
					t.Fatalf("want ProviderError, got %v", err)
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL, "tok")
			_, _, err := c.Synthesize(context.Background(), dispatch.Request{Text: "x"})
			if err == nil {
				t.Fatal("expected error")
			}
			tc.check(t, err)
		})
	}
}

func TestSynthesizeRejectsNonAudioSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	_, _, err := c.Synthesize(context.Background(), dispatch.Request{Text: "x"})
	var pe *dispatch.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("non-audio body must map to ProviderError, got %v", err)
	}
}

func TestStoryCreateAndUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/stories":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"story-7","title":"T","content":"C"}`))
		case r.Method == http.MethodPut && r.URL.Path == "/api/v1/stories/story-7":
			w.Write([]byte(`{"id":"story-7","title":"T","content":"C2"}`))
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	doc, err := c.Create(context.Background(), "T", "C")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if doc.ID != "story-7" {
		t.Fatalf("id %q", doc.ID)
	}
	doc, err = c.Update(context.Background(), doc.ID, "T", "C2")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if doc.Content != "C2" {
		t.Fatalf("content %q", doc.Content)
	}
}

func TestUsageFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/usage" {
			t.Errorf("path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"tts_generations_count":2,"total_characters_generated":800,"date":"2026-09-01"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	rec, err := c.Usage(context.Background())
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if rec.GenerationCount != 2 || rec.Date != "2026-09-01" {
		t.Fatalf("record %+v", rec)
	}
}
