package gmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"google.golang.org/api/option"
)

type fakeHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type fakeMessage struct {
	Headers      []fakeHeader
	InternalDate string        // raw epoch ms, empty = absent
	Delay        time.Duration // response delay
	Status       int           // non-zero = respond with this error status
}

// fakeGmail serves the subset of the Gmail REST API used by Client
type fakeGmail struct {
	t *testing.T

	mu       sync.Mutex
	ids      []string // search results in provider order
	messages map[string]fakeMessage
	listErr  int
	queries  []string
	formats  []string

	inFlight atomic.Int64
	peak     atomic.Int64
}

func newFakeGmail(t *testing.T) *fakeGmail {
	return &fakeGmail{t: t, messages: make(map[string]fakeMessage)}
}

func (f *fakeGmail) add(id string, m fakeMessage) {
	f.ids = append(f.ids, id)
	f.messages[id] = m
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const prefix = "/gmail/v1/users/me/messages"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if id == "" {
		f.serveList(w, r)
		return
	}
	f.serveGet(w, r, id)
}

func (f *fakeGmail) serveList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.queries = append(f.queries, r.URL.Query().Get("q"))
	f.mu.Unlock()

	if f.listErr != 0 {
		writeAPIError(w, f.listErr)
		return
	}

	max := len(f.ids)
	if v := r.URL.Query().Get("maxResults"); v != "" {
		n, _ := strconv.Atoi(v)
		if n < max {
			max = n
		}
	}

	type ref struct {
		ID       string `json:"id"`
		ThreadID string `json:"threadId"`
	}
	resp := struct {
		Messages           []ref  `json:"messages,omitempty"`
		NextPageToken      string `json:"nextPageToken,omitempty"`
		ResultSizeEstimate int    `json:"resultSizeEstimate"`
	}{ResultSizeEstimate: len(f.ids)}

	for _, id := range f.ids[:max] {
		resp.Messages = append(resp.Messages, ref{ID: id, ThreadID: "t-" + id})
	}
	if max < len(f.ids) {
		resp.NextPageToken = "page-2"
	}

	writeJSON(w, resp)
}

func (f *fakeGmail) serveGet(w http.ResponseWriter, r *http.Request, id string) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	f.mu.Lock()
	f.formats = append(f.formats, r.URL.Query().Get("format"))
	m, ok := f.messages[id]
	f.mu.Unlock()

	if !ok {
		writeAPIError(w, http.StatusNotFound)
		return
	}

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if m.Status != 0 {
		writeAPIError(w, m.Status)
		return
	}

	body := map[string]any{
		"id":       id,
		"threadId": "t-" + id,
		"payload":  map[string]any{"headers": m.Headers},
	}
	if m.InternalDate != "" {
		body["internalDate"] = m.InternalDate
	}
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": http.StatusText(status),
		},
	})
}

// newTestClient starts the fake and returns a Client pointed at it
func newTestClient(t *testing.T, f *fakeGmail) *Client {
	t.Helper()

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c
}
