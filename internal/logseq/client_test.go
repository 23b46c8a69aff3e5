package logseq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// rpcCall records one request seen by the fake API.
type rpcCall struct {
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// fakeAPI is a scripted Logseq endpoint: it records calls and answers
// each method from a canned response table.
func fakeAPI(t *testing.T, responses map[string]any, calls *[]rpcCall) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			t.Errorf("bad request body: %v", err)
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		*calls = append(*calls, call)

		w.Header().Set("Content-Type", "application/json")
		resp, ok := responses[call.Method]
		if !ok {
			resp = nil
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func TestClient_Call_Auth(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`true`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token")
	if err := c.Call(context.Background(), nil, "logseq.App.getInfo"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestClient_Call_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	if err := c.Call(context.Background(), nil, "logseq.App.getInfo"); err == nil {
		t.Errorf("expected error on 401 response")
	}
}

func TestClient_Connected(t *testing.T) {
	var calls []rpcCall
	srv := fakeAPI(t, map[string]any{
		"logseq.App.getInfo": map[string]any{"version": "0.10.9"},
	}, &calls)
	defer srv.Close()

	if !New(srv.URL, "").Connected(context.Background()) {
		t.Errorf("Connected() = false against a live fake")
	}

	down := New("http://127.0.0.1:1", "")
	if down.Connected(context.Background()) {
		t.Errorf("Connected() = true against a dead endpoint")
	}
}

func TestClient_GetPage_Missing(t *testing.T) {
	var calls []rpcCall
	srv := fakeAPI(t, map[string]any{
		"logseq.Editor.getPage": nil,
	}, &calls)
	defer srv.Close()

	page, err := New(srv.URL, "").GetPage(context.Background(), "Nope")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page != nil {
		t.Errorf("expected nil page for null result, got %+v", page)
	}
}

func TestClient_ReplacePage(t *testing.T) {
	var calls []rpcCall
	srv := fakeAPI(t, map[string]any{
		"logseq.Editor.getPage": map[string]any{"uuid": "page-uuid", "name": "Walden"},
		"logseq.Editor.getPageBlocksTree": []map[string]any{
			{"uuid": "old-1"},
			{"uuid": "old-2"},
		},
		"logseq.Editor.removeBlock":      true,
		"logseq.Editor.insertBatchBlock": map[string]any{"uuid": "new-1"},
	}, &calls)
	defer srv.Close()

	content := "- author:: [[Thoreau]]\n- First highlight\n\t- Note:: a thought"
	if err := New(srv.URL, "").ReplacePage(context.Background(), "Walden", content); err != nil {
		t.Fatalf("ReplacePage: %v", err)
	}

	want := []string{
		"logseq.Editor.getPage",
		"logseq.Editor.getPageBlocksTree",
		"logseq.Editor.removeBlock",
		"logseq.Editor.removeBlock",
		"logseq.Editor.insertBatchBlock",
	}
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d: %+v", len(calls), len(want), calls)
	}
	for i, method := range want {
		if calls[i].Method != method {
			t.Errorf("call %d = %s, want %s", i, calls[i].Method, method)
		}
	}

	// The batch insert carries the parsed block tree: parent uuid,
	// nested blocks, sibling flag.
	batch := calls[len(calls)-1]
	if len(batch.Args) != 3 {
		t.Fatalf("insertBatchBlock args = %+v", batch.Args)
	}
	if batch.Args[0] != "page-uuid" {
		t.Errorf("parent uuid = %v", batch.Args[0])
	}
	blocks, ok := batch.Args[1].([]any)
	if !ok || len(blocks) != 2 {
		t.Fatalf("block forest = %+v", batch.Args[1])
	}
	second, _ := blocks[1].(map[string]any)
	children, _ := second["children"].([]any)
	if len(children) != 1 {
		t.Errorf("nested note missing: %+v", second)
	}
	first, _ := blocks[0].(map[string]any)
	if _, present := first["children"]; present {
		t.Errorf("leaf block must omit children: %+v", first)
	}
}

func TestClient_ReplacePage_CreatesMissingPage(t *testing.T) {
	var calls []rpcCall
	srv := fakeAPI(t, map[string]any{
		"logseq.Editor.getPage":           nil,
		"logseq.Editor.createPage":        map[string]any{"uuid": "fresh-uuid", "name": "New Page"},
		"logseq.Editor.getPageBlocksTree": []map[string]any{},
		"logseq.Editor.insertBatchBlock":  map[string]any{"uuid": "b1"},
	}, &calls)
	defer srv.Close()

	if err := New(srv.URL, "").ReplacePage(context.Background(), "New Page", "- hello"); err != nil {
		t.Fatalf("ReplacePage: %v", err)
	}

	want := []string{
		"logseq.Editor.getPage",
		"logseq.Editor.createPage",
		"logseq.Editor.getPageBlocksTree",
		"logseq.Editor.insertBatchBlock",
	}
	if len(calls) != len(want) {
		t.Fatalf("got %d calls, want %d: %+v", len(calls), len(want), calls)
	}
	for i, method := range want {
		if calls[i].Method != method {
			t.Errorf("call %d = %s, want %s", i, calls[i].Method, method)
		}
	}
}
