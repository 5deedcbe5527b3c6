package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// tagsJSON builds a /api/tags response with the given model names.
func tagsJSON(names ...string) []byte {
	type entry struct {
		Name string `json:"name"`
	}
	type resp struct {
		Models []entry `json:"models"`
	}
	r := resp{}
	for _, n := range names {
		r.Models = append(r.Models, entry{Name: n})
	}
	b, _ := json.Marshal(r)
	return b
}

func TestIsRunning_Up(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("llama3:latest"))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	if !c.IsRunning(context.Background()) {
		t.Error("IsRunning() = false, want true")
	}
}

func TestIsRunning_Down(t *testing.T) {
	// Point at a closed server to simulate connection refused.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, nil)
	if c.IsRunning(context.Background()) {
		t.Error("IsRunning() = true, want false")
	}
}

func TestListModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tagsJSON("llama3:latest", "mistral:latest"))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}

	want := []string{"llama3:latest", "mistral:latest"}
	if len(models) != len(want) {
		t.Fatalf("got %d models, want %d", len(models), len(want))
	}
	for i, w := range want {
		if models[i] != w {
			t.Errorf("models[%d] = %q, want %q", i, models[i], w)
		}
	}
}

func TestListModels_ModelFieldFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Older Ollama versions key the name under "model".
		w.Write([]byte(`{"models":[{"model":"llama3:latest"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	models, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(models) != 1 || models[0] != "llama3:latest" {
		t.Errorf("models = %v, want [llama3:latest]", models)
	}
}

func TestModelAvailable(t *testing.T) {
	models := []string{"llama3:latest", "Mistral-Nemo:7b"}

	tests := []struct {
		target string
		want   bool
	}{
		{"llama3", true},
		{"llama3:latest", true},
		{"LLAMA3", true},
		{"mistral-nemo", true},
		{"phi3.5", false},
		{"llama", false},
	}
	for _, tc := range tests {
		if got := ModelAvailable(tc.target, models); got != tc.want {
			t.Errorf("ModelAvailable(%q) = %v, want %v", tc.target, got, tc.want)
		}
	}
}

func TestGenerate_Success(t *testing.T) {
	var captured GenerateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		json.NewDecoder(r.Body).Decode(&captured)
		json.NewEncoder(w).Encode(generateResponse{Response: "  A polished paragraph.  "})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	got, err := c.Generate(context.Background(), GenerateRequest{
		Model:  "llama3",
		Prompt: "write something",
		System: "be professional",
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if got != "A polished paragraph." {
		t.Errorf("result = %q, want trimmed response", got)
	}
	if captured.Stream {
		t.Error("request had stream=true, want false")
	}
	if captured.System != "be professional" {
		t.Errorf("system = %q", captured.System)
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3", Prompt: "x"})

	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Errorf("error = %T (%v), want *UnreachableError", err, err)
	}
}

func TestGenerate_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "nope", Prompt: "x"})

	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %T (%v), want *StatusError", err, err)
	}
	if se.Code != http.StatusNotFound {
		t.Errorf("code = %d, want 404", se.Code)
	}
}

func TestGenerate_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3", Prompt: "x"})

	var me *MalformedError
	if !errors.As(err, &me) {
		t.Errorf("error = %T (%v), want *MalformedError", err, err)
	}
}

func TestGenerate_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   "})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "llama3", Prompt: "x"})

	var me *MalformedError
	if !errors.As(err, &me) {
		t.Errorf("error = %T (%v), want *MalformedError", err, err)
	}
}
