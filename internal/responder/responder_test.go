package responder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clinichub/clinic-gateway/internal/knowledge"
	"github.com/clinichub/clinic-gateway/internal/logging"
	"github.com/clinichub/clinic-gateway/internal/registry"
	"github.com/clinichub/clinic-gateway/internal/session"
)

type stubGenerator struct {
	lastModel  string
	lastPrompt string
	reply      string
	err        error
}

func (g *stubGenerator) Generate(_ context.Context, model, prompt string) (string, error) {
	g.lastModel = model
	g.lastPrompt = prompt
	return g.reply, g.err
}

func testSession() *session.Session {
	st := session.NewStore(30*time.Minute, "en", logging.WithComponent("test"))
	return st.GetOrCreate("u1", "messenger")
}

func TestFacadeDeterministicKind(t *testing.T) {
	pack := knowledge.Default()
	f := NewFacade(pack, logging.WithComponent("test"))
	d := &registry.Descriptor{Name: "keyword", Kind: registry.KindDeterministic, Provider: "keyword", Enabled: true}

	got, err := f.Generate(context.Background(), "where is the clinic", testSession(), "en", d)
	if err != nil {
		t.Fatal(err)
	}
	if got != pack.Reply(knowledge.CategoryLocation, "en") {
		t.Errorf("got %q, want the location reply", got)
	}
}

func TestFacadeGenerativePrompt(t *testing.T) {
	pack := knowledge.Default()
	f := NewFacade(pack, logging.WithComponent("test"))
	stub := &stubGenerator{reply: "  The dentist is in on Tuesday.  "}
	f.Register("gemini", stub)

	sess := testSession()
	sess.AddTurn("hi", "hello!", sess.LastInteraction())
	sess.AddTurn("where are you", "Main Building", sess.LastInteraction())

	d := &registry.Descriptor{Name: "gemini-flash", Kind: registry.KindGenerative, Provider: "gemini", Model: "gemini-1.5-flash", Enabled: true}
	got, err := f.Generate(context.Background(), "when is the dentist in?", sess, "tl", d)
	if err != nil {
		t.Fatal(err)
	}
	if got != "The dentist is in on Tuesday." {
		t.Errorf("reply not trimmed: %q", got)
	}
	if stub.lastModel != "gemini-1.5-flash" {
		t.Errorf("model = %q", stub.lastModel)
	}
	for _, want := range []string{
		pack.Clinic.Location,      // fact sheet
		"User: where are you",     // history
		"Reply in Tagalog",        // language directive
		"when is the dentist in?", // utterance
	} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, stub.lastPrompt)
		}
	}
}

func TestFacadeUnknownProvider(t *testing.T) {
	f := NewFacade(knowledge.Default(), logging.WithComponent("test"))
	d := &registry.Descriptor{Name: "x", Kind: registry.KindGenerative, Provider: "nope", Enabled: true}
	if _, err := f.Generate(context.Background(), "hi", testSession(), "en", d); err == nil {
		t.Fatal("expected error for unregistered provider")
	}
}

func TestGeminiQuotaError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"status":"RESOURCE_EXHAUSTED","message":"quota"}}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	_, err = c.Generate(context.Background(), "gemini-1.5-flash", "hi")
	if !IsQuota(err) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestGeminiSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "models/gemini-1.5-flash") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"8 AM to 5 PM"}]}}]}`))
	}))
	defer srv.Close()

	c, err := NewGeminiClient(GeminiConfig{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Generate(context.Background(), "gemini-1.5-flash", "hours?")
	if err != nil {
		t.Fatal(err)
	}
	if got != "8 AM to 5 PM" {
		t.Errorf("got %q", got)
	}
}

func TestIsQuota(t *testing.T) {
	if IsQuota(nil) {
		t.Error("nil is not a quota error")
	}
	if !IsQuota(&QuotaError{Provider: "gemini", Err: context.DeadlineExceeded}) {
		t.Error("typed quota error not detected")
	}
	if !IsQuota(errString("backend said: Too Many Requests")) {
		t.Error("message sniffing failed")
	}
	if IsQuota(errString("malformed input")) {
		t.Error("plain error misclassified as quota")
	}
}

type errString string

func (e errString) Error() string { return string(e) }
