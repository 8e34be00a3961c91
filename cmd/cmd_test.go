package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ziadkadry99/intent-agent/internal/access"
	"github.com/ziadkadry99/intent-agent/internal/answer"
	"github.com/ziadkadry99/intent-agent/internal/config"
	"github.com/ziadkadry99/intent-agent/internal/intent"
	"github.com/ziadkadry99/intent-agent/internal/resolution"
	"github.com/ziadkadry99/intent-agent/internal/rules"
)

func demoOrchestrator() *resolution.Orchestrator {
	return resolution.New(access.DemoResolver(), intent.Default(), answer.NewTemplateGenerator())
}

// scripted answers clarifications from a fixed list and records the prompts.
type scripted struct {
	answers []string
	seen    [][]string
}

func (s *scripted) choose(label string, options []string) (string, error) {
	s.seen = append(s.seen, options)
	if len(s.answers) == 0 {
		return "", errors.New("no scripted answer left")
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func TestRunConversationClarifies(t *testing.T) {
	s := &scripted{answers: []string{"Merchant", "gross_sales"}}
	var out bytes.Buffer

	err := runConversation(context.Background(), demoOrchestrator(), "what were sales", "user_kushagra_token", s.choose, &out)
	if err != nil {
		t.Fatalf("runConversation: %v", err)
	}
	if len(s.seen) != 2 {
		t.Fatalf("expected 2 clarifications, got %d", len(s.seen))
	}
	if !reflect.DeepEqual(s.seen[0], []string{"Food", "Merchant", "Transport"}) {
		t.Errorf("scope options = %v", s.seen[0])
	}
	want := "Based on your query for 'gross_sales' in 'Merchant', here is the result."
	if strings.TrimSpace(out.String()) != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunConversationDirect(t *testing.T) {
	s := &scripted{}
	var out bytes.Buffer
	if err := runConversation(context.Background(), demoOrchestrator(), "show order count", "user_simple_token", s.choose, &out); err != nil {
		t.Fatal(err)
	}
	if len(s.seen) != 0 {
		t.Errorf("unexpected clarifications %v", s.seen)
	}
	if !strings.Contains(out.String(), "'order_count' in 'Food'") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunConversationFailure(t *testing.T) {
	var out bytes.Buffer
	err := runConversation(context.Background(), demoOrchestrator(), "q", "nope", (&scripted{}).choose, &out)
	if err == nil || !strings.Contains(err.Error(), "unauthorized") {
		t.Errorf("err = %v, want unauthorized failure", err)
	}
}

func TestRunConversationBlankQuery(t *testing.T) {
	s := &scripted{}
	err := runConversation(context.Background(), demoOrchestrator(), "", "user_kushagra_token", s.choose, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "invalid_query") {
		t.Errorf("err = %v, want invalid_query failure", err)
	}
	if len(s.seen) != 0 {
		t.Errorf("blank query must not ask for clarification, got %v", s.seen)
	}
}

func TestRunConversationChooserError(t *testing.T) {
	var out bytes.Buffer
	err := runConversation(context.Background(), demoOrchestrator(), "what were sales", "user_kushagra_token", (&scripted{}).choose, &out)
	if err == nil {
		t.Error("expected chooser error to end the conversation")
	}
}

func TestBuildGeneratorTemplate(t *testing.T) {
	cfg := config.DefaultConfig()
	gen, err := buildGenerator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := gen.(*answer.TemplateGenerator); !ok {
		t.Errorf("generator = %T, want *answer.TemplateGenerator", gen)
	}
}

func TestBuildGeneratorMissingKey(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	cfg := config.DefaultConfig()
	cfg.Provider = config.ProviderOpenAI
	cfg.Model = "gpt-4o"
	if _, err := buildGenerator(cfg); err == nil {
		t.Error("expected error without an API key")
	}
}

func TestBuildCodec(t *testing.T) {
	cfg := config.DefaultConfig()
	codec, err := buildCodec(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := codec.(resolution.JSONCodec); !ok {
		t.Errorf("codec = %T, want JSONCodec", codec)
	}

	cfg.Resolution.StateCodec = config.CodecSigned
	cfg.Resolution.SigningKey = "0123456789abcdef0123456789abcdef"
	codec, err = buildCodec(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := codec.(*resolution.SignedCodec); !ok {
		t.Errorf("codec = %T, want *SignedCodec", codec)
	}
}

func TestBuildDisambiguatorOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Rules.Scopes = []rules.Rule{{Result: "Logistics", Triggers: []string{"parcel"}}}

	d, err := buildDisambiguator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	res, err := d.ResolveScope("parcel volume", []string{"Food", "Logistics"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Scope != "Logistics" {
		t.Errorf("scope = %+v, want Logistics", res)
	}
}

func TestOpenPipeline(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "data", "intent.db")

	database, orch, err := openPipeline(cfg, newLogger())
	if err != nil {
		t.Fatalf("openPipeline: %v", err)
	}
	defer database.Close()

	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		t.Errorf("database file not created: %v", err)
	}

	// Stored tokens resolve ahead of the demo table.
	store := access.NewStore(database)
	ident, err := findOrCreateIdentity(context.Background(), store, "ops", []string{"Transport"})
	if err != nil {
		t.Fatal(err)
	}
	secret, _, err := store.IssueToken(context.Background(), ident.ID, "cli", 0)
	if err != nil {
		t.Fatal(err)
	}

	out := orch.Start(context.Background(), "avg delivery time", secret)
	final, ok := out.(*resolution.Final)
	if !ok {
		t.Fatalf("outcome = %T, want *Final", out)
	}
	if final.DebugContext[answer.KeyFinalContext] != "Transport" {
		t.Errorf("debug context = %v", final.DebugContext)
	}
}

func TestFindOrCreateIdentityNeedsScopes(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "intent.db")
	database, _, err := openPipeline(cfg, newLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if _, err := findOrCreateIdentity(context.Background(), access.NewStore(database), "ghost", nil); err == nil {
		t.Error("expected error for unknown identity without scopes")
	}
}

func TestFindOrCreateIdentityReusesExisting(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "intent.db")
	database, _, err := openPipeline(cfg, newLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	ctx := context.Background()
	store := access.NewStore(database)
	first, err := findOrCreateIdentity(ctx, store, "ops", []string{"Transport", "Food"})
	if err != nil {
		t.Fatal(err)
	}
	again, err := findOrCreateIdentity(ctx, store, "ops", nil)
	if err != nil {
		t.Fatalf("existing identity: %v", err)
	}
	if again.ID != first.ID || !reflect.DeepEqual(again.Scopes, []string{"Transport", "Food"}) {
		t.Errorf("got %+v, want %+v", again, first)
	}
}
