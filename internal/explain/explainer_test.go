package explain

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/wagebud/wagebud/internal/ollama"
	"github.com/wagebud/wagebud/internal/profile"
)

type mockChatter struct {
	response string
	err      error
}

func (m *mockChatter) Chat(ctx context.Context, model string, messages []ollama.Message, schema *ollama.Schema) (string, error) {
	return m.response, m.err
}

func TestExplain_WellFormedOutput(t *testing.T) {
	mock := &mockChatter{response: `EXPLANATION: Wages in German tech are above the national median for mid-career profiles.
FACTORS:
1. Technology industry premium
2. 3-5 years of experience
3. German labor market`}
	e := New(mock, "mistral")

	explanation, factors := e.Explain(context.Background(), profile.Profile{}, 55000)

	if !strings.Contains(explanation, "German tech") {
		t.Errorf("explanation = %q, want parsed EXPLANATION line", explanation)
	}
	want := []string{
		"Technology industry premium",
		"3-5 years of experience",
		"German labor market",
	}
	if !reflect.DeepEqual(factors, want) {
		t.Errorf("factors = %v, want %v", factors, want)
	}
}

func TestExplain_ToleratesSurroundingText(t *testing.T) {
	mock := &mockChatter{response: `Sure, here is my analysis:

EXPLANATION: Experience drives most of this estimate.
FACTORS:
1) First factor
2) Second factor
3) Third factor

Hope this helps!`}
	e := New(mock, "mistral")

	explanation, factors := e.Explain(context.Background(), profile.Profile{}, 40000)

	if explanation != "Experience drives most of this estimate." {
		t.Errorf("explanation = %q", explanation)
	}
	if len(factors) != 3 || factors[0] != "First factor" {
		t.Errorf("factors = %v", factors)
	}
}

func TestExplain_NumberedExplanationNotMistakenForFactors(t *testing.T) {
	mock := &mockChatter{response: `EXPLANATION: Two things matter here:
1. pay scales with seniority
2. tech pays a premium
FACTORS:
1. Years of professional experience
2. Technology industry premium
3. Country labor market`}
	e := New(mock, "mistral")

	_, factors := e.Explain(context.Background(), profile.Profile{}, 60000)

	want := []string{
		"Years of professional experience",
		"Technology industry premium",
		"Country labor market",
	}
	if !reflect.DeepEqual(factors, want) {
		t.Errorf("factors = %v, want only the FACTORS list %v", factors, want)
	}
}

func TestExplain_MissingFactorsHeaderUsesFallback(t *testing.T) {
	mock := &mockChatter{response: `EXPLANATION: Here is why:
1. one reason
2. another reason
3. a third reason`}
	e := New(mock, "mistral")

	_, factors := e.Explain(context.Background(), profile.Profile{}, 60000)

	if !reflect.DeepEqual(factors, fallbackFactors) {
		t.Errorf("factors = %v, want fallback list when no FACTORS header exists", factors)
	}
}

func TestExplain_TooFewFactorsUsesFallback(t *testing.T) {
	mock := &mockChatter{response: "EXPLANATION: Something.\nFACTORS:\n1. Only one factor"}
	e := New(mock, "mistral")

	_, factors := e.Explain(context.Background(), profile.Profile{}, 40000)

	if !reflect.DeepEqual(factors, fallbackFactors) {
		t.Errorf("factors = %v, want fallback list", factors)
	}
}

func TestExplain_ChatFailureUsesFallback(t *testing.T) {
	mock := &mockChatter{err: errors.New("unreachable")}
	e := New(mock, "mistral")

	explanation, factors := e.Explain(context.Background(), profile.Profile{}, 55000)

	if explanation == "" {
		t.Error("explanation is empty, want generic fallback")
	}
	if !reflect.DeepEqual(factors, fallbackFactors) {
		t.Errorf("factors = %v, want fallback list", factors)
	}
}

func TestExplain_MoreThanThreeFactorsCapped(t *testing.T) {
	mock := &mockChatter{response: `EXPLANATION: E.
FACTORS:
1. a
2. b
3. c
4. d`}
	e := New(mock, "mistral")

	_, factors := e.Explain(context.Background(), profile.Profile{}, 55000)

	if len(factors) != 3 {
		t.Errorf("len(factors) = %d, want 3", len(factors))
	}
}
