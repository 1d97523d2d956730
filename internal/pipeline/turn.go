// Package pipeline runs one conversational turn end to end: normalize the
// language, extract profile fields, merge them into the caller-supplied
// state, and either ask the next question or call the prediction service.
// The pipeline holds no state of its own; the partial profile travels with
// the caller, which makes turns idempotent and safe to process concurrently.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wagebud/wagebud/internal/extract"
	"github.com/wagebud/wagebud/internal/predictor"
	"github.com/wagebud/wagebud/internal/profile"
)

// Status tags the one active variant of an Outcome.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusNeedMoreInfo Status = "need_more_info"
	StatusError        Status = "error"
)

// DataQualityField marks a turn whose extraction could not be parsed. Hosts
// use it to avoid advancing stored state on such turns.
const DataQualityField = "data_quality"

const (
	dataQualityQuestion = "I couldn't quite make sense of that. Could you restate it with details like your age, years of experience, education, gender, country, and industry?"
	apologyMessage      = "Sorry, the wage estimation service is unavailable right now. Please try again in a moment."
)

// TurnInput is one turn's worth of caller input. CurrentState carries the
// profile accumulated on previous turns; nil means a fresh conversation.
type TurnInput struct {
	Text         string
	CurrentState *profile.Profile
}

// Outcome is the complete result of one turn. Exactly one status variant is
// active; fields belonging to other variants are empty, never stale.
// StructuredData echoes the merged profile (or, after a parse failure, a
// diagnostic marker) and is what the caller passes back as CurrentState.
type Outcome struct {
	Status        Status   `json:"status"`
	Message       string   `json:"message"`
	PredictedWage *float64 `json:"predictedWage,omitempty"`
	StructuredData any     `json:"structuredData"`
	Explanation   string   `json:"explanation,omitempty"`
	KeyFactors    []string `json:"keyFactors,omitempty"`
	Language      string   `json:"language"`

	// MissingFields is host-facing metadata, not part of the wire contract.
	MissingFields []string `json:"-"`
}

// Normalizer produces the pivot-language text and the detected language tag.
type Normalizer interface {
	Normalize(ctx context.Context, text string) (pivotText, languageTag string)
}

// Extractor returns the raw candidate extraction for one utterance.
type Extractor interface {
	Extract(ctx context.Context, text string, current profile.Profile) (string, error)
}

// Predictor calls the external wage-prediction service.
type Predictor interface {
	Predict(ctx context.Context, req predictor.Request) (float64, error)
}

// Explainer produces a rationale for a successful prediction.
type Explainer interface {
	Explain(ctx context.Context, p profile.Profile, wage float64) (string, []string)
}

// Localizer translates user-facing text back into the turn's language.
type Localizer interface {
	Localize(ctx context.Context, tag, text string) string
}

// Runner wires the pipeline stages together.
type Runner struct {
	normalizer Normalizer
	extractor  Extractor
	predictor  Predictor
	explainer  Explainer
	localizer  Localizer
}

// NewRunner creates a Runner from its stage components.
func NewRunner(n Normalizer, e Extractor, p Predictor, x Explainer, l Localizer) *Runner {
	return &Runner{
		normalizer: n,
		extractor:  e,
		predictor:  p,
		explainer:  x,
		localizer:  l,
	}
}

// Turn processes one user message against the supplied state and returns a
// well-formed Outcome for every input; nothing in the pipeline is
// process-fatal.
func (r *Runner) Turn(ctx context.Context, in TurnInput) Outcome {
	pivotText, tag := r.normalizer.Normalize(ctx, in.Text)

	var current profile.Profile
	if in.CurrentState != nil {
		current = *in.CurrentState
	}

	raw, err := r.extractor.Extract(ctx, pivotText, current)
	var res *extract.Result
	if err == nil {
		res, err = extract.Validate(raw)
	}
	if err != nil {
		slog.Warn("extraction failed", "error", err, "raw", raw)
		return Outcome{
			Status:  StatusNeedMoreInfo,
			Message: r.localizer.Localize(ctx, tag, dataQualityQuestion),
			StructuredData: map[string]string{
				"error":       "extraction_failed",
				"rawResponse": raw,
			},
			Language:      tag,
			MissingFields: []string{DataQualityField},
		}
	}

	merged := profile.Merge(current, res.Profile)

	if !merged.Ready() {
		question := res.NextQuestion
		if question == "" {
			question = fallbackQuestion(merged)
		}
		return Outcome{
			Status:         StatusNeedMoreInfo,
			Message:        r.localizer.Localize(ctx, tag, question),
			StructuredData: merged,
			Language:       tag,
			MissingFields:  consistentMissing(res.MissingFields, merged),
		}
	}

	clean := merged.Standardize()
	wage, err := r.predictor.Predict(ctx, requestFrom(clean))
	if err != nil {
		var se *predictor.ServiceError
		if errors.As(err, &se) {
			slog.Error("prediction service call failed", "status", se.Status, "body", se.Body, "error", se.Err)
		} else {
			slog.Error("prediction service call failed", "error", err)
		}
		return Outcome{
			Status:         StatusError,
			Message:        r.localizer.Localize(ctx, tag, apologyMessage),
			StructuredData: clean,
			Language:       tag,
		}
	}

	explanation, factors := r.explainer.Explain(ctx, clean, wage)
	message := fmt.Sprintf("Based on your profile, your estimated yearly wage is %.0f.", wage)

	return Outcome{
		Status:         StatusSuccess,
		Message:        r.localizer.Localize(ctx, tag, message),
		PredictedWage:  &wage,
		StructuredData: clean,
		Explanation:    r.localizer.Localize(ctx, tag, explanation),
		KeyFactors:     factors,
		Language:       tag,
	}
}

// consistentMissing drops reported missing fields that the merged profile
// actually holds, so missingFields never contradicts the profile. The
// collaborator's report is otherwise trusted as-is; when it reports nothing
// useful the list is recomputed from the profile.
func consistentMissing(reported []string, merged profile.Profile) []string {
	var missing []string
	for _, name := range reported {
		if merged.Field(name) == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		missing = merged.Missing()
	}
	return missing
}

// fieldQuestions are the stand-in clarifying questions used when the
// collaborator does not supply one.
var fieldQuestions = map[string]string{
	"age":              "How old are you?",
	"years_experience": "How many years of work experience do you have?",
	"education":        "What is your highest education level?",
	"gender":           "What is your gender?",
	"country":          "Which country do you work in?",
	"industry":         "Which industry do you work in?",
}

func fallbackQuestion(p profile.Profile) string {
	missing := p.Missing()
	if len(missing) == 0 {
		return dataQualityQuestion
	}
	return fieldQuestions[missing[0]]
}

// requestFrom converts a complete, standardized profile into the prediction
// request. Only call when the profile is ready.
func requestFrom(p profile.Profile) predictor.Request {
	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	return predictor.Request{
		Age:             deref(p.Age),
		YearsExperience: deref(p.YearsExperience),
		Education:       deref(p.Education),
		Gender:          deref(p.Gender),
		Country:         deref(p.Country),
		Industry:        deref(p.Industry),
	}
}
