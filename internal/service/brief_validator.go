package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/adstudio/api/internal/apperr"
	"github.com/adstudio/api/internal/model"
)

const (
	DefaultMood      = 50
	DefaultEnergy    = 50
	DefaultStyle     = model.StyleCinematic
	DefaultArchetype = model.ArchetypeHeroJourney
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// BriefValidator checks briefs and storyboards. It never mutates its input.
type BriefValidator struct {
	validate *validator.Validate
}

func NewBriefValidator(v *validator.Validate) *BriefValidator {
	if v == nil {
		v = NewValidator()
	}
	return &BriefValidator{validate: v}
}

// Validate trims text fields, fills defaults and checks every rule.
// The returned error is an *apperr.ValidationError naming all bad fields.
func (bv *BriefValidator) Validate(in *model.BriefInput) (*model.CreativeBrief, error) {
	if in == nil {
		return nil, &apperr.ValidationError{Fields: []apperr.FieldError{
			{Field: "brief", Rule: "required", Message: "is required"},
		}}
	}

	brief := normalizeBrief(in)
	if err := bv.Struct(brief); err != nil {
		return nil, err
	}
	return brief, nil
}

// ValidateStoryboard checks an edited or synthesized scene list.
func (bv *BriefValidator) ValidateStoryboard(scenes []model.Scene) ([]model.Scene, error) {
	board := &model.Storyboard{Scenes: normalizeScenes(scenes)}
	if err := bv.Struct(board); err != nil {
		return nil, err
	}
	return board.Scenes, nil
}

// ValidateVideoRequest validates brief and scenes together so the caller
// sees every problem in one response.
func (bv *BriefValidator) ValidateVideoRequest(req *model.VideoRequest) (*model.CreativeBrief, []model.Scene, error) {
	var fields []apperr.FieldError

	brief, err := bv.Validate(req.BriefInput())
	if err != nil {
		fields = append(fields, prefixed("brief", err)...)
	}

	scenes, err := bv.ValidateStoryboard(req.Scenes)
	if err != nil {
		fields = append(fields, prefixed("", err)...)
	}

	if len(fields) > 0 {
		return nil, nil, &apperr.ValidationError{Fields: fields}
	}
	return brief, scenes, nil
}

// Struct runs struct-tag validation and converts the result to apperr.
func (bv *BriefValidator) Struct(s interface{}) error {
	err := bv.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: ruleMessage(fe),
		})
	}
	return &apperr.ValidationError{Fields: fields}
}

func normalizeBrief(in *model.BriefInput) *model.CreativeBrief {
	brief := &model.CreativeBrief{
		ProductName:    strings.TrimSpace(in.ProductName),
		Description:    strings.TrimSpace(in.Description),
		Mood:           DefaultMood,
		Energy:         DefaultEnergy,
		Style:          model.Style(strings.TrimSpace(in.Style)),
		Archetype:      model.Archetype(strings.TrimSpace(in.Archetype)),
		TargetAudience: strings.TrimSpace(in.TargetAudience),
		CallToAction:   strings.TrimSpace(in.CallToAction),
	}
	if in.Mood != nil {
		brief.Mood = *in.Mood
	}
	if in.Energy != nil {
		brief.Energy = *in.Energy
	}
	if brief.Style == "" {
		brief.Style = DefaultStyle
	}
	if brief.Archetype == "" {
		brief.Archetype = DefaultArchetype
	}
	return brief
}

func normalizeScenes(scenes []model.Scene) []model.Scene {
	if scenes == nil {
		return nil
	}
	out := make([]model.Scene, len(scenes))
	for i, s := range scenes {
		s.Description = strings.TrimSpace(s.Description)
		s.Narration = strings.TrimSpace(s.Narration)
		if s.Tags != nil {
			s.Tags = append([]string(nil), s.Tags...)
		}
		out[i] = s
	}
	return out
}

// fieldPath drops the root struct name: "CreativeBrief.mood" -> "mood".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func prefixed(prefix string, err error) []apperr.FieldError {
	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		return []apperr.FieldError{{Field: prefix, Rule: "invalid", Message: err.Error()}}
	}
	if prefix == "" {
		return verr.Fields
	}
	out := make([]apperr.FieldError, len(verr.Fields))
	for i, f := range verr.Fields {
		if f.Field != prefix {
			f.Field = prefix + "." + f.Field
		}
		out[i] = f
	}
	return out
}

func ruleMessage(fe validator.FieldError) string {
	isText := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max", "lte":
		if isText {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min", "gte":
		if isText {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
