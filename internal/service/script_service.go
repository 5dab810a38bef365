package service

import (
	"github.com/sirupsen/logrus"

	"github.com/adstudio/api/internal/model"
)

// ScriptService turns a raw brief into a script and storyboard.
type ScriptService struct {
	validator *BriefValidator
	log       *logrus.Logger
}

func NewScriptService(v *BriefValidator, log *logrus.Logger) *ScriptService {
	return &ScriptService{
		validator: v,
		log:       log,
	}
}

// Generate validates the brief and synthesizes the script. Validation
// failures come back as *apperr.ValidationError and no scenes are produced.
func (s *ScriptService) Generate(in *model.BriefInput) (*model.ScriptResponse, error) {
	brief, err := s.validator.Validate(in)
	if err != nil {
		return nil, err
	}

	script, scenes := Synthesize(brief)

	s.log.WithFields(logrus.Fields{
		"product":   brief.ProductName,
		"style":     brief.Style,
		"archetype": brief.Archetype,
		"scenes":    len(scenes),
	}).Debug("script generated")

	return &model.ScriptResponse{
		Success: true,
		Script:  script,
		Scenes:  scenes,
	}, nil
}
