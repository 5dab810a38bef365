package model

// BriefInput is the brief as submitted by the wizard. Omitted mood/energy
// and style/archetype are filled with defaults before validation.
type BriefInput struct {
	ProductName    string `json:"productName"`
	Description    string `json:"description"`
	Mood           *int   `json:"mood"`
	Energy         *int   `json:"energy"`
	Style          string `json:"style"`
	Archetype      string `json:"archetype"`
	TargetAudience string `json:"targetAudience"`
	CallToAction   string `json:"callToAction"`
}

// CreativeBrief is a validated brief. It is not modified after validation.
type CreativeBrief struct {
	ProductName    string    `json:"productName" validate:"required,max=200"`
	Description    string    `json:"description" validate:"required,max=5000"`
	Mood           int       `json:"mood" validate:"min=0,max=100"`
	Energy         int       `json:"energy" validate:"min=0,max=100"`
	Style          Style     `json:"style" validate:"required,oneof=cinematic minimalist energetic warm professional playful"`
	Archetype      Archetype `json:"archetype" validate:"required,oneof=hero-journey testimonial problem-solution tutorial comedy lifestyle"`
	TargetAudience string    `json:"targetAudience,omitempty" validate:"omitempty,max=500"`
	CallToAction   string    `json:"callToAction,omitempty" validate:"omitempty,max=200"`
}

// ScriptResponse represents the response for script generation
type ScriptResponse struct {
	Success bool    `json:"success"`
	Script  string  `json:"script"`
	Scenes  []Scene `json:"scenes"`
}

// ArchetypesResponse lists the story archetypes
type ArchetypesResponse struct {
	Archetypes []CatalogEntry `json:"archetypes"`
}

// StylesResponse lists the visual styles
type StylesResponse struct {
	Styles []CatalogEntry `json:"styles"`
}
