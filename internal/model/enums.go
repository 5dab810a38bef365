package model

// Visual styles
type Style string

const (
	StyleCinematic    Style = "cinematic"
	StyleMinimalist   Style = "minimalist"
	StyleEnergetic    Style = "energetic"
	StyleWarm         Style = "warm"
	StyleProfessional Style = "professional"
	StylePlayful      Style = "playful"
)

var ValidStyles = []Style{
	StyleCinematic, StyleMinimalist, StyleEnergetic,
	StyleWarm, StyleProfessional, StylePlayful,
}

// Story archetypes
type Archetype string

const (
	ArchetypeHeroJourney     Archetype = "hero-journey"
	ArchetypeTestimonial     Archetype = "testimonial"
	ArchetypeProblemSolution Archetype = "problem-solution"
	ArchetypeTutorial        Archetype = "tutorial"
	ArchetypeComedy          Archetype = "comedy"
	ArchetypeLifestyle       Archetype = "lifestyle"
)

var ValidArchetypes = []Archetype{
	ArchetypeHeroJourney, ArchetypeTestimonial, ArchetypeProblemSolution,
	ArchetypeTutorial, ArchetypeComedy, ArchetypeLifestyle,
}

// Scene roles, in storyboard order
type SceneRole string

const (
	SceneRoleHook           SceneRole = "hook"
	SceneRoleProblem        SceneRole = "problem"
	SceneRoleSolution       SceneRole = "solution"
	SceneRoleTransformation SceneRole = "transformation"
	SceneRoleProof          SceneRole = "proof"
	SceneRoleCTA            SceneRole = "cta"
)

// Video providers
type ProviderChoice string

const (
	ProviderRunway    ProviderChoice = "runway"
	ProviderStability ProviderChoice = "stability"
	ProviderMock      ProviderChoice = "mock"
)

// Job status
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCanceled  JobStatus = "canceled"
)

// CatalogEntry describes a selectable option in the wizard.
type CatalogEntry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var ArchetypeCatalog = []CatalogEntry{
	{ID: string(ArchetypeHeroJourney), Name: "Hero's Journey", Description: "Overcome challenges, achieve greatness"},
	{ID: string(ArchetypeTestimonial), Name: "Testimonial", Description: "Real stories, authentic voices"},
	{ID: string(ArchetypeProblemSolution), Name: "Problem-Solution", Description: "Show the pain, reveal the cure"},
	{ID: string(ArchetypeTutorial), Name: "Tutorial", Description: "Step-by-step demonstration"},
	{ID: string(ArchetypeComedy), Name: "Comedy Skit", Description: "Humor that sticks"},
	{ID: string(ArchetypeLifestyle), Name: "Lifestyle", Description: "Aspirational, emotional connection"},
}

var StyleCatalog = []CatalogEntry{
	{ID: string(StyleCinematic), Name: "Cinematic", Description: "Epic, movie-like visuals"},
	{ID: string(StyleMinimalist), Name: "Minimalist", Description: "Clean, simple aesthetics"},
	{ID: string(StyleEnergetic), Name: "Energetic", Description: "Fast-paced, dynamic"},
	{ID: string(StyleWarm), Name: "Warm", Description: "Cozy, inviting feel"},
	{ID: string(StyleProfessional), Name: "Professional", Description: "Corporate, polished"},
	{ID: string(StylePlayful), Name: "Playful", Description: "Fun, whimsical style"},
}
