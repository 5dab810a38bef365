package service

import (
	"fmt"
	"strings"

	"github.com/adstudio/api/internal/model"
)

// sceneSlot fixes the role, duration and emoji of a storyboard position.
type sceneSlot struct {
	Role     model.SceneRole
	Duration int
	Emoji    string
	Heading  string
}

// storyboardSlots is the fixed 60-second shape every storyboard follows.
var storyboardSlots = [...]sceneSlot{
	{model.SceneRoleHook, 10, "✨", "THE HOOK"},
	{model.SceneRoleProblem, 8, "😤", "THE PROBLEM"},
	{model.SceneRoleSolution, 12, "💡", "THE SOLUTION"},
	{model.SceneRoleTransformation, 12, "🚀", "THE TRANSFORMATION"},
	{model.SceneRoleProof, 8, "💬", "SOCIAL PROOF"},
	{model.SceneRoleCTA, 10, "🎯", "CALL TO ACTION"},
}

// StoryboardDurations returns the per-position scene durations in seconds.
func StoryboardDurations() []int {
	out := make([]int, len(storyboardSlots))
	for i, slot := range storyboardSlots {
		out[i] = slot.Duration
	}
	return out
}

var archetypeOpenings = map[model.Archetype]string{
	model.ArchetypeHeroJourney:     "A hero emerges, faces challenges, and triumphs with %s.",
	model.ArchetypeTestimonial:     "Real people share their transformative experience with %s.",
	model.ArchetypeProblemSolution: "The struggle is real... until %s changes everything.",
	model.ArchetypeTutorial:        "Discover how easy it is to use %s in just 3 simple steps.",
	model.ArchetypeComedy:          "Life's better with a laugh... and %s.",
	model.ArchetypeLifestyle:       "Imagine your best life. Now imagine it with %s.",
}

var styleVisuals = map[model.Style]string{
	model.StyleCinematic:    "sweeping cinematic shots with dramatic lighting",
	model.StyleMinimalist:   "clean minimalist frames with plenty of negative space",
	model.StyleEnergetic:    "quick energetic cuts and bold motion",
	model.StyleWarm:         "warm golden tones and cozy close-ups",
	model.StyleProfessional: "polished professional compositions",
	model.StylePlayful:      "bright playful colors and whimsical movement",
}

// ToneWord maps mood to the word used in prompts and the script header.
func ToneWord(mood int) string {
	switch {
	case mood > 60:
		return "exciting"
	case mood < 40:
		return "calm"
	default:
		return "balanced"
	}
}

// PaceWord maps energy to the pacing used in the script header.
func PaceWord(energy int) string {
	switch {
	case energy > 60:
		return "fast-paced"
	case energy < 40:
		return "slow"
	default:
		return "moderate"
	}
}

// Synthesize builds the script and the six-scene storyboard for a validated brief.
// Output depends only on the brief.
func Synthesize(brief *model.CreativeBrief) (string, []model.Scene) {
	return buildScript(brief), buildScenes(brief)
}

func buildScript(b *model.CreativeBrief) string {
	opening, ok := archetypeOpenings[b.Archetype]
	if !ok {
		opening = archetypeOpenings[model.ArchetypeHeroJourney]
	}
	tone := ToneWord(b.Mood)
	pace := PaceWord(b.Energy)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s STYLE - %s, %s PACE]\n\n",
		strings.ToUpper(string(b.Style)), strings.ToUpper(tone), strings.ToUpper(pace))
	fmt.Fprintf(&sb, "OPENING (0:00-0:10):\n%s\n\n", fmt.Sprintf(opening, b.ProductName))

	fmt.Fprintf(&sb, "SCENE 1 - %s:\nOpen with an attention-grabbing visual that introduces the world of %s.\n",
		storyboardSlots[0].Heading, b.ProductName)
	if b.TargetAudience != "" {
		fmt.Fprintf(&sb, "Target Audience: %s\n", b.TargetAudience)
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "SCENE 2 - %s:\nShow the pain point that %s solves. Make viewers feel understood.\n\n",
		storyboardSlots[1].Heading, b.ProductName)
	fmt.Fprintf(&sb, "SCENE 3 - %s:\nReveal %s as the answer. Highlight key features and benefits.\n%s\n\n",
		storyboardSlots[2].Heading, b.ProductName, b.Description)
	fmt.Fprintf(&sb, "SCENE 4 - %s:\nShow the before/after. Demonstrate the positive change %s brings.\n\n",
		storyboardSlots[3].Heading, b.ProductName)
	fmt.Fprintf(&sb, "SCENE 5 - %s:\nQuick testimonials or user reactions that build trust and credibility.\n\n",
		storyboardSlots[4].Heading)
	fmt.Fprintf(&sb, "SCENE 6 - %s:\n%s\nStrong closing with logo and CTA overlay.\n\n",
		storyboardSlots[5].Heading, callToAction(b))

	fmt.Fprintf(&sb, "[END OF SCRIPT - ~%d seconds total]", totalSlotSeconds())
	return sb.String()
}

func buildScenes(b *model.CreativeBrief) []model.Scene {
	tone := ToneWord(b.Mood)
	visual := styleVisuals[b.Style]
	product := b.ProductName

	descriptions := [len(storyboardSlots)]string{
		fmt.Sprintf("Opening hook - introduce %s with %s, %s %s mood", product, visual, tone, b.Style),
		fmt.Sprintf("The everyday problem %s solves, shown in a %s %s look", product, tone, b.Style),
		fmt.Sprintf("Reveal %s as the solution in %s style: %s, %s tone", product, b.Style, visual, tone),
		fmt.Sprintf("Before and after with %s: the transformation in %s %s style", product, tone, b.Style),
		fmt.Sprintf("Happy customers using %s, %s %s testimonials", product, tone, b.Style),
		fmt.Sprintf("Call to action - %s over a %s %s %s end card", callToActionShort(b), tone, b.Style, product),
	}

	narrations := [len(storyboardSlots)]string{
		fmt.Sprintf("What if there was a better way? Introducing %s.", product),
		"We've all been there. The frustration. The struggle.",
		solutionNarration(b),
		"See the difference. Feel the change.",
		"Join thousands who already made the switch.",
		ctaNarration(b),
	}

	scenes := make([]model.Scene, len(storyboardSlots))
	for i, slot := range storyboardSlots {
		scenes[i] = model.Scene{
			Index:       i + 1,
			Description: descriptions[i],
			Duration:    slot.Duration,
			Narration:   narrations[i],
			VisualEmoji: slot.Emoji,
			Tags:        []string{string(slot.Role), string(b.Style), tone},
		}
	}
	return scenes
}

func solutionNarration(b *model.CreativeBrief) string {
	desc := []rune(b.Description)
	if len(desc) > 50 {
		return fmt.Sprintf("%s changes everything. %s...", b.ProductName, string(desc[:50]))
	}
	return fmt.Sprintf("%s changes everything. %s", b.ProductName, b.Description)
}

func callToAction(b *model.CreativeBrief) string {
	if b.CallToAction != "" {
		return b.CallToAction
	}
	return fmt.Sprintf("Get %s today!", b.ProductName)
}

func callToActionShort(b *model.CreativeBrief) string {
	if b.CallToAction != "" {
		return b.CallToAction
	}
	return "Get started today"
}

func ctaNarration(b *model.CreativeBrief) string {
	if b.CallToAction != "" {
		return b.CallToAction
	}
	return fmt.Sprintf("Get %s now. Limited time offer!", b.ProductName)
}

func totalSlotSeconds() int {
	total := 0
	for _, slot := range storyboardSlots {
		total += slot.Duration
	}
	return total
}
