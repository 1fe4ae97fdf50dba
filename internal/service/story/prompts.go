package story

import (
	"fmt"
	"strings"

	"storyreel/internal/config"
)

const storySystemPrompt = `You are a versatile content creator writing in %s for short vertical videos. You write engaging, clear prose that fits the requested genre, and you follow formatting instructions exactly.

Titles must be catchy, unique and hint at the core of the content.
Descriptions must summarise the content in 150-200 characters and end with 2-4 relevant hashtags, the last one being %s.`

const characterSystemPrompt = `You analyse stories and produce consistent, vivid descriptions of each character's permanent physical appearance. You never describe clothing or temporary expressions.`

const characterPrompt = `Based on the story below, describe every character: name, ethnicity, gender, age, facial features, body type, hair style and accessories. Only describe permanent or long-term attributes.

Story:
%s

Rules:
- Use each name exactly as it appears in the story.
- Facial features cover eyes, nose, mouth, jaw, face shape and notable marks such as scars or facial hair.
- Body type covers height and build. Hair style covers colour, length, style and texture.
- Accessories are non-clothing items (jewellery, glasses, watches) the character consistently carries.
- Never describe clothing.

Reply with a JSON array only, no extra text:
[
  {
    "name": "Character Name",
    "ethnicity": "...",
    "gender": "...",
    "age": "...",
    "facial_features": "...",
    "body_type": "...",
    "hair_style": "...",
    "accessories": "..."
  }
]`

// storyPrompt 构建故事生成的 user 提示词
func storyPrompt(storyType, language, hashtag string, limit config.LengthSpec) string {
	return fmt.Sprintf(`Write content in %s.

1. Title: an engaging, relevant title.
2. Description: 150-200 characters with 2-4 relevant hashtags, the last hashtag being %s.
3. Content: follow the guidelines below.

%s

The main content must be between %d and %d characters long.

Reply in exactly this layout:
Title: [title]

Description: [description]

[content]`, language, hashtag, contentGuidelines(storyType), limit.Min, limit.Max)
}

func contentGuidelines(storyType string) string {
	switch {
	case isType(storyType, TypePhilosophy):
		return `Write a thought-provoking philosophical story or dialogue:
- Open with a fundamental philosophical question or dilemma.
- Let one or more characters embody different perspectives.
- Use a setting, analogy or thought experiment that makes the ideas concrete.
- Develop the argument step by step through dialogue or inner monologue.
- End with an open question that invites further reflection.
Keep it accessible to a general audience.`
	case isType(storyType, TypeLifeProTips):
		return `Write one practical life pro tip from personal finance, cooking, relationships or health:
- Start with one sentence stating the tip.
- Explain why it works, how to apply it step by step, and give one or two real-life examples.
- Pick something useful that is not common knowledge.
Present it as one cohesive paragraph.`
	case isType(storyType, TypeFunFacts):
		return `Write one surprising, verifiable fun fact from science, history, culture, nature or technology:
- Start with one sentence stating the fact.
- Add context, history and implications that connect it to everyday life.
Present it as one cohesive paragraph that sparks curiosity.`
	case isType(storyType, TypeLongFormJokes):
		return `Write one long-form joke suitable for a general audience:
- Build a detailed narrative with vivid characters and setting.
- Pace the build-up, use misdirection and callbacks.
- Finish with a strong, unexpected punchline.`
	case isType(storyType, TypeBedtime):
		return `Write a soothing bedtime story for children:
- A relatable protagonist in a cozy or dreamy setting.
- A gentle problem resolved peacefully, with a subtle positive lesson.
- Simple, calm language with some rhythm or repetition. Nothing scary or over-exciting.`
	case isType(storyType, TypeUrbanLegends):
		return `Tell a chilling urban legend from a specific region or culture:
- Describe its supposed origins, the core story in vivid detail and notable variations.
- Mention real events that may have inspired it and its effect on local culture.
- Keep an atmosphere of unease and leave its truth uncertain.`
	}

	var b strings.Builder
	fmt.Fprintf(&b, `Write an engaging, imaginative %s story:
- A compelling protagonist with clear goals.
- A vivid setting and a central conflict.
- An emotional journey with a clear beginning, middle and end.
- Language and tone that fit the %s genre.`, storyType, storyType)
	if isType(storyType, TypeInterestingHistory) {
		b.WriteString("\nBase the story on real historical events and figures, with accurate details.")
	}
	return b.String()
}

// 分镜可选词汇
const (
	fullVocabulary = `Use only these values:
- Camera angles: low angle, high angle, Dutch angle, bird's eye view, worm's eye view, eye level, canted angle
- Composition types: single shot, two-shot, over-the-shoulder, insert shot, establishing shot
- Shot sizes: extreme close-up, close-up, medium shot, full body shot, long shot, wide shot, extreme long shot
- Lighting: three-point lighting, high-key lighting, low-key lighting, natural lighting, practical lighting, motivated lighting, rim lighting, soft lighting, hard lighting, silhouette lighting
- Transitions: zoom-in, zoom-out`

	factVocabulary = `Use only these values:
- Shot sizes: medium shot, full body shot, wide shot
- Lighting: natural lighting, soft lighting, three-point lighting
- Transitions: zoom-in, zoom-out`

	transitionRules = `Transition rules:
- zoom-in focuses on a detail, builds tension or shows a point of view.
- zoom-out reveals context, closes a sequence or shows isolation.
- Never use zoom-in when the shot size is close-up or extreme close-up.
- No other transition types (no fade, dissolve, cut or shake).
- Camera, composition and lighting must match the scene: no two-shot with one character, no over-the-shoulder without dialogue, no natural lighting indoors without windows.`

	possessiveRule = `- When a character's possessive name refers to a place or object rather than their appearance, wrap it in double curly braces, e.g. "{{Giovanni's}} workshop".`
)

const storyboardSystemPrompt = `You are a storyboard artist for short vertical videos. You turn text into cinematic, concrete scene descriptions, choose fitting camera and lighting setups, and you quote the source text verbatim in subtitles without any change.`

// storyboardPrompt 按故事类型构建分镜提示词
func storyboardPrompt(storyType, title, storyText string, characterNames []string, maxScenes int, timestamp string) string {
	var kind, opening, focus, vocabulary string
	withCharacters := true

	switch {
	case isType(storyType, TypeLifeProTips):
		kind = "life pro tip"
		opening = "sets up a common problem the tip solves. Its subtitles are a question capturing that problem."
		focus = "- Show the tip being applied and its benefits, before-and-after where it helps, flowing from problem to result."
		vocabulary = fullVocabulary
		withCharacters = false
	case isType(storyType, TypeFunFacts):
		kind = "fun fact"
		opening = "sets up the curiosity behind the fact. Its subtitles are a question that makes the viewer want to know the answer."
		focus = "- Visualise the information with concrete imagery, metaphors and real-world implications."
		vocabulary = factVocabulary
		withCharacters = false
	case isType(storyType, TypePhilosophy):
		kind = "philosophical story"
		opening = "sets up the central philosophical question. Its subtitles are an engaging question capturing the inquiry."
		focus = "- Represent abstract ideas through concrete imagery and visual contrasts between perspectives.\n" + possessiveRule
		vocabulary = fullVocabulary
	default:
		kind = "story"
		opening = "sets up an engaging question about the story's theme. Its subtitles are that question."
		focus = "- Pick pivotal moments, describe clothing consistently and use the characters' full names.\n" + possessiveRule
		vocabulary = fullVocabulary
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create a storyboard with at most %d scenes for the %s below.\n\nTitle: %s\n", maxScenes, kind, title)
	if withCharacters && len(characterNames) > 0 {
		fmt.Fprintf(&b, "Character full names: %s\n", strings.Join(characterNames, ", "))
	}
	fmt.Fprintf(&b, `
Scene 1 is an opening scene whose 60-70 word description %s

Every following scene has:
- a 60-70 word visual description,
- subtitles made of EXACT quotes from the text,
- a camera (angle, composition type, shot size), a lighting type and a transition type.

Subtitle rules:
- Quote the text exactly, with no additions, omissions or edits.
- Cover every sentence of the text in order across the scenes; split sentences at scene boundaries if needed.
- Never repeat text in two scenes.
- Every scene MUST have non-empty subtitles. Stop creating scenes when the text runs out.
%s

%s

%s

Reply with a JSON object only:
{
  "project_info": {"title": %q, "user": "AI Generated", "timestamp": %q},
  "storyboards": [
    {
      "scene_number": 1,
      "description": "...",
      "subtitles": "...",
      "image": null,
      "camera": {"angle": "...", "composition_type": "...", "shot_size": "..."},
      "lighting": "...",
      "transition_type": "zoom-in"
    }
  ]
}

Text:

%s`, opening, focus, vocabulary, transitionRules, title, timestamp, storyText)
	return b.String()
}
