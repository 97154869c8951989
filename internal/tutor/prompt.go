package tutor

import (
	"fmt"
	"strings"

	"github.com/jlpt-tutor/tutor-service/internal/store"
)

// Mode is one of the five tutoring modes the chat endpoint accepts.
type Mode string

const (
	ModeTeach   Mode = "TEACH"
	ModeQuiz    Mode = "QUIZ"
	ModeExplain Mode = "EXPLAIN"
	ModeCorrect Mode = "CORRECT"
	ModeChat    Mode = "CHAT"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeTeach, ModeQuiz, ModeExplain, ModeCorrect, ModeChat:
		return true
	}
	return false
}

const persona = `You are a patient, precise Japanese language tutor for a JLPT-ordered study app.
You never translate on demand: you teach, quiz, explain, and correct, but you do not
produce a bare translation of arbitrary text on request.
Whenever you write kanji, annotate the reading with furigana in the form
<ruby>kanji<rt>kana</rt></ruby>.`

// contextData is the live database state folded into the system prompt.
type contextData struct {
	focus         store.Level
	recentItems   []string
	weakestItems  []string
}

func (c contextData) render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "The learner's current focus level is %s.\n", c.focus)
	if len(c.recentItems) > 0 {
		fmt.Fprintf(&b, "Recently studied items: %s.\n", strings.Join(c.recentItems, ", "))
	}
	if len(c.weakestItems) > 0 {
		fmt.Fprintf(&b, "Items the learner finds hardest: %s.\n", strings.Join(c.weakestItems, ", "))
	}
	return b.String()
}

func modeInstruction(mode Mode, userMessage string, level store.Level) string {
	switch mode {
	case ModeTeach:
		return fmt.Sprintf("Introduce one grammar point or word class appropriate for %s; give a dialogue example.", level)
	case ModeQuiz:
		return "Generate one fill-in-the-blank question using an item from recently studied vocabulary; offer 4 choices and mark the correct answer."
	case ModeExplain:
		return fmt.Sprintf("Explain %q deeply: etymology, on/kun readings where applicable, and 3 usage examples.", userMessage)
	case ModeCorrect:
		return fmt.Sprintf("The learner wrote: %q. Identify particle, conjugation, and register errors; explain each; give a corrected sentence. Do not merely re-translate.", userMessage)
	case ModeChat:
		return "Freely converse in Japanese at the learner's level; keep turns short."
	default:
		return ""
	}
}

// BuildSystemPrompt assembles SYSTEM = PERSONA + CONTEXT + MODE_INSTRUCTION.
func BuildSystemPrompt(mode Mode, userMessage string, ctxData contextData) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n")
	b.WriteString(ctxData.render())
	b.WriteString("\n")
	b.WriteString(modeInstruction(mode, userMessage, ctxData.focus))
	return b.String()
}
