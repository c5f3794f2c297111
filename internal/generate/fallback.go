package generate

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"

	"github.com/studyhall/studyhall-lms/internal/quiz"
)

// template is one instantiable question blueprint. {topic} inside any field
// is replaced with the literal topic string at instantiation time.
type template struct {
	Text           string
	Type           quiz.QuestionType
	Options        []string
	CorrectAnswers []string
	Explanation    string
}

// subjectBank groups templates under the keywords that select them.
type subjectBank struct {
	Keywords  []string
	Templates []template
}

var subjectBanks = []subjectBank{
	{
		Keywords: []string{"math", "algebra", "geometry", "calculus", "arithmetic"},
		Templates: []template{
			{
				Text:           "What is the value of x in the equation 2x + 6 = 14?",
				Type:           quiz.TypeMultipleChoice,
				Options:        []string{"2", "4", "6", "8"},
				CorrectAnswers: []string{"4"},
				Explanation:    "Subtract 6 from both sides to get 2x = 8, then divide by 2.",
			},
			{
				Text:           "The sum of the interior angles of a triangle is 180 degrees.",
				Type:           quiz.TypeTrueFalse,
				Options:        []string{"True", "False"},
				CorrectAnswers: []string{"True"},
				Explanation:    "This holds for every triangle in Euclidean geometry.",
			},
			{
				Text:           "Which of these is a prime number?",
				Type:           quiz.TypeMultipleChoice,
				Options:        []string{"9", "15", "17", "21"},
				CorrectAnswers: []string{"17"},
				Explanation:    "17 has no divisors other than 1 and itself.",
			},
			{
				Text:           "What do you call the result of a multiplication?",
				Type:           quiz.TypeShortAnswer,
				CorrectAnswers: []string{"product"},
				Explanation:    "Multiplying factors yields a product.",
			},
			{
				Text:           "What is 25% of 200?",
				Type:           quiz.TypeMultipleChoice,
				Options:        []string{"25", "50", "75", "100"},
				CorrectAnswers: []string{"50"},
				Explanation:    "25% is one quarter, and one quarter of 200 is 50.",
			},
		},
	},
	{
		Keywords: []string{"science", "biology", "chemistry", "physics"},
		Templates: []template{
			{
				Text:           "Which organelle is known as the powerhouse of the cell?",
				Type:           quiz.TypeMultipleChoice,
				Options:        []string{"Nucleus", "Mitochondria", "Ribosome", "Golgi apparatus"},
				CorrectAnswers: []string{"Mitochondria"},
				Explanation:    "Mitochondria produce most of the cell's ATP.",
			},
			{
				Text:           "Water is composed of hydrogen and oxygen.",
				Type:           quiz.TypeTrueFalse,
				Options:        []string{"True", "False"},
				CorrectAnswers: []string{"True"},
				Explanation:    "A water molecule is H2O: two hydrogen atoms and one oxygen atom.",
			},
			{
				Text:           "What gas do plants absorb from the atmosphere during photosynthesis?",
				Type:           quiz.TypeShortAnswer,
				CorrectAnswers: []string{"carbon dioxide", "co2"},
				Explanation:    "Plants fix carbon dioxide into sugars using light energy.",
			},
			{
				Text:           "Which of the following is a unit of force?",
				Type:           quiz.TypeMultipleChoice,
				Options:        []string{"Joule", "Newton", "Watt", "Pascal"},
				CorrectAnswers: []string{"Newton"},
				Explanation:    "Force is measured in newtons; joules and watts measure energy and power.",
			},
			{
				Text:           "Sound travels faster in air than in water.",
				Type:           quiz.TypeTrueFalse,
				Options:        []string{"True", "False"},
				CorrectAnswers: []string{"False"},
				Explanation:    "Sound travels roughly four times faster in water than in air.",
			},
		},
	},
	{
		Keywords: []string{"history", "historical", "civilization", "revolution"},
		Templates: []template{
			{
				Text:           "In which year did World War II end?",
				Type:           quiz.TypeMultipleChoice,
				Options:        []string{"1942", "1944", "1945", "1948"},
				CorrectAnswers: []string{"1945"},
				Explanation:    "The war ended in 1945 with the surrender of Germany and Japan.",
			},
			{
				Text:           "The Great Wall of China was built primarily for defense.",
				Type:           quiz.TypeTrueFalse,
				Options:        []string{"True", "False"},
				CorrectAnswers: []string{"True"},
				Explanation:    "It was built to protect against invasions from the north.",
			},
			{
				Text:           "Which ancient civilization built the pyramids at Giza?",
				Type:           quiz.TypeShortAnswer,
				CorrectAnswers: []string{"egypt", "egyptian"},
				Explanation:    "The pyramids were built by the ancient Egyptians.",
			},
			{
				Text:           "Who was the first President of the United States?",
				Type:           quiz.TypeMultipleChoice,
				Options:        []string{"Thomas Jefferson", "John Adams", "George Washington", "Benjamin Franklin"},
				CorrectAnswers: []string{"George Washington"},
				Explanation:    "Washington served as the first President from 1789 to 1797.",
			},
		},
	},
	{
		Keywords: []string{"english", "literature", "grammar", "writing"},
		Templates: []template{
			{
				Text:           "Which of these is a noun?",
				Type:           quiz.TypeMultipleChoice,
				Options:        []string{"quickly", "beautiful", "happiness", "run"},
				CorrectAnswers: []string{"happiness"},
				Explanation:    "Happiness names a thing; the others are an adverb, adjective, and verb.",
			},
			{
				Text:           "A metaphor compares two things using the words 'like' or 'as'.",
				Type:           quiz.TypeTrueFalse,
				Options:        []string{"True", "False"},
				CorrectAnswers: []string{"False"},
				Explanation:    "That describes a simile; a metaphor states the comparison directly.",
			},
			{
				Text:           "What do you call the main character of a story?",
				Type:           quiz.TypeShortAnswer,
				CorrectAnswers: []string{"protagonist"},
				Explanation:    "The protagonist is the central character the plot follows.",
			},
			{
				Text:           "Who wrote the play 'Romeo and Juliet'?",
				Type:           quiz.TypeMultipleChoice,
				Options:        []string{"Charles Dickens", "William Shakespeare", "Jane Austen", "Mark Twain"},
				CorrectAnswers: []string{"William Shakespeare"},
				Explanation:    "Shakespeare wrote the tragedy around 1595.",
			},
		},
	},
}

// genericBank is used when no subject keywords match. Templates reference the
// topic literally so the quiz still reads as being about the requested lesson.
var genericBank = []template{
	{
		Text:           "What is the main topic of this lesson about {topic}?",
		Type:           quiz.TypeShortAnswer,
		CorrectAnswers: []string{"{topic}"},
		Explanation:    "The lesson covers {topic}.",
	},
	{
		Text:           "Understanding {topic} requires regular practice.",
		Type:           quiz.TypeTrueFalse,
		Options:        []string{"True", "False"},
		CorrectAnswers: []string{"True"},
		Explanation:    "Consistent practice is how mastery of {topic} develops.",
	},
	{
		Text:           "Which study habit helps most when learning {topic}?",
		Type:           quiz.TypeMultipleChoice,
		Options:        []string{"Reviewing notes regularly", "Cramming the night before", "Skipping the fundamentals", "Memorizing without understanding"},
		CorrectAnswers: []string{"Reviewing notes regularly"},
		Explanation:    "Spaced review is the most reliable way to retain new material.",
	},
	{
		Text:           "Name one key concept you learned about {topic}.",
		Type:           quiz.TypeShortAnswer,
		CorrectAnswers: []string{"{topic}"},
		Explanation:    "Any central concept of {topic} is accepted.",
	},
}

// Fallback synthesizes questions offline from fixed template banks. It is the
// deterministic safety net behind AI generation: no I/O, never fails.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

// Generate classifies the topic against the subject keyword groups and
// instantiates up to count questions from the matching bank. If count exceeds
// the bank size, fewer questions are returned.
func (f *Fallback) Generate(topic string, count int, difficulty quiz.Difficulty) []quiz.Question {
	if count <= 0 {
		return nil
	}
	bank := classify(topic)

	shuffled := make([]template, len(bank))
	copy(shuffled, bank)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	if count < len(shuffled) {
		shuffled = shuffled[:count]
	}

	points := quiz.PointsFor(difficulty)
	out := make([]quiz.Question, 0, len(shuffled))
	for i, t := range shuffled {
		out = append(out, quiz.Question{
			ID:             uuid.NewString(),
			Text:           fillTopic(t.Text, topic),
			Type:           t.Type,
			Options:        t.Options,
			CorrectAnswers: fillTopicAll(t.CorrectAnswers, topic),
			Explanation:    fillTopic(t.Explanation, topic),
			Points:         points,
			Difficulty:     difficulty,
			AIGenerated:    false,
			OrderIndex:     i,
		})
	}
	return out
}

func classify(topic string) []template {
	low := strings.ToLower(topic)
	for _, sb := range subjectBanks {
		for _, kw := range sb.Keywords {
			if strings.Contains(low, kw) {
				return sb.Templates
			}
		}
	}
	return genericBank
}

func fillTopic(s, topic string) string {
	return strings.ReplaceAll(s, "{topic}", topic)
}

func fillTopicAll(ss []string, topic string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fillTopic(s, topic)
	}
	return out
}
