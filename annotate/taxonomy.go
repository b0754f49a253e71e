// Package annotate classifies conversation messages against a fixed taxonomy
// of unhealthy communication patterns and checks user-supplied labels against
// oracle verdicts.
package annotate

// Label is one of the 11 fixed unhealthy-pattern labels.
type Label string

const (
	Criticism          Label = "criticism"
	Contempt           Label = "contempt"
	Defensiveness      Label = "defensiveness"
	Stonewalling       Label = "stonewalling"
	Blaming            Label = "blaming"
	YouLanguage        Label = "you-language"
	Overgeneralization Label = "overgeneralization"
	Sarcasm            Label = "sarcasm"
	Invalidation       Label = "invalidation"
	Escalation         Label = "escalation"
	Withdrawal         Label = "withdrawal"
)

// Labels lists the full taxonomy in display order.
var Labels = [11]Label{
	Criticism, Contempt, Defensiveness, Stonewalling, Blaming, YouLanguage,
	Overgeneralization, Sarcasm, Invalidation, Escalation, Withdrawal,
}

// Definitions is the one-line definition per label, used verbatim in verdict
// prompts so the oracle and the UI agree on what each label means.
var Definitions = map[Label]string{
	Criticism:          "Attacking the partner's character or personality rather than a specific behavior.",
	Contempt:           "Communicating disgust or superiority, e.g. mockery, eye-rolling, hostile humor.",
	Defensiveness:      "Deflecting responsibility by counter-attacking or playing the victim.",
	Stonewalling:       "Shutting down and withdrawing from the interaction instead of engaging.",
	Blaming:            "Assigning fault to the partner for the problem or for one's own feelings.",
	YouLanguage:        "Accusatory 'you' statements ('you never', 'you always') instead of 'I' statements.",
	Overgeneralization: "Sweeping absolutes like 'always' or 'never' that distort the specific situation.",
	Sarcasm:            "Saying the opposite of what is meant to mock or dismiss the partner.",
	Invalidation:       "Dismissing or minimizing the partner's feelings or point of view.",
	Escalation:         "Raising the emotional stakes instead of de-escalating, e.g. threats or ultimatums.",
	Withdrawal:         "Avoiding the topic or physically/emotionally leaving the conflict unresolved.",
}

// Known reports whether l is part of the taxonomy.
func Known(l Label) bool {
	_, ok := Definitions[l]
	return ok
}

// Annotation is the user's latest guess for one message, checked against the
// oracle. AttemptCount grows monotonically across re-guesses; the verdict
// fields always reflect the most recent attempt only.
type Annotation struct {
	MessageIndex int    `json:"messageIndex"`
	Label        Label  `json:"label"`
	AttemptCount int    `json:"attemptCount"`
	Correct      bool   `json:"correct"`
	Explanation  string `json:"explanation"`
}
