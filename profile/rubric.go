// Package profile derives a conflict-style profile for a speaker from their
// chat messages: a 13-question rubric scoring pass followed by classification
// into one of four conflict styles.
package profile

// NumQuestions is the length of the scoring rubric.
const NumQuestions = 13

// Questions is the fixed conflict-resolution rubric. Each answer is a Likert
// score from 1 (strongly disagree) to 5 (strongly agree).
var Questions = [NumQuestions]string{
	"We usually resolve conflicts by discussing the problem.",
	"When we reach a compromise, the conflict usually ends.",
	"Compromise is the best way for us to resolve conflicts.",
	"To resolve disagreements, I try to give in a little.",
	"I try to resolve disputes from my partner's perspective and wishes.",
	"My partner and I try to avoid quarrels.",
	"When we disagree, we argue loudly.",
	"Our conflicts usually last for a long time.",
	"Conflicts with my partner cause me distress.",
	"When we have a conflict, I verbally attack my partner.",
	"When conflicts arise, we take a break to cool down.",
	"When we fight, I try to gain the upper hand.",
	"In conflicts, I usually go along with my partner's opinion.",
}

// ScoreVector holds one answer per rubric question, each in [1,5].
type ScoreVector [NumQuestions]int

// Neutral is the degraded-mode score vector: 3 for every question.
func Neutral() ScoreVector {
	var v ScoreVector
	for i := range v {
		v[i] = 3
	}
	return v
}

// Clamp forces every value into [1,5], mapping anything unusable to the
// neutral 3.
func (v ScoreVector) Clamp() ScoreVector {
	out := v
	for i, s := range out {
		switch {
		case s == 0:
			out[i] = 3
		case s < 1:
			out[i] = 1
		case s > 5:
			out[i] = 5
		}
	}
	return out
}

// Valid reports whether every value is already in [1,5].
func (v ScoreVector) Valid() bool {
	for _, s := range v {
		if s < 1 || s > 5 {
			return false
		}
	}
	return true
}
