package profile

// Type is one of the four fixed conflict styles.
type Type string

const (
	Avoidant   Type = "Avoidant"
	Validating Type = "Validating"
	Volatile   Type = "Volatile"
	Hostile    Type = "Hostile"
)

// Types lists the four styles in tie-break preference order: Validating is
// the system-wide neutral default and wins ties.
var Types = [4]Type{Validating, Avoidant, Volatile, Hostile}

// Known reports whether t is one of the four fixed styles.
func Known(t Type) bool {
	for _, k := range Types {
		if t == k {
			return true
		}
	}
	return false
}

// Descriptions is the static first-person pattern description shown to the
// user for each style.
var Descriptions = map[Type]string{
	Avoidant: "I avoid conflict. I don't think there is much to be gained from getting openly angry with others. " +
		"A lot of talking about emotions and difficult issues seems to make matters worse. " +
		"I think that if you just relax about problems, they will have a way of working themselves out.",
	Validating: "I discuss difficult issues, but it is important to display a lot of self-control and to remain calm. " +
		"I prefer to let others know that their opinions and emotions are valued even if they are different than mine. " +
		"When arguing, I try to spend a lot of time validating others as well as trying to find a compromise.",
	Volatile: "I debate and argue about issues until they are resolved. " +
		"Arguing openly and strongly doesn't bother me because this is how differences are resolved. " +
		"Although sometimes my arguing is intense, I try to balance this with kind and loving expressions.",
	Hostile: "I can get pretty upset when I argue. When I am upset I sometimes insult my partner with sarcasm or put-downs. " +
		"During intense discussions I find it difficult to listen to what my partner is saying because I am trying to make my point.",
}

// summaries is the third-person description of each style used in
// classification prompts.
var summaries = map[Type]string{
	Avoidant:   "Avoids conflict. Believes little is gained from getting openly angry. Thinks talking about emotions and difficult issues makes matters worse. Prefers to relax about problems and let them work themselves out.",
	Validating: "Discusses difficult issues with self-control and calm. Values others' opinions and emotions even when different from their own. Spends time validating others and finding compromise during arguments.",
	Volatile:   "Debates and argues issues until resolved. Comfortable with open and strong arguments as a way to resolve differences. Balances intense arguments with kind and loving expressions.",
	Hostile:    "Gets upset during arguments. May use sarcasm or put-downs when upset. Finds it difficult to listen during intense discussions. Can experience intensely negative feelings toward partner during conflicts.",
}

// Profile is one speaker's classified conflict style.
type Profile struct {
	Speaker     string `json:"speaker"`
	PrimaryType Type   `json:"primaryType"`
	Pattern     string `json:"negativePatternDescription"`
}
