package insights

// Category is a named keyword group counted over a rating subset.
type Category struct {
	Name     string
	Keywords []string
}

// DriverCategories are counted over positively rated reviews, in reporting order.
var DriverCategories = []Category{
	{Name: "Fast", Keywords: []string{"fast", "quick", "speed", "instant", "rapid", "swift"}},
	{Name: "Easy", Keywords: []string{"easy", "simple", "user friendly", "convenient", "straightforward"}},
	{Name: "Reliable", Keywords: []string{"reliable", "stable", "works", "good", "excellent"}},
	{Name: "Secure", Keywords: []string{"secure", "safe", "security", "protected"}},
	{Name: "Features", Keywords: []string{"feature", "functionality", "useful", "helpful"}},
}

// PainPointCategories are counted over negatively rated reviews, in reporting order.
var PainPointCategories = []Category{
	{Name: "Slow", Keywords: []string{"slow", "delay", "timeout", "wait", "lag", "loading"}},
	{Name: "Crash", Keywords: []string{"crash", "freeze", "hang", "stop", "close", "error"}},
	{Name: "Login", Keywords: []string{"login", "password", "access", "unable", "cannot", "failed"}},
	{Name: "Support", Keywords: []string{"support", "help", "service", "response", "complaint"}},
	{Name: "Missing", Keywords: []string{"missing", "need", "want", "add", "feature", "lack"}},
}

type remedy struct {
	title       string
	description string
}

// remedies maps a pain point category to its recommendation.
var remedies = map[string]remedy{
	"Slow": {
		title:       "Optimize App Performance",
		description: "Investigate and optimize slow loading times, transaction delays, and timeout issues. Consider server upgrades, caching strategies, and code optimization.",
	},
	"Crash": {
		title:       "Improve App Stability",
		description: "Address app crashes, freezes, and errors. Implement comprehensive error handling, testing, and monitoring systems.",
	},
	"Login": {
		title:       "Enhance Authentication System",
		description: "Improve login process, password recovery, and account access. Consider biometric authentication options.",
	},
	"Support": {
		title:       "Strengthen Customer Support",
		description: "Enhance customer support responsiveness and effectiveness. Consider AI chatbot integration and improved support channels.",
	},
	"Missing": {
		title:       "Address Feature Gaps",
		description: "Identify and implement frequently requested features based on user feedback.",
	},
}

// Recommendation types and priorities.
const (
	TypeImprovement = "Improvement"
	TypeEnhancement = "Enhancement"
	PriorityHigh    = "High"
	PriorityMedium  = "Medium"
)

const (
	expandTitle       = "Expand Positive Features"
	expandDescription = "Consider enhancing features that drive satisfaction. Currently identified %d key drivers."
)
