package domain

// Frequency represents how often a newsletter is produced
type Frequency string

const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// LengthPreference represents the reader's preferred newsletter depth
type LengthPreference string

const (
	LengthQuickRead LengthPreference = "quick_read"
	LengthStandard  LengthPreference = "standard"
	LengthDeepDive  LengthPreference = "deep_dive"
)

// Tone represents the writing tone requested for generated content
type Tone string

const (
	ToneFormal         Tone = "formal"
	ToneConversational Tone = "conversational"
	ToneTechnical      Tone = "technical"
)

// Audience represents the target reader group for generated content
type Audience string

const (
	AudiencePolicymakers  Audience = "policymakers"
	AudienceResearchers   Audience = "researchers"
	AudiencePractitioners Audience = "practitioners"
	AudienceDonors        Audience = "donors"
	AudienceGeneralPublic Audience = "general_public"
)

// NewsletterConfig captures a subscriber's content preferences, used to shape
// knowledge-base queries and retrieval sizing.
type NewsletterConfig struct {
	Topics           []string         `json:"topics"`
	Audience         Audience         `json:"audience"`
	GeographicFocus  string           `json:"geographic_focus"`
	Tone             Tone             `json:"tone"`
	Frequency        Frequency        `json:"frequency"`
	LengthPreference LengthPreference `json:"length_preference"`
}

// TopicDisplayName maps a topic id to the display name used in queries.
// Unknown topics fall back to the raw id.
func TopicDisplayName(topicID string) string {
	if name, ok := topicDisplayNames[topicID]; ok {
		return name
	}
	return topicID
}

var topicDisplayNames = map[string]string{
	"food_security":       "food security and agriculture",
	"climate_resilience":  "climate resilience and adaptation",
	"water_resources":     "transboundary water resources",
	"livestock":           "livestock and pastoralism",
	"trade_integration":   "regional trade and economic integration",
	"peace_security":      "peace and security",
	"health":              "public health systems",
	"migration":           "migration and displacement",
	"innovation":          "innovation and digital transformation",
}

// AudienceKeywords returns the query keywords for an audience. Unknown
// audiences return no keywords rather than an error.
func AudienceKeywords(a Audience) string {
	return audienceKeywords[a]
}

var audienceKeywords = map[Audience]string{
	AudiencePolicymakers:  "policy briefing governance regional cooperation",
	AudienceResearchers:   "research findings data analysis evidence",
	AudiencePractitioners: "implementation field programs best practices",
	AudienceDonors:        "impact outcomes funding development results",
	AudienceGeneralPublic: "overview accessible community stories",
}

// ToneKeywords returns the query keywords for a tone. Unknown tones return
// no keywords rather than an error.
func ToneKeywords(t Tone) string {
	return toneKeywords[t]
}

var toneKeywords = map[Tone]string{
	ToneFormal:         "official institutional reporting",
	ToneConversational: "engaging practical everyday",
	ToneTechnical:      "technical detailed methodology",
}
