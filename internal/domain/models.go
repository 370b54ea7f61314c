package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is the raw input of a single parse request.
type Document struct {
	Text              string
	InputType         InputType
	AdditionalContext string
}

// ProcessCandidate is a title that marks the start of one workflow inside a document.
// Start and End are byte offsets of the span [Start, End); both are -1 when the
// title could not be located in the source text.
type ProcessCandidate struct {
	Title      string     `json:"title"`
	Start      int        `json:"start"`
	End        int        `json:"end"`
	Provenance Provenance `json:"provenance"`
}

// DetectionResult is the outcome of boundary detection.
type DetectionResult struct {
	ProcessCount   int                `json:"processCount"`
	Titles         []ProcessCandidate `json:"titles"`
	HighConfidence bool               `json:"highConfidence"`
}

// TitleStrings returns the candidate titles in order.
func (d *DetectionResult) TitleStrings() []string {
	out := make([]string, 0, len(d.Titles))
	for _, c := range d.Titles {
		out = append(out, c.Title)
	}
	return out
}

// DetectionReply is the JSON object returned by the LLM detection call.
type DetectionReply struct {
	MultipleProcesses bool     `json:"multipleProcesses"`
	ProcessCount      int      `json:"processCount" validate:"gte=0"`
	ProcessTitles     []string `json:"processTitles"`
	Confidence        string   `json:"confidence" validate:"omitempty,oneof=high medium low"`
	Reasoning         string   `json:"reasoning"`
}

// Node is one step of a parsed process graph.
type Node struct {
	ID           string   `json:"id" validate:"required"`
	Type         NodeType `json:"type" validate:"required,oneof=trigger step decision gap"`
	Status       string   `json:"status"`
	Title        string   `json:"title" validate:"required"`
	Description  string   `json:"description"`
	Actors       []string `json:"actors"`
	SubSteps     []string `json:"subSteps"`
	Dependencies []string `json:"dependencies"`
	ParallelWith []string `json:"parallelWith"`
	Failures     []string `json:"failures"`
	Blocking     *string  `json:"blocking,omitempty"`
	CurrentState *string  `json:"currentState,omitempty"`
	IdealState   *string  `json:"idealState,omitempty"`
	Gap          *string  `json:"gap,omitempty"`
	Impact       *string  `json:"impact,omitempty"`
	TimeEstimate *string  `json:"timeEstimate,omitempty"`
}

// ImprovementOpportunity is a suggested change to a parsed process.
type ImprovementOpportunity struct {
	Description      string `json:"description"`
	Type             string `json:"type"`
	EstimatedSavings string `json:"estimatedSavings"`
}

// ParsedProcess is the structured result of one extraction call.
type ParsedProcess struct {
	Name                     string                   `json:"processName" validate:"required"`
	Description              string                   `json:"description"`
	Actors                   []string                 `json:"actors"`
	Nodes                    []Node                   `json:"nodes" validate:"required,min=1,dive"`
	CriticalGaps             []string                 `json:"criticalGaps"`
	ImprovementOpportunities []ImprovementOpportunity `json:"improvementOpportunities"`
}

// ParseMeta describes how a batch was produced. It is never cached.
type ParseMeta struct {
	Mode          ParseMode `json:"mode"`
	CacheTier     CacheTier `json:"cacheTier,omitempty"`
	Approximate   bool      `json:"approximate,omitempty"`
	Fingerprint   string    `json:"fingerprint"`
	DetectedCount int       `json:"detectedCount"`
	FailedTitles  []string  `json:"failedTitles,omitempty"`
}

// ParseBatchResult is the aggregated output of a parse request.
// ProcessCount is the number of processes actually parsed, which can be lower
// than the number detected.
type ParseBatchResult struct {
	MultipleProcesses bool            `json:"multipleProcesses"`
	ProcessCount      int             `json:"processCount"`
	Processes         []ParsedProcess `json:"processes"`
	Meta              *ParseMeta      `json:"meta,omitempty"`
}

// CacheStats summarizes today's cache traffic.
type CacheStats struct {
	Date          string         `json:"date"`
	Hits          int64          `json:"cacheHits"`
	Misses        int64          `json:"cacheMisses"`
	HitRate       float64        `json:"hitRate"`
	APICallsSaved int64          `json:"apiCallsSaved"`
	Breakdown     CacheBreakdown `json:"breakdown"`
}

// CacheBreakdown splits hits by tier.
type CacheBreakdown struct {
	Exact   int64 `json:"exactMatches"`
	Pattern int64 `json:"patternMatches"`
	Parse   int64 `json:"parseMatches"`
}

// ParseRun is one row of the parse audit log.
type ParseRun struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Fingerprint   string    `db:"fingerprint" json:"fingerprint"`
	InputType     InputType `db:"input_type" json:"inputType"`
	Mode          ParseMode `db:"mode" json:"mode"`
	CacheTier     CacheTier `db:"cache_tier" json:"cacheTier"`
	DetectedCount int       `db:"detected_count" json:"detectedCount"`
	ProcessCount  int       `db:"process_count" json:"processCount"`
	FailedCount   int       `db:"failed_count" json:"failedCount"`
	DurationMs    int64     `db:"duration_ms" json:"durationMs"`
	ArchiveKey    string    `db:"archive_key" json:"archiveKey"`
	RequestedBy   string    `db:"requested_by" json:"requestedBy"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
}

// ChatRole identifies the author of a chat turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatMessage is one turn of a process documentation conversation.
type ChatMessage struct {
	Role    ChatRole `json:"role" example:"user"`
	Content string   `json:"content" example:"HR starts onboarding once the offer is signed."`
}

// IdealState is the improvement vision generated for one process.
type IdealState struct {
	Vision           string            `json:"vision"`
	Categories       []IdealCategory   `json:"categories"`
	ExpectedOutcomes ExpectedOutcomes  `json:"expectedOutcomes"`
	EstimatedImpact  map[string]string `json:"estimatedImpact"`
}

// IdealCategory groups related improvements.
type IdealCategory struct {
	Title        string   `json:"title"`
	Icon         string   `json:"icon"`
	Priority     string   `json:"priority"`
	Improvements []string `json:"improvements"`
}

// ExpectedOutcomes lists benefits of the ideal state.
type ExpectedOutcomes struct {
	Operational []string `json:"operational"`
	Business    []string `json:"business"`
}
