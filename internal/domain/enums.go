package domain

// InputType tags where a document's text came from.
type InputType string

const (
	InputTypeDocument        InputType = "document"
	InputTypeVoiceTranscript InputType = "voice_transcript"
	InputTypeChat            InputType = "chat"
)

// AllowedInputTypes lists the input types accepted by the parse endpoint.
var AllowedInputTypes = map[InputType]bool{
	InputTypeDocument:        true,
	InputTypeVoiceTranscript: true,
	InputTypeChat:            true,
}

// NodeType classifies a step in a parsed process graph.
type NodeType string

const (
	NodeTypeTrigger  NodeType = "trigger"
	NodeTypeStep     NodeType = "step"
	NodeTypeDecision NodeType = "decision"
	NodeTypeGap      NodeType = "gap"
)

// Provenance records which stage produced a process candidate.
type Provenance string

const (
	ProvenanceHeuristic Provenance = "heuristic"
	ProvenanceLLM       Provenance = "llm"
)

// ParseMode records which path of the pipeline produced a batch.
type ParseMode string

const (
	ParseModeCache          ParseMode = "cache"
	ParseModeDirectMulti    ParseMode = "direct_multi"
	ParseModeAIMulti        ParseMode = "ai_multi"
	ParseModeSingle         ParseMode = "single"
	ParseModeFallbackSingle ParseMode = "fallback_single"
)

// CacheTier identifies which cache layer served a lookup.
type CacheTier string

const (
	CacheTierNone    CacheTier = ""
	CacheTierParse   CacheTier = "parse"
	CacheTierExact   CacheTier = "exact"
	CacheTierPattern CacheTier = "pattern"
)

// Approximate reports whether a hit on this tier may belong to a different document.
func (t CacheTier) Approximate() bool {
	return t == CacheTierPattern
}

// UserRole is carried in bearer token claims.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleMember UserRole = "member"
)
