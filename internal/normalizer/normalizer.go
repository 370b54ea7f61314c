package normalizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"flowforge/internal/domain"
)

// Kind is the top-level JSON shape expected from a reply.
type Kind int

const (
	KindObject Kind = iota
	KindArray
)

func (k Kind) delimiters() (string, string) {
	if k == KindArray {
		return "[", "]"
	}
	return "{", "}"
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ExtractJSON pulls a JSON value of the given kind out of an LLM reply.
// Replies wrapped in a markdown fence or prefixed with prose are sliced from
// the first opening delimiter to the last closing one. Truncated JSON is never
// repaired; any failure wraps domain.ErrMalformedResponse.
func ExtractJSON(raw string, kind Kind) (json.RawMessage, error) {
	open, closing := kind.delimiters()
	text := strings.TrimSpace(raw)

	if strings.HasPrefix(text, "```") || !strings.HasPrefix(text, open) {
		start := strings.Index(text, open)
		end := strings.LastIndex(text, closing)
		if start < 0 || end < start {
			return nil, fmt.Errorf("%w: no %s...%s pair in reply (raw: %s)", domain.ErrMalformedResponse, open, closing, preview(raw))
		}
		text = text[start : end+1]
	}

	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("%w: invalid JSON (raw: %s)", domain.ErrMalformedResponse, preview(raw))
	}
	return json.RawMessage(text), nil
}

// DecodeDetection parses the reply of a process detection call.
func DecodeDetection(raw string) (*domain.DetectionReply, error) {
	var reply domain.DetectionReply
	if err := decodeObject(raw, &reply); err != nil {
		return nil, err
	}

	titles := reply.ProcessTitles[:0]
	for _, t := range reply.ProcessTitles {
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
	}
	reply.ProcessTitles = titles
	reply.Confidence = strings.ToLower(reply.Confidence)

	if err := validate.Struct(&reply); err != nil {
		return nil, fmt.Errorf("%w: detection reply: %v", domain.ErrMalformedResponse, err)
	}
	if reply.MultipleProcesses && len(reply.ProcessTitles) == 0 {
		return nil, fmt.Errorf("%w: detection reply claims multiple processes without titles", domain.ErrMalformedResponse)
	}
	return &reply, nil
}

// DecodeProcess parses the reply of an extraction call into a ParsedProcess.
func DecodeProcess(raw string) (*domain.ParsedProcess, error) {
	var p domain.ParsedProcess
	if err := decodeObject(raw, &p); err != nil {
		return nil, err
	}
	normalizeProcess(&p)

	if err := validate.Struct(&p); err != nil {
		return nil, fmt.Errorf("%w: process %q: %v", domain.ErrMalformedResponse, p.Name, err)
	}
	return &p, nil
}

// DecodeIdealState parses the reply of an ideal-state call.
func DecodeIdealState(raw string) (*domain.IdealState, error) {
	var s domain.IdealState
	if err := decodeObject(raw, &s); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s.Vision) == "" {
		return nil, fmt.Errorf("%w: ideal state without vision", domain.ErrMalformedResponse)
	}
	return &s, nil
}

func decodeObject(raw string, dst interface{}) error {
	data, err := ExtractJSON(raw, KindObject)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

// normalizeProcess folds common model spellings into the node type enum and
// replaces null lists with empty ones.
func normalizeProcess(p *domain.ParsedProcess) {
	p.Name = strings.TrimSpace(p.Name)
	p.Actors = orEmpty(p.Actors)
	p.CriticalGaps = orEmpty(p.CriticalGaps)
	if p.ImprovementOpportunities == nil {
		p.ImprovementOpportunities = []domain.ImprovementOpportunity{}
	}
	for i := range p.Nodes {
		n := &p.Nodes[i]
		switch t := domain.NodeType(strings.ToLower(strings.TrimSpace(string(n.Type)))); t {
		case "process", "action", "task":
			n.Type = domain.NodeTypeStep
		default:
			n.Type = t
		}
		n.Actors = orEmpty(n.Actors)
		n.SubSteps = orEmpty(n.SubSteps)
		n.Dependencies = orEmpty(n.Dependencies)
		n.ParallelWith = orEmpty(n.ParallelWith)
		n.Failures = orEmpty(n.Failures)
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func preview(s string) string {
	const maxLen = 500
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
