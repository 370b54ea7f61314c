package normalizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowforge/internal/domain"
	"flowforge/internal/normalizer"
)

const processJSON = `{"processName":"Onboarding","description":"New starter","actors":["HR"],"nodes":[{"id":"n1","type":"trigger","title":"Offer accepted"},{"id":"n2","type":"process","title":"Create account"}],"criticalGaps":null}`

func TestExtractJSON_Bare(t *testing.T) {
	out, err := normalizer.ExtractJSON(`  {"a":1}  `, normalizer.KindObject)

	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(out))
}

func TestExtractJSON_Fenced(t *testing.T) {
	raw := "```json\n{\"a\":{\"b\":[1,2]}}\n```"

	out, err := normalizer.ExtractJSON(raw, normalizer.KindObject)

	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"b":[1,2]}}`, string(out))
}

func TestExtractJSON_ProsePrefix(t *testing.T) {
	raw := "Here is the result you asked for:\n{\"a\":true}\nLet me know if you need more."

	out, err := normalizer.ExtractJSON(raw, normalizer.KindObject)

	require.NoError(t, err)
	assert.JSONEq(t, `{"a":true}`, string(out))
}

func TestExtractJSON_Array(t *testing.T) {
	out, err := normalizer.ExtractJSON("```\n[\"x\",\"y\"]\n```", normalizer.KindArray)

	require.NoError(t, err)
	assert.JSONEq(t, `["x","y"]`, string(out))
}

func TestExtractJSON_Truncated(t *testing.T) {
	_, err := normalizer.ExtractJSON(`{"processName":"Onboarding","nodes":[{"id":"n1"`, normalizer.KindObject)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := normalizer.ExtractJSON("I cannot help with that.", normalizer.KindObject)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestDecodeProcess_Success(t *testing.T) {
	p, err := normalizer.DecodeProcess("```json\n" + processJSON + "\n```")

	require.NoError(t, err)
	assert.Equal(t, "Onboarding", p.Name)
	require.Len(t, p.Nodes, 2)
	assert.Equal(t, domain.NodeTypeTrigger, p.Nodes[0].Type)
	assert.Equal(t, domain.NodeTypeStep, p.Nodes[1].Type)
	assert.NotNil(t, p.CriticalGaps)
	assert.NotNil(t, p.Nodes[0].Actors)
}

func TestDecodeProcess_MissingName(t *testing.T) {
	_, err := normalizer.DecodeProcess(`{"nodes":[{"id":"n1","type":"step","title":"x"}]}`)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestDecodeProcess_NoNodes(t *testing.T) {
	_, err := normalizer.DecodeProcess(`{"processName":"Empty","nodes":[]}`)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestDecodeProcess_UnknownNodeType(t *testing.T) {
	_, err := normalizer.DecodeProcess(`{"processName":"P","nodes":[{"id":"n1","type":"swimlane","title":"x"}]}`)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestDecodeDetection_Multiple(t *testing.T) {
	raw := `{"multipleProcesses":true,"processCount":2,"processTitles":["Hiring Process"," Offer Process "],"confidence":"HIGH","reasoning":"two headings"}`

	d, err := normalizer.DecodeDetection(raw)

	require.NoError(t, err)
	assert.True(t, d.MultipleProcesses)
	assert.Equal(t, []string{"Hiring Process", "Offer Process"}, d.ProcessTitles)
	assert.Equal(t, "high", d.Confidence)
}

func TestDecodeDetection_MultipleWithoutTitles(t *testing.T) {
	_, err := normalizer.DecodeDetection(`{"multipleProcesses":true,"processCount":3,"processTitles":[]}`)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestDecodeDetection_BadConfidence(t *testing.T) {
	_, err := normalizer.DecodeDetection(`{"multipleProcesses":false,"processCount":1,"confidence":"certain"}`)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestDecodeIdealState(t *testing.T) {
	raw := `{"vision":"Fully automated","categories":[{"title":"Automation","icon":"⚙","priority":"high","improvements":["Auto-approve"]}],"expectedOutcomes":{"operational":["Faster"],"business":["Cheaper"]},"estimatedImpact":{"timeSaved":"40%"}}`

	s, err := normalizer.DecodeIdealState(raw)

	require.NoError(t, err)
	assert.Equal(t, "Fully automated", s.Vision)
	require.Len(t, s.Categories, 1)
	assert.Equal(t, "40%", s.EstimatedImpact["timeSaved"])
}

func TestDecodeIdealState_NoVision(t *testing.T) {
	_, err := normalizer.DecodeIdealState(`{"categories":[]}`)

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}
