package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewrag/internal/domain"
	"reviewrag/internal/port"
)

func TestPrompts_AnswerEnglish(t *testing.T) {
	p, err := NewPrompts("en")
	require.NoError(t, err)

	system, user, err := p.Render(port.PromptAnswer, PromptData{
		Question: "Is it quiet?",
		Business: "Test Cafe",
		Summary: &domain.BusinessSummary{
			BusinessName:  "Test Cafe",
			TotalReviews:  2,
			AverageRating: domain.Float(4),
		},
		Reviews: testReviews(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, system)
	assert.Contains(t, user, "Is it quiet?")
	assert.Contains(t, user, "Test Cafe")
	assert.Contains(t, user, "Great coffee")
	assert.Contains(t, user, "Alice")
}

func TestPrompts_AnswerWithoutReviews(t *testing.T) {
	p, err := NewPrompts("en")
	require.NoError(t, err)

	_, user, err := p.Render(port.PromptAnswer, PromptData{Question: "Anything?"})
	require.NoError(t, err)
	assert.Contains(t, user, "No relevant reviews found")
}

func TestPrompts_KindSpecificSystem(t *testing.T) {
	p, err := NewPrompts("en")
	require.NoError(t, err)

	answerSystem, _, err := p.Render(port.PromptAnswer, PromptData{Question: "q"})
	require.NoError(t, err)
	sentimentSystem, _, err := p.Render(port.PromptSentiment, PromptData{Context: "ctx"})
	require.NoError(t, err)
	assert.NotEqual(t, answerSystem, sentimentSystem)
}

func TestPrompts_AnalysisNeedsSummary(t *testing.T) {
	p, err := NewPrompts("en")
	require.NoError(t, err)

	_, _, err = p.Render(port.PromptAnalysis, PromptData{Business: "Test Cafe"})
	assert.Error(t, err)
}

func TestPrompts_Chinese(t *testing.T) {
	p, err := NewPrompts("zh")
	require.NoError(t, err)

	_, user, err := p.Render(port.PromptAnswer, PromptData{Question: "咖啡好喝嗎？", Context: "評論 1:"})
	require.NoError(t, err)
	assert.Contains(t, user, "咖啡好喝嗎？")
	assert.Contains(t, user, "評論 1:")
}

func TestPrompts_UnsupportedLanguage(t *testing.T) {
	_, err := NewPrompts("fr")
	assert.Error(t, err)
}
