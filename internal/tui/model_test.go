package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewrag/internal/domain"
	"reviewrag/internal/locale"
	"reviewrag/internal/usecase"
)

type fakeAssistant struct {
	asked      []string
	businesses []string
	failAsk    bool
}

func (f *fakeAssistant) Ask(_ context.Context, question, business string, _ int) usecase.AnswerResult {
	f.asked = append(f.asked, business+"|"+question)
	if f.failAsk {
		return usecase.AnswerResult{GenerationResult: domain.GenerationResult{Error: "LLM client not initialized"}}
	}
	return usecase.AnswerResult{
		GenerationResult: domain.GenerationResult{Text: "The espresso is excellent.", Success: true, Usage: domain.TokenUsage{TotalTokens: 42}},
		ReviewsUsed:      3,
	}
}

func (f *fakeAssistant) Summarize(_ context.Context, business string) usecase.AnswerResult {
	return usecase.AnswerResult{GenerationResult: domain.GenerationResult{Text: "Mostly positive.", Success: true}}
}

func (f *fakeAssistant) Stats() (domain.IndexStats, error) {
	return domain.IndexStats{TotalReviews: 2, AverageRating: domain.Float(4), RatingDistribution: map[int]int{5: 1, 3: 1}}, nil
}

func (f *fakeAssistant) ListBusinesses() ([]string, error) {
	if f.businesses == nil {
		return nil, errors.New("index not loaded")
	}
	return f.businesses, nil
}

func ready(t *testing.T, a Assistant) Model {
	t.Helper()
	return readyIn(t, a, "en")
}

func readyIn(t *testing.T, a Assistant, lang string) Model {
	t.Helper()
	m := New(context.Background(), a, locale.MustFor(lang), "", 5)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	return updated.(Model)
}

func submit(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

// resolve runs cmd and feeds the answer back into the model.
func resolve(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "expected a batch of spinner and request")
	for _, c := range batch {
		if c == nil {
			continue
		}
		if msg, ok := c().(answerMsg); ok {
			updated, _ := m.Update(msg)
			return updated.(Model)
		}
	}
	t.Fatal("no answer produced")
	return m
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line, cmd, arg string
	}{
		{"quit", "quit", ""},
		{"EXIT", "quit", ""},
		{"退出", "quit", ""},
		{"stats", "stats", ""},
		{"/summary", "summary", ""},
		{"use Test Cafe", "use", "Test Cafe"},
		{"use", "use", ""},
		{"list", "list", ""},
		{"stats for last month?", "ask", "stats for last month?"},
		{"How is the coffee?", "ask", "How is the coffee?"},
	}
	for _, tt := range tests {
		cmd, arg := parseCommand(tt.line)
		assert.Equal(t, tt.cmd, cmd, tt.line)
		assert.Equal(t, tt.arg, arg, tt.line)
	}
}

func TestModel_AskQuestion(t *testing.T) {
	a := &fakeAssistant{}
	m := ready(t, a)

	m, _ = submit(t, m, "use Test Cafe")
	assert.Equal(t, "Test Cafe", m.business)

	m, cmd := submit(t, m, "How is the espresso?")
	assert.True(t, m.busy)
	assert.Empty(t, m.input.Value())

	m = resolve(t, m, cmd)
	assert.False(t, m.busy)
	assert.Equal(t, []string{"Test Cafe|How is the espresso?"}, a.asked)
	assert.Contains(t, m.transcript[len(m.transcript)-1], "The espresso is excellent.")
	assert.Contains(t, m.status, "3 reviews")
}

func TestModel_FailedAnswer(t *testing.T) {
	m := ready(t, &fakeAssistant{failAsk: true})

	m, cmd := submit(t, m, "Anything?")
	m = resolve(t, m, cmd)
	assert.Contains(t, m.transcript[len(m.transcript)-1], "LLM client not initialized")
	assert.Equal(t, "Request failed.", m.status)
}

func TestModel_IgnoresInputWhileBusy(t *testing.T) {
	a := &fakeAssistant{}
	m := ready(t, a)

	m, _ = submit(t, m, "first")
	_, cmd := submit(t, m, "second")
	assert.Nil(t, cmd)
}

func TestModel_LocalCommands(t *testing.T) {
	m := ready(t, &fakeAssistant{businesses: []string{"Alpha Noodles", "Test Cafe"}})

	m, cmd := submit(t, m, "list")
	assert.Nil(t, cmd)
	assert.Contains(t, m.transcript[len(m.transcript)-1], "Alpha Noodles")

	m, _ = submit(t, m, "stats")
	last := m.transcript[len(m.transcript)-1]
	assert.Contains(t, last, "Total reviews: 2")
	assert.Contains(t, last, "4.00")
	assert.Contains(t, last, "5★=1")

	m, cmd = submit(t, m, "summary")
	m = resolve(t, m, cmd)
	assert.Contains(t, m.transcript[len(m.transcript)-1], "Mostly positive.")
}

func TestModel_ListError(t *testing.T) {
	m := ready(t, &fakeAssistant{})
	m, _ = submit(t, m, "list")
	assert.Contains(t, m.transcript[len(m.transcript)-1], "index not loaded")
}

func TestModel_Quit(t *testing.T) {
	m := ready(t, &fakeAssistant{})
	_, cmd := submit(t, m, "quit")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_ChineseStrings(t *testing.T) {
	m := readyIn(t, &fakeAssistant{businesses: []string{"測試咖啡"}}, "zh")
	assert.Equal(t, "準備就緒。輸入 help 查看指令。", m.status)
	assert.Contains(t, m.View(), "餐廳評論助手")
	assert.Contains(t, m.View(), "所有餐廳")

	m, _ = submit(t, m, "help")
	assert.Contains(t, m.transcript[len(m.transcript)-1], "退出")

	m, _ = submit(t, m, "list")
	assert.Contains(t, m.transcript[len(m.transcript)-1], "餐廳列表：")

	m, _ = submit(t, m, "stats")
	assert.Contains(t, m.transcript[len(m.transcript)-1], "總評論數: 2")

	m, cmd := submit(t, m, "咖啡好喝嗎？")
	assert.Equal(t, "思考中...", m.status)
	m = resolve(t, m, cmd)
	assert.Contains(t, m.status, "根據 3 則評論回答")
}
