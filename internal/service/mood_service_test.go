package service

import (
	"context"
	"strings"
	"testing"

	"ankahee-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestSuggestSkipsShortText(t *testing.T) {
	gen := new(mockGenerator)
	svc := NewMoodService(gen)

	assert.Nil(t, svc.Suggest(context.Background(), "too short to tell"))
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestSuggestParsesJSON(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Confession Text") && strings.Contains(p, "'Anxiety'")
	})).Return("```json\n{\"moodTag\": \"Anxiety\"}\n```", nil)

	tag := NewMoodService(gen).Suggest(context.Background(), "I can't stop worrying about tomorrow's interview")
	if assert.NotNil(t, tag) {
		assert.Equal(t, model.MoodAnxiety, *tag)
	}
}

func TestSuggestIsBestEffort(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", assert.AnError)

	assert.Nil(t, NewMoodService(gen).Suggest(context.Background(), "a long enough confession to analyse"))
	assert.Nil(t, NewMoodService(nil).Suggest(context.Background(), "a long enough confession to analyse"))
}

func TestParseMoodFallbacks(t *testing.T) {
	assert.Equal(t, model.MoodLove, *parseMood("The best fit is Love."))
	assert.Nil(t, parseMood(`{"moodTag": "Happy"}`))
}
