package judge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrutinium/scrutinium/internal/testutils"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr bool
	}{
		{name: "clean label", reply: "geography", want: "geography"},
		{name: "uppercase reply", reply: "Geography", want: "geography"},
		{name: "quoted reply", reply: `"medical science"`, want: "medical science"},
		{name: "chatty reply keeps first line", reply: "history\n\nThis question concerns past events.", want: "history"},
		{name: "trailing period stripped", reply: "philosophy.", want: "philosophy"},
		{name: "empty reply", reply: "   ", wantErr: true},
	}

	builder := NewPromptBuilder()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := testutils.NewMockLLMClient("mock-model").
				AddResponse(testutils.MockResponse{Response: tt.reply})

			category, err := NewCategorizer(client, builder).Categorize(context.Background(), "some question")

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, category)
		})
	}
}

func TestCategorizeClientFailure(t *testing.T) {
	client := testutils.NewMockLLMClient("mock-model").
		FailWith(errors.New("provider down"))

	_, err := NewCategorizer(client, NewPromptBuilder()).Categorize(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider down")
}

func TestCategorizeCapsRunawayLabels(t *testing.T) {
	long := "an extremely long and rambling category label that keeps going well past any reasonable length"
	client := testutils.NewMockLLMClient("mock-model").
		AddResponse(testutils.MockResponse{Response: long})

	category, err := NewCategorizer(client, NewPromptBuilder()).Categorize(context.Background(), "q")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(category), maxCategoryLength)
}
