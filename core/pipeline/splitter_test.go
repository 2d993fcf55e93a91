package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentenceSplitter(t *testing.T) {
	splitter := SentenceSplitter(2)

	fragments, err := splitter("The empire fell. The queen vanished. A new age began. Nobody noticed.")
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, "The empire fell. The queen vanished.", fragments[0])
	assert.Equal(t, "A new age began. Nobody noticed.", fragments[1])
}

func TestSentenceSplitterRemainder(t *testing.T) {
	splitter := SentenceSplitter(2)

	fragments, err := splitter("One. Two. Three.")
	require.NoError(t, err)
	require.Len(t, fragments, 2)
	assert.Equal(t, "One. Two.", fragments[0])
	assert.Equal(t, "Three.", fragments[1])
}

func TestSentenceSplitterQuestionAndExclamation(t *testing.T) {
	splitter := SentenceSplitter(1)

	fragments, err := splitter("Who rules the north? Nobody! The throne is empty.")
	require.NoError(t, err)
	assert.Equal(t, []string{"Who rules the north?", "Nobody!", "The throne is empty."}, fragments)
}

func TestSentenceSplitterEmptyText(t *testing.T) {
	splitter := SentenceSplitter(3)

	fragments, err := splitter("   \n  ")
	require.NoError(t, err)
	assert.Empty(t, fragments)
}

func TestSentenceSplitterInvalidSize(t *testing.T) {
	splitter := SentenceSplitter(0)

	_, err := splitter("Some text.")
	assert.Error(t, err)
}

func TestParagraphSplitter(t *testing.T) {
	splitter := ParagraphSplitter()

	fragments, err := splitter("First paragraph about the war.\n\nSecond paragraph about the peace.\n\n\n\nThird.")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"First paragraph about the war.",
		"Second paragraph about the peace.",
		"Third.",
	}, fragments)
}
