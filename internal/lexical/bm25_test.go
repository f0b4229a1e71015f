package lexical

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurorahq/aurora/internal/corpus"
)

// --- Test Helpers ---

func makeMessage(id, userName, text string) corpus.Message {
	return corpus.Message{
		ID:        id,
		UserID:    "u-" + id,
		UserName:  userName,
		Timestamp: time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
		Text:      text,
	}
}

func testCorpus() []corpus.Message {
	return []corpus.Message{
		makeMessage("1", "Layla Kawaguchi", "So excited about our trip to London next month!"),
		makeMessage("2", "Omar Haddad", "Just got back from the gym, great workout"),
		makeMessage("3", "Layla Kawaguchi", "Booked the hotel in London near Hyde Park"),
		makeMessage("4", "Mia Chen", "Anyone have sushi restaurant recommendations?"),
		makeMessage("5", "Layla Kawaguchi", "London weather looks rainy, packing umbrellas"),
	}
}

func TestSearch_BeforeIndexingReturnsEmpty(t *testing.T) {
	// Given: a never-indexed instance
	idx := NewIndex()

	// When: queried
	results := idx.Search(context.Background(), "London", 10, true)

	// Then: soft failure, empty list, no panic
	assert.Empty(t, results)
	assert.False(t, idx.Ready())
}

func TestSearch_AuthorNameMatchesOwnMessages(t *testing.T) {
	// Given: three messages from Layla mentioning London among unrelated ones
	idx := NewIndex()
	idx.IndexMessages(context.Background(), testCorpus())

	// When: querying by author name and topic
	results := idx.Search(context.Background(), "Layla London", 10, true)

	// Then: Layla's London messages rank above unrelated messages with
	// positive scores
	require.NotEmpty(t, results)
	assert.Equal(t, "Layla Kawaguchi", results[0].Message.UserName)
	assert.Greater(t, results[0].Score, 0.0)
	for _, r := range results {
		assert.Greater(t, r.Score, 0.0)
	}
}

func TestSearch_NonPositiveScoresExcluded(t *testing.T) {
	// Given: an indexed corpus
	idx := NewIndex()
	idx.IndexMessages(context.Background(), testCorpus())

	// When: querying terms that appear nowhere
	results := idx.Search(context.Background(), "zeppelin blueprint", 10, false)

	// Then: no zero-score padding in the output
	assert.Empty(t, results)
}

func TestSearch_TiesKeepCorpusOrder(t *testing.T) {
	// Given: two identical documents at different corpus positions,
	// padded with unrelated documents so the query term keeps a
	// positive IDF
	msgs := []corpus.Message{
		makeMessage("a", "Sam", "coffee"),
		makeMessage("b", "Sam", "coffee"),
		makeMessage("c", "Noor", "tea instead"),
		makeMessage("d", "Omar", "water only"),
		makeMessage("e", "Mia", "juice please"),
	}
	idx := NewIndex()
	idx.IndexMessages(context.Background(), msgs)

	// When: both score identically
	results := idx.Search(context.Background(), "coffee", 10, false)

	// Then: original corpus order breaks the tie
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Message.ID)
	assert.Equal(t, "b", results[1].Message.ID)
}

func TestSearch_TopKTruncates(t *testing.T) {
	// Eight matching documents in a corpus of twenty keep the query
	// term's IDF positive while exceeding the requested top_k.
	msgs := make([]corpus.Message, 20)
	for i := range msgs {
		text := "quiet afternoon walk"
		if i < 8 {
			text = "coffee break"
		}
		msgs[i] = makeMessage(fmt.Sprintf("%d", i), "Sam", text)
	}
	idx := NewIndex()
	idx.IndexMessages(context.Background(), msgs)

	results := idx.Search(context.Background(), "coffee", 5, false)
	assert.Len(t, results, 5)
}

func TestSearch_ExpansionFindsSynonymMatches(t *testing.T) {
	// Given: a corpus using "travel" where the query says "trip"
	msgs := []corpus.Message{
		makeMessage("1", "Noor", "travel plans are coming together"),
		makeMessage("2", "Omar", "leg day at the gym"),
		makeMessage("3", "Mia", "new recipe turned out great"),
	}
	idx := NewIndex()
	idx.IndexMessages(context.Background(), msgs)

	// When: searching with expansion on and off
	withExpansion := idx.Search(context.Background(), "trip", 10, true)
	withoutExpansion := idx.Search(context.Background(), "trip", 10, false)

	// Then: only the expanded query reaches the synonym document
	require.Len(t, withExpansion, 1)
	assert.Equal(t, "1", withExpansion[0].Message.ID)
	assert.Empty(t, withoutExpansion)
}

func TestIndexMessages_RebuildReplacesCorpus(t *testing.T) {
	// Given: an index over one corpus
	idx := NewIndex()
	idx.IndexMessages(context.Background(), testCorpus())
	require.Equal(t, 5, idx.Count())

	// When: reindexed over a different corpus
	idx.IndexMessages(context.Background(), []corpus.Message{
		makeMessage("9", "Noor", "fresh start"),
	})

	// Then: old documents are gone
	assert.Equal(t, 1, idx.Count())
	assert.Empty(t, idx.Search(context.Background(), "London", 10, false))
}
