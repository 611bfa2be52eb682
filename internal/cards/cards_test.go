package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBlankCardIsFreshEachTime(t *testing.T) {
	a := NewBlankCard()
	b := NewBlankCard()
	assert.NotEqual(t, a.SlotID, b.SlotID)
	assert.True(t, a.Blank)
	assert.Nil(t, a.Text)
}

func TestWriteBlankKeepsSlotID(t *testing.T) {
	blank := NewBlankCard()
	written, err := blank.WriteBlank("a witty answer")
	require.NoError(t, err)
	assert.Equal(t, blank.SlotID, written.SlotID)
	require.NotNil(t, written.Text)
	assert.Equal(t, "a witty answer", *written.Text)
	assert.True(t, written.Blank)
}

func TestWriteBlankFailsOnNonBlank(t *testing.T) {
	text := "already printed"
	card := WhiteCard{SlotID: NewBlankCard().SlotID, Text: &text}
	_, err := card.WriteBlank("overwritten")
	require.Error(t, err)
}

func TestBuildWhiteDedupesByTextAcrossPacks(t *testing.T) {
	txtA, txtB := "Poverty.", "Poverty."
	packs := []CardPack{
		{Name: "Base", WhiteCards: []WhiteCard{{SlotID: NewBlankCard().SlotID, Text: &txtA}}},
		{Name: "Expansion", WhiteCards: []WhiteCard{{SlotID: NewBlankCard().SlotID, Text: &txtB}}},
	}
	deck := BuildWhite(packs, 0)
	assert.Equal(t, 1, deck.TotalCards())
}

func TestBuildWhiteAddsRequestedBlanks(t *testing.T) {
	deck := BuildWhite(nil, 3)
	assert.Equal(t, 3, deck.TotalCards())
}

func TestDeckDrawReshufflesFromDiscard(t *testing.T) {
	a, b := "A", "B"
	packs := []CardPack{{Name: "Base", WhiteCards: []WhiteCard{
		{SlotID: NewBlankCard().SlotID, Text: &a},
		{SlotID: NewBlankCard().SlotID, Text: &b},
	}}}
	deck := BuildWhite(packs, 0)
	first, err := deck.Draw()
	require.NoError(t, err)
	second, err := deck.Draw()
	require.NoError(t, err)
	assert.NotEqual(t, first.SlotID, second.SlotID)

	deck.Discard(first)
	deck.Discard(second)
	// the draw pile is empty and both cards sit in the discard pile, so the
	// next draw must trigger a reshuffle instead of failing.
	_, err = deck.Draw()
	require.NoError(t, err)
}

func TestDeckDrawEmptyFails(t *testing.T) {
	deck := BuildWhite(nil, 0)
	_, err := deck.Draw()
	require.ErrorIs(t, err, ErrEmptyDeck)
}

func TestDiscardRecyclesBlankWithFreshSlotID(t *testing.T) {
	deck := BuildWhite(nil, 1)
	blank, err := deck.Draw()
	require.NoError(t, err)
	require.True(t, blank.Blank)

	written, err := blank.WriteBlank("an answer")
	require.NoError(t, err)
	deck.Discard(written)

	recycled, err := deck.Draw()
	require.NoError(t, err)
	assert.NotEqual(t, written.SlotID, recycled.SlotID)
	assert.Nil(t, recycled.Text)
}
