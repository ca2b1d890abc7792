package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyHistory(t *testing.T) {
	var h History

	assert.Equal(t, 0, h.Len())
	_, ok := h.Latest()
	assert.False(t, ok)
	assert.Empty(t, h.Entries())
}

func TestAppendKeepsOrder(t *testing.T) {
	var h History
	h = h.Append(Plan{Text: "Plan A"})
	h = h.Append(Plan{Text: "Plan B"})

	entries := h.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "Workout 1", entries[0].Label)
	assert.Equal(t, "Plan A", entries[0].Text)
	assert.Equal(t, "Workout 2", entries[1].Label)
	assert.Equal(t, "Plan B", entries[1].Text)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, "Plan B", latest.Text)
}

func TestAppendDoesNotMutateReceiver(t *testing.T) {
	base := History{}.Append(Plan{Text: "one"})
	next := base.Append(Plan{Text: "two"})
	other := base.Append(Plan{Text: "three"})

	assert.Equal(t, 1, base.Len())
	assert.Equal(t, 2, next.Len())
	assert.Equal(t, "two", next.Entries()[1].Text)
	assert.Equal(t, "three", other.Entries()[1].Text)
}

func TestLengthMatchesAppends(t *testing.T) {
	var h History
	for i := 0; i < 25; i++ {
		h = h.Append(Plan{Text: "x"})
	}
	assert.Equal(t, 25, h.Len())
}

func TestStoreRoundTrip(t *testing.T) {
	s := NewStore(10, time.Hour)

	assert.Equal(t, 0, s.Load("missing").Len())

	s.Save("abc", History{}.Append(Plan{Text: "Plan A"}))
	assert.Equal(t, 1, s.Load("abc").Len())
	assert.Equal(t, 0, s.Load("def").Len())
	assert.Equal(t, 1, s.Len())

	s.Clear("abc")
	assert.Equal(t, 0, s.Load("abc").Len())
}

func TestStoreExpires(t *testing.T) {
	s := NewStore(10, 20*time.Millisecond)
	s.Save("abc", History{}.Append(Plan{Text: "Plan A"}))

	assert.Eventually(t, func() bool {
		return s.Load("abc").Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestStoreLoadRefreshesExpiry(t *testing.T) {
	s := NewStore(10, 200*time.Millisecond)
	s.Save("abc", History{}.Append(Plan{Text: "Plan A"}))

	deadline := time.Now().Add(600 * time.Millisecond)
	for time.Now().Before(deadline) {
		require.Equal(t, 1, s.Load("abc").Len())
		time.Sleep(50 * time.Millisecond)
	}

	assert.Eventually(t, func() bool {
		return s.Load("abc").Len() == 0
	}, time.Second, 20*time.Millisecond)
}

func TestStoreLoadUnknownDoesNotCreate(t *testing.T) {
	s := NewStore(10, time.Hour)

	assert.Equal(t, 0, s.Load("missing").Len())
	assert.Equal(t, 0, s.Len())
}

func TestStoreEvictsOldestSession(t *testing.T) {
	s := NewStore(2, time.Hour)
	s.Save("a", History{}.Append(Plan{Text: "a"}))
	s.Save("b", History{}.Append(Plan{Text: "b"}))
	s.Save("c", History{}.Append(Plan{Text: "c"}))

	assert.Equal(t, 0, s.Load("a").Len())
	assert.Equal(t, 1, s.Load("c").Len())
}
