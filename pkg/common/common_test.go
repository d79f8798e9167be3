package common

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlot(t *testing.T) {
	at, err := ParseSlot("2026-09-01", "10:30")
	require.NoError(t, err)

	assert.Equal(t, time.UTC, at.Location())
	assert.Equal(t, "2026-09-01 10:30", at.Format("2006-01-02 15:04"))
	assert.Zero(t, at.Second())
}

func TestParseSlotRejectsBadInput(t *testing.T) {
	_, err := ParseSlot("2026-09-01", "25:00")
	assert.Error(t, err)

	_, err = ParseSlot("09/01/2026", "10:00")
	assert.Error(t, err)

	_, err = ParseSlot("", "")
	assert.Error(t, err)
}

func TestDayRange(t *testing.T) {
	at, err := ParseSlot("2026-09-01", "15:45")
	require.NoError(t, err)

	from, to := DayRange(at)
	assert.Equal(t, "2026-09-01T00:00:00Z", from.Format(time.RFC3339))
	assert.Equal(t, "2026-09-02T00:00:00Z", to.Format(time.RFC3339))
	assert.False(t, at.Before(from))
	assert.True(t, at.Before(to))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "s3cret"))
}

func TestGenerateOrderNo(t *testing.T) {
	no := GenerateOrderNo()
	assert.True(t, strings.HasPrefix(no, "SO"))
	assert.Len(t, no, 2+14+6)

	assert.NotEqual(t, no, GenerateOrderNo())
}

func TestUUIDint64Unique(t *testing.T) {
	seen := map[int64]bool{}
	for i := 0; i < 1000; i++ {
		id := UUIDint64()
		assert.Positive(t, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestIfEmptyStr(t *testing.T) {
	assert.Equal(t, "fallback", IfEmptyStr("", "fallback"))
	assert.Equal(t, "fallback", IfEmptyStr("   ", "fallback"))
	assert.Equal(t, "value", IfEmptyStr("value", "fallback"))
}

func TestSha256HashWithSalt(t *testing.T) {
	a := Sha256HashWithSalt("payload", "salt1")
	b := Sha256HashWithSalt("payload", "salt2")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Sha256HashWithSalt("payload", "salt1"))
}
