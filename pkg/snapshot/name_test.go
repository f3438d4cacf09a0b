package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAndParseName(t *testing.T) {
	instant := time.Date(2024, 5, 26, 10, 0, 0, 0, time.UTC)

	name, err := FormatName(instant, "manual")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-26-10-00-00_manual", name)

	gotTime, suffix, err := ParseName(name)
	require.NoError(t, err)
	assert.True(t, instant.Equal(gotTime))
	assert.Equal(t, "manual", suffix)
}

func TestFormatNameWithoutSuffix(t *testing.T) {
	instant := time.Date(2024, 5, 26, 10, 0, 0, 0, time.UTC)
	name, err := FormatName(instant, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-26-10-00-00", name)

	_, suffix, err := ParseName(name)
	require.NoError(t, err)
	assert.Empty(t, suffix)
}

func TestFormatNameRejectsReservedSuffix(t *testing.T) {
	_, err := FormatName(time.Now(), ReservedName)
	assert.ErrorIs(t, err, ErrReservedSnapshotName)
}

func TestParseNameRejectsReservedName(t *testing.T) {
	_, _, err := ParseName(ReservedName)
	assert.ErrorIs(t, err, ErrReservedSnapshotName)
}

func TestParseNameRejectsMalformedPrefix(t *testing.T) {
	_, _, err := ParseName("not-a-timestamp_manual")
	require.Error(t, err)
	var target *ErrInvalidSnapshotName
	assert.ErrorAs(t, err, &target)
}

func TestIsValidName(t *testing.T) {
	assert.True(t, IsValidName("2024-05-26-10-00-00_auto"))
	assert.True(t, IsValidName("2024-05-26-10-00-00"))
	assert.False(t, IsValidName("garbage"))
	assert.False(t, IsValidName(ReservedName))
}

func TestNamesSortLexicallyByTime(t *testing.T) {
	names := []string{
		"2024-05-26-10-00-00_auto",
		"2024-01-01-00-00-00_auto",
		"2024-12-31-23-59-59_auto",
	}
	snaps := make([]Snapshot, len(names))
	for i, n := range names {
		snaps[i] = Snapshot{Name: n}
	}
	SortByName(snaps)
	assert.Equal(t, "2024-01-01-00-00-00_auto", snaps[0].Name)
	assert.Equal(t, "2024-05-26-10-00-00_auto", snaps[1].Name)
	assert.Equal(t, "2024-12-31-23-59-59_auto", snaps[2].Name)
}
