package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotBeaconAndSourceSubvolumes(t *testing.T) {
	full := Snapshot{
		Name:       "2024-05-26-10-00-00_manual",
		BasePath:   "/mnt/.b4_backup/snapshots/web",
		Subvolumes: []string{RootMarker, "!data", "!var!log"},
	}
	assert.False(t, full.HasBeaconOnly())
	assert.Equal(t, []string{"!data", "!var!log"}, full.SourceSubvolumes())

	beacon := full.WithSubvolumes([]string{RootMarker})
	assert.True(t, beacon.HasBeaconOnly())
	assert.Empty(t, beacon.SourceSubvolumes())
	// WithSubvolumes must not mutate the receiver's backing array.
	assert.Equal(t, []string{RootMarker, "!data", "!var!log"}, full.Subvolumes)
}

func TestSnapshotPaths(t *testing.T) {
	s := Snapshot{Name: "2024-05-26-10-00-00", BasePath: "/mnt/.b4_backup/snapshots/web"}
	assert.Equal(t, "/mnt/.b4_backup/snapshots/web/2024-05-26-10-00-00", s.Dir())
	assert.Equal(t, "/mnt/.b4_backup/snapshots/web/2024-05-26-10-00-00/!data", s.SubvolumePath("!data"))
	assert.True(t, s.HasSubvolume("!data") == false)
}
