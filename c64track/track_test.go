package c64track

import "testing"

func TestSectorsPerTrackZones(t *testing.T) {
	cases := []struct {
		track int
		want  int
	}{
		{1, 21}, {17, 21}, {18, 19}, {24, 19}, {25, 18}, {30, 18}, {31, 17}, {42, 17},
	}
	for _, c := range cases {
		if got := SectorsPerTrack(c.track); got != c.want {
			t.Errorf("SectorsPerTrack(%d) = %d, want %d", c.track, got, c.want)
		}
	}
}

func TestSpeedZones(t *testing.T) {
	cases := []struct {
		track int
		want  int
	}{
		{1, 3}, {17, 3}, {18, 2}, {24, 2}, {25, 1}, {30, 1}, {31, 0}, {42, 0},
	}
	for _, c := range cases {
		if got := SpeedZone(c.track); got != c.want {
			t.Errorf("SpeedZone(%d) = %d, want %d", c.track, got, c.want)
		}
	}
}

func TestGapLength(t *testing.T) {
	cases := []struct {
		track int
		want  int
	}{
		{1, 10}, {18, 17}, {25, 11}, {31, 8},
	}
	for _, c := range cases {
		if got := GapLength(c.track); got != c.want {
			t.Errorf("GapLength(%d) = %d, want %d", c.track, got, c.want)
		}
	}
}

func TestD64TotalSectors(t *testing.T) {
	if got := D64TotalSectors(); got != 683 {
		t.Fatalf("D64TotalSectors() = %d, want 683", got)
	}
}

func TestTrackSectorBlockRoundTrip(t *testing.T) {
	for track := 1; track <= 35; track++ {
		for sector := 0; sector < SectorsPerTrack(track); sector++ {
			block := TrackSectorToBlock(track, sector)
			gotTrack, gotSector := BlockToTrackSector(block)
			if gotTrack != track || gotSector != sector {
				t.Fatalf("block round trip for (%d,%d): got (%d,%d)", track, sector, gotTrack, gotSector)
			}
		}
	}
}

func TestCapacityBounds(t *testing.T) {
	for track := 1; track <= MaxTrack; track++ {
		min := TrackCapacityMin(track)
		max := TrackCapacityMax(track)
		nominal := TrackCapacityBytes(track)
		if min >= nominal || max <= nominal {
			t.Fatalf("track %d: min=%d nominal=%d max=%d not properly bounded", track, min, nominal, max)
		}
	}
}
