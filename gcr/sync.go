package gcr

// FindSync advances past the next sync run in data, starting the search at
// offset start. A sync is a run of five or more consecutive 0xFF bytes
// followed by at least one other byte. It returns the offset of the byte
// immediately following the sync run, or -1 if no sync was found.
func FindSync(data []byte, start int) int {
	i := start
	for i < len(data) {
		if data[i] != 0xFF {
			i++
			continue
		}
		runStart := i
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i-runStart >= 5 && i < len(data) {
			return i
		}
		// A run shorter than five bytes isn't a sync; keep scanning from
		// here.
	}
	return -1
}

// CountSyncBytes reports the length, in bytes, of the 0xFF run starting at
// offset start (0 if data[start] is not 0xFF). Used for preservation-quality
// metrics (exact sync length as captured, not just "sync present").
func CountSyncBytes(data []byte, start int) int {
	i := start
	for i < len(data) && data[i] == 0xFF {
		i++
	}
	return i - start
}
