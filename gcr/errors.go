package gcr

import "fmt"

// ErrorCode enumerates the 1541 DOS sector-read outcomes. Values are
// preserved verbatim (not mapped into a generic error) so that error-table
// bearing D64 variants can reproduce authentic failure modes.
type ErrorCode int

const (
	// ErrOK indicates a clean read: no error.
	ErrOK ErrorCode = iota
	// ErrBadGcrCode corresponds to 1541 DOS "21 READ ERROR" (bad GCR).
	ErrBadGcrCode
	// ErrIdMismatch corresponds to "27 READ ERROR" (header track/sector
	// does not match the one requested).
	ErrIdMismatch
	// ErrHeaderNotFound corresponds to "20 READ ERROR" (no header block).
	ErrHeaderNotFound
	// ErrDataNotFound corresponds to "22 READ ERROR" (no data block).
	ErrDataNotFound
	// ErrBadHeaderChecksum corresponds to "27 READ ERROR" (header checksum).
	ErrBadHeaderChecksum
	// ErrBadDataChecksum corresponds to "23 READ ERROR" (data checksum).
	ErrBadDataChecksum
	// ErrSyncNotFound corresponds to "24 READ ERROR" (no sync found).
	ErrSyncNotFound
	// ErrDriveNotReady corresponds to "26 WRITE PROTECT ON" / drive fault.
	ErrDriveNotReady
)

func (c ErrorCode) String() string {
	switch c {
	case ErrOK:
		return "OK"
	case ErrBadGcrCode:
		return "21, READ ERROR (bad GCR)"
	case ErrIdMismatch:
		return "27, READ ERROR (id mismatch)"
	case ErrHeaderNotFound:
		return "20, READ ERROR (header not found)"
	case ErrDataNotFound:
		return "22, READ ERROR (data not found)"
	case ErrBadHeaderChecksum:
		return "27, READ ERROR (header checksum)"
	case ErrBadDataChecksum:
		return "23, READ ERROR (data checksum)"
	case ErrSyncNotFound:
		return "24, READ ERROR (sync not found)"
	case ErrDriveNotReady:
		return "26, WRITE PROTECT ON"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// SectorError wraps a non-OK ErrorCode so callers can branch on it with
// errors.As while still getting a readable message.
type SectorError struct {
	Code ErrorCode
}

func (e *SectorError) Error() string {
	return e.Code.String()
}
