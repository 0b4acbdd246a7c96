package treasury

import (
	"fmt"
	"math"
	"sort"

	"github.com/erp/treasury/internal/domain/shared"
	"github.com/google/uuid"
)

// Detail reasons attached to range validation errors
const (
	ReasonInvalidRange      = "INVALID_RANGE"
	ReasonNextOutOfRange    = "NEXT_OUT_OF_RANGE"
	ReasonRangeOverlap      = "RANGE_OVERLAP"
	ReasonInvalidLength     = "INVALID_LENGTH"
	ReasonSerialOutOfBook   = "SERIAL_OUT_OF_CHECKBOOK"
	ReasonIssuedOutside     = "ISSUED_SERIALS_OUTSIDE_RANGE"
	ReasonNextAlreadyIssued = "NEXT_ALREADY_ISSUED"
)

// MaxRangeLength caps the number of serials a suggested range may span
const MaxRangeLength int64 = 1_000_000

// SerialRange is an inclusive [Start, End] block of serial numbers owned by a checkbook
type SerialRange struct {
	CheckbookID uuid.UUID
	Start       int64
	End         int64
}

// Len returns the number of serials in the range
func (r SerialRange) Len() int64 {
	return r.End - r.Start + 1
}

// Contains reports whether n lies inside the range
func (r SerialRange) Contains(n int64) bool {
	return n >= r.Start && n <= r.End
}

// Intersects reports whether two inclusive ranges share at least one serial
func (r SerialRange) Intersects(start, end int64) bool {
	return r.Start <= end && start <= r.End
}

// ValidateRange checks start/end/next of a checkbook range
func ValidateRange(start, end, next int64) error {
	if start <= 0 || end <= 0 || end < start {
		err := shared.NewValidationError("range_start", fmt.Sprintf("Invalid range [%d,%d]: bounds must be positive and end >= start", start, end))
		return err.WithDetail("reason", ReasonInvalidRange)
	}
	if next < start || next > end {
		err := shared.NewValidationError("next_number", fmt.Sprintf("Next number %d is outside range [%d,%d]", next, start, end))
		return err.WithDetail("reason", ReasonNextOutOfRange)
	}
	return nil
}

// FindOverlap returns the first range in ranges that intersects [start,end],
// ignoring the checkbook excludeID (the one being edited).
func FindOverlap(ranges []SerialRange, start, end int64, excludeID uuid.UUID) (SerialRange, bool) {
	for _, r := range ranges {
		if excludeID != uuid.Nil && r.CheckbookID == excludeID {
			continue
		}
		if r.Intersects(start, end) {
			return r, true
		}
	}
	return SerialRange{}, false
}

// Overlaps reports whether [start,end] intersects any range other than excludeID
func Overlaps(ranges []SerialRange, start, end int64, excludeID uuid.UUID) bool {
	_, ok := FindOverlap(ranges, start, end, excludeID)
	return ok
}

// NewOverlapError builds the CONFLICT error for an overlapping checkbook range
func NewOverlapError(start, end int64, other SerialRange) error {
	return shared.NewConflictError(ReasonRangeOverlap,
		fmt.Sprintf("Range [%d,%d] overlaps checkbook range [%d,%d]", start, end, other.Start, other.End),
		map[string]any{
			"conflicting_checkbook_id": other.CheckbookID.String(),
			"conflicting_start":        other.Start,
			"conflicting_end":          other.End,
		})
}

// MergeRanges sorts ranges by start and coalesces overlapping or touching ones
func MergeRanges(ranges []SerialRange) []SerialRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]SerialRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End < sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	merged := []SerialRange{{Start: sorted[0].Start, End: sorted[0].End}}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, SerialRange{Start: r.Start, End: r.End})
	}
	return merged
}

// SuggestRange returns a free window of exactly length serials on top of the
// occupied ranges.
//
// Without a preferred start the numbering continues right after the last
// occupied serial. With one, the preferred window wins if it is free; if not,
// the first gap large enough (lower bound 1) is used, and failing that the
// window after the last occupied serial.
func SuggestRange(ranges []SerialRange, length int64, preferredStart *int64) (SerialRange, error) {
	if length < 1 || length > MaxRangeLength {
		err := shared.NewValidationError("length", fmt.Sprintf("Range length must be between 1 and %d", MaxRangeLength))
		return SerialRange{}, err.WithDetail("reason", ReasonInvalidLength)
	}
	merged := MergeRanges(ranges)

	if preferredStart == nil {
		return windowAfter(merged, length)
	}
	if start := *preferredStart; start >= 1 && start <= math.MaxInt64-length+1 {
		end := start + length - 1
		if !Overlaps(merged, start, end, uuid.Nil) {
			return SerialRange{Start: start, End: end}, nil
		}
	}

	lower := int64(1)
	for _, r := range merged {
		if r.Start-lower >= length {
			return SerialRange{Start: lower, End: lower + length - 1}, nil
		}
		if r.End >= lower {
			lower = r.End + 1
		}
	}
	return windowAfter(merged, length)
}

func windowAfter(merged []SerialRange, length int64) (SerialRange, error) {
	start := int64(1)
	if len(merged) > 0 {
		last := merged[len(merged)-1].End
		if last > math.MaxInt64-length {
			err := shared.NewValidationError("length", fmt.Sprintf("No room for %d serials after serial %d", length, last))
			return SerialRange{}, err.WithDetail("reason", ReasonInvalidLength)
		}
		start = last + 1
	}
	return SerialRange{Start: start, End: start + length - 1}, nil
}
