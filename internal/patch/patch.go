// Package patch commits a batch of byte-span edits against an original buffer as one atomic rewrite.
//
// Every Edit is expressed in the coordinate space of the original buffer, so edits can be planned independently and in any order. Apply sorts them, checks that no two
// overlap, and splices them in a single pass. If any pair conflicts, nothing is applied.
package patch

import (
	"errors"
	"fmt"
	"sort"
)

// Edit replaces original[Start:End] with Text. Start == End is a pure insertion at Start.
type Edit struct {
	Start int
	End   int
	Text  string
}

// IsInsertion reports whether e is zero-length.
func (e Edit) IsInsertion() bool {
	return e.Start == e.End
}

// String returns a compact description of e, suitable for diagnostics.
func (e Edit) String() string {
	if e.IsInsertion() {
		return fmt.Sprintf("insert@%d(%d bytes)", e.Start, len(e.Text))
	}
	return fmt.Sprintf("replace[%d,%d)(%d bytes)", e.Start, e.End, len(e.Text))
}

// Batch is the full set of edits for one buffer.
type Batch []Edit

// ErrConflict is matched (via errors.Is) by *ConflictError.
var ErrConflict = errors.New("edit conflict")

// ErrOutOfRange is returned when an edit's span does not lie within the buffer or has End < Start.
var ErrOutOfRange = errors.New("edit span out of range")

// ConflictError reports two edits whose spans overlap (or are identical insertions).
type ConflictError struct {
	First  Edit // the edit that was accepted first (lower Start)
	Second Edit // the edit that overlaps First
}

// Error returns a message naming both conflicting edits.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("edit conflict: %v overlaps %v", e.Second, e.First)
}

// Is lets errors.Is(err, ErrConflict) match.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Apply returns a new buffer with every edit in batch applied to original. original is never modified. An empty batch returns a copy of original.
//
// Edits are ordered by (Start, End) and applied in one pass. An edit whose Start is before the end of the previously applied edit, or whose span is identical to the
// previous edit's span, is a conflict: Apply returns a *ConflictError and no output. Edits touching at a boundary (ex: an insertion at p followed by a replacement of
// [p, q)) do not conflict. The result does not depend on the order of batch.
func Apply(original []byte, batch Batch) ([]byte, error) {
	if len(batch) == 0 {
		out := make([]byte, len(original))
		copy(out, original)
		return out, nil
	}

	sorted, err := Sorted(original, batch)
	if err != nil {
		return nil, err
	}

	growth := 0
	for _, e := range sorted {
		growth += len(e.Text) - (e.End - e.Start)
	}
	out := make([]byte, 0, max(len(original)+growth, 0))

	cursor := 0
	for _, e := range sorted {
		out = append(out, original[cursor:e.Start]...)
		out = append(out, e.Text...)
		cursor = e.End
	}
	out = append(out, original[cursor:]...)
	return out, nil
}

// Sorted validates batch against a buffer of len(original) bytes and returns a sorted copy. It returns the same errors as Apply, without building output. Planners
// can use it to check a batch before committing to it.
func Sorted(original []byte, batch Batch) (Batch, error) {
	sorted := make(Batch, len(batch))
	copy(sorted, batch)

	for _, e := range sorted {
		if e.Start < 0 || e.End < e.Start || e.End > len(original) {
			return nil, fmt.Errorf("%w: %v in buffer of %d bytes", ErrOutOfRange, e, len(original))
		}
	}

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	cursor := 0
	for i, e := range sorted {
		if i > 0 {
			prev := sorted[i-1]
			if e.Start < cursor || (e.Start == prev.Start && e.End == prev.End) {
				return nil, &ConflictError{First: prev, Second: e}
			}
		}
		cursor = e.End
	}
	return sorted, nil
}
