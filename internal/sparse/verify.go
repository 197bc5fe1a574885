package sparse

import "fmt"

// Verify checks the structural invariants of the storage scheme and
// returns every violation found, or nil when the tensor is sound.
// Invariants are checked here, not per-mutation: the Resize and
// AssignDimOrder operations deliberately leave tensors transiently
// inconsistent while an algorithm builds them up.
//
// Checked per compressed dimension d:
//   - pointers[d] is non-decreasing, starts at 0, and its last entry
//     equals len(indices[d])
//   - indices[d] is strictly increasing within each pointer-delimited
//     segment
//   - every index is below the dimension extent
//
// Tensor-wide: the dimension order is a permutation and the value
// count matches the innermost nonzero count.
func (t *Tensor[P, I, V]) Verify() []IntegrityError {
	var errs []IntegrityError

	seen := make([]bool, t.Rank())
	perm := true
	for _, l := range t.dimOrder {
		if l < 0 || l >= t.Rank() || seen[l] {
			perm = false
			break
		}
		seen[l] = true
	}
	if !perm {
		errs = append(errs, IntegrityError{
			Class:  DimOrderNotPermutation,
			Dim:    -1,
			Detail: fmt.Sprintf("dim order %v", t.dimOrder),
		})
	}

	for d := 0; d < t.Rank(); d++ {
		if !t.IsCompressedDim(d) {
			continue
		}
		ptr := t.pointers[d]
		idx := t.indices[d]

		monotone := true
		for i := 1; i < len(ptr); i++ {
			if ptr[i] < ptr[i-1] {
				monotone = false
				errs = append(errs, IntegrityError{
					Class:  PointersNotMonotone,
					Dim:    d,
					Detail: fmt.Sprintf("pointers[%d] < pointers[%d]", i, i-1),
				})
				break
			}
		}
		if ptr[0] != 0 {
			monotone = false
			errs = append(errs, IntegrityError{Class: PointerOriginNonzero, Dim: d})
		}
		if int(ptr[len(ptr)-1]) != len(idx) {
			monotone = false
			errs = append(errs, IntegrityError{
				Class:  PointerTerminalMismatch,
				Dim:    d,
				Detail: fmt.Sprintf("last pointer %d, %d indices", ptr[len(ptr)-1], len(idx)),
			})
		}

		for _, i := range idx {
			if uint64(i) >= t.sizes[d] {
				errs = append(errs, IntegrityError{
					Class:  IndexOutOfRange,
					Dim:    d,
					Detail: fmt.Sprintf("index %d, extent %d", i, t.sizes[d]),
				})
				break
			}
		}

		// Segment ordering is only meaningful once the pointers
		// themselves delimit valid ranges.
		if monotone {
			for s := 1; s < len(ptr); s++ {
				lo, hi := int(ptr[s-1]), int(ptr[s])
				for i := lo + 1; i < hi; i++ {
					if idx[i] <= idx[i-1] {
						errs = append(errs, IntegrityError{
							Class:  IndicesNotIncreasing,
							Dim:    d,
							Detail: fmt.Sprintf("segment %d", s-1),
						})
						s = len(ptr) // report once per dimension
						break
					}
				}
			}
		}
	}

	if want := t.NumVals(); want != len(t.values) {
		errs = append(errs, IntegrityError{
			Class:  ValueCountMismatch,
			Dim:    -1,
			Detail: fmt.Sprintf("%d values, %d stored entries", len(t.values), want),
		})
	}
	return errs
}
