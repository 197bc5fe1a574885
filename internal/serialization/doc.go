// Package serialization provides the native .grb container format for
// saving and loading compressed sparse tensors.
//
// The .grb format is a simple binary container for one or more named
// sparse tensors:
//
//	Format Structure:
//	  [4 bytes: Magic "GRBT"]
//	  [4 bytes: Version (uint32 LE)]
//	  [4 bytes: Flags (uint32 LE)]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [Padding to 64-byte alignment]
//	  [Section data: pointer/index/value buffers, little-endian]
//
// Each tensor records its value type, pointer and index widths, logical
// sizes, dimension order and per-dimension annotations in the header,
// plus one section per stored buffer. The whole data area is covered by
// a SHA-256 checksum validated on load.
//
// Example usage:
//
//	tensors := map[string]*sparse.Tensor[uint64, uint64, float64]{
//	    "graph": a,
//	    "mask":  m,
//	}
//	if err := serialization.Save("graph.grb", tensors, nil); err != nil {
//	    log.Fatal(err)
//	}
//
//	loaded, err := serialization.Load[uint64, uint64, float64]("graph.grb")
//	if err != nil {
//	    log.Fatal(err)
//	}
package serialization
