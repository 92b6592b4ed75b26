// Package serialization saves and restores trained parameters in the
// minigrad checkpoint format.
//
//	Format:
//	  [4 bytes: Magic "MGRD"]
//	  [4 bytes: Version (uint32 LE)]
//	  [32 bytes: SHA-256 of the data section]
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON metadata]
//	  [Tensor data: float64 LE, in header order]
//
// Tensors are keyed by their position in the parameter list and their
// name, e.g. "002.weight", so a checkpoint can only be restored into a model
// with the same layout.
//
// Example usage:
//
//	// Save
//	err := serialization.SaveFile("mlp.mgrd", model.Parameters(), serialization.CheckpointMeta{Epoch: 1000})
//
//	// Restore into a freshly built model
//	ck, err := serialization.ReadFile("mlp.mgrd")
//	err = ck.LoadInto(model.Parameters())
package serialization
