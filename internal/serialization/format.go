package serialization

import (
	"fmt"
	"time"

	"github.com/born-ml/minigrad/internal/nn"
)

// Format constants.
const (
	MagicBytes      = "MGRD"
	FormatVersion   = 1
	ChecksumSize    = 32 // SHA-256
	DTypeFloat64    = "float64"
	bytesPerFloat64 = 8
)

// Header is the JSON header of a checkpoint file.
type Header struct {
	FormatVersion int               `json:"format_version"`
	CreatedAt     time.Time         `json:"created_at"`
	Tensors       []TensorMeta      `json:"tensors"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Checkpoint    CheckpointMeta    `json:"checkpoint"`
}

// CheckpointMeta records the training state a checkpoint was taken at.
type CheckpointMeta struct {
	Epoch     int     `json:"epoch"`
	Loss      float64 `json:"loss"`
	Optimizer string  `json:"optimizer,omitempty"`
	// Layout describes the model, e.g. "2-4-4-2 relu".
	Layout string `json:"layout,omitempty"`
}

// TensorMeta describes one tensor of the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// StateKey returns the checkpoint key of the i-th parameter.
func StateKey(i int, p *nn.Parameter) string {
	return fmt.Sprintf("%03d.%s", i, p.Name())
}
