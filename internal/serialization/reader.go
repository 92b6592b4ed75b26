package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"

	"github.com/born-ml/minigrad/internal/nn"
	"github.com/born-ml/minigrad/internal/tensor"
)

// Checkpoint is a decoded checkpoint file.
type Checkpoint struct {
	Header Header
	values map[string][]float64
}

// Read decodes a checkpoint from r, verifying its checksum and header.
func Read(r io.Reader) (*Checkpoint, error) {
	var prefix [4 + 4 + ChecksumSize + 8]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, errors.Wrap(err, "read checkpoint prefix")
	}
	if string(prefix[:4]) != MagicBytes {
		return nil, errors.WithStack(ErrInvalidMagic)
	}
	if v := binary.LittleEndian.Uint32(prefix[4:8]); v != FormatVersion {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "got %d, expected %d", v, FormatVersion)
	}
	var stored [ChecksumSize]byte
	copy(stored[:], prefix[8:8+ChecksumSize])
	headerSize := binary.LittleEndian.Uint64(prefix[8+ChecksumSize:])
	if headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, errors.Wrap(err, "read header")
	}
	ck := &Checkpoint{}
	if err := json.Unmarshal(headerJSON, &ck.Header); err != nil {
		return nil, errors.Wrap(err, "parse header")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read tensor data")
	}
	if err := ValidateChecksum(ComputeChecksum(data), stored); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := ValidateHeader(&ck.Header, int64(len(data))); err != nil {
		return nil, errors.WithMessage(err, "invalid header")
	}

	ck.values = make(map[string][]float64, len(ck.Header.Tensors))
	for _, t := range ck.Header.Tensors {
		raw := data[t.Offset : t.Offset+t.Size]
		values := make([]float64, t.Size/bytesPerFloat64)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*bytesPerFloat64:]))
		}
		ck.values[t.Name] = values
	}
	return ck, nil
}

// ReadFile reads the checkpoint at path.
func ReadFile(path string) (*Checkpoint, error) {
	//nolint:gosec // G304: the path is chosen by the user
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open checkpoint")
	}
	defer f.Close()
	ck, err := Read(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "read %s", path)
	}
	return ck, nil
}

// Values returns the values stored under name.
func (c *Checkpoint) Values(name string) ([]float64, bool) {
	v, ok := c.values[name]
	return v, ok
}

// LoadInto copies the saved values into params, which must have the layout
// the checkpoint was written from.
func (c *Checkpoint) LoadInto(params []*nn.Parameter) error {
	if len(params) != len(c.Header.Tensors) {
		return errors.Wrapf(ErrLayoutMismatch, "model has %d parameters, checkpoint has %d",
			len(params), len(c.Header.Tensors))
	}
	for i, p := range params {
		key := StateKey(i, p)
		meta := c.Header.Tensors[i]
		if meta.Name != key {
			return errors.Wrapf(ErrLayoutMismatch, "parameter %d is %s, checkpoint has %s", i, key, meta.Name)
		}
		t := p.Tensor()
		if err := t.Check(); err != nil {
			return errors.WithMessagef(err, "parameter %s", key)
		}
		if !t.Shape().Equal(tensor.Shape(meta.Shape)) {
			return errors.Wrapf(ErrLayoutMismatch, "%s has shape %v, checkpoint has %v", key, t.Shape(), meta.Shape)
		}
		copy(t.Data(), c.values[key])
	}
	return nil
}
