package serialization

import (
	"encoding/binary"
	"encoding/json"
	"io"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/minigrad/internal/nn"
)

// Write encodes the values of params into w. Gradients are not saved.
func Write(w io.Writer, params []*nn.Parameter, meta CheckpointMeta, metadata map[string]string) error {
	header := Header{
		FormatVersion: FormatVersion,
		CreatedAt:     time.Now().UTC(),
		Metadata:      metadata,
		Checkpoint:    meta,
		Tensors:       make([]TensorMeta, 0, len(params)),
	}

	var data []byte
	for i, p := range params {
		t := p.Tensor()
		if err := t.Check(); err != nil {
			return errors.WithMessagef(err, "parameter %s", StateKey(i, p))
		}
		values := t.Data()
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   StateKey(i, p),
			DType:  DTypeFloat64,
			Shape:  t.Shape().Clone(),
			Offset: int64(len(data)),
			Size:   int64(len(values)) * bytesPerFloat64,
		})
		for _, v := range values {
			data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
		}
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return errors.Wrap(err, "marshal header")
	}
	checksum := ComputeChecksum(data)

	prefix := make([]byte, 0, 4+4+ChecksumSize+8)
	prefix = append(prefix, MagicBytes...)
	prefix = binary.LittleEndian.AppendUint32(prefix, FormatVersion)
	prefix = append(prefix, checksum[:]...)
	prefix = binary.LittleEndian.AppendUint64(prefix, uint64(len(headerJSON)))

	for _, chunk := range [][]byte{prefix, headerJSON, data} {
		if _, err := w.Write(chunk); err != nil {
			return errors.Wrap(err, "write checkpoint")
		}
	}
	return nil
}

// SaveFile writes a checkpoint of params to path.
func SaveFile(path string, params []*nn.Parameter, meta CheckpointMeta, metadata map[string]string) error {
	//nolint:gosec // G304: the path is chosen by the user
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create checkpoint")
	}
	if err := Write(f, params, meta, metadata); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", path)
	}
	klog.V(1).Infof("saved %d tensors to %s", len(params), path)
	return nil
}
