package registry

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/pable/riftlens/internal/ml"
)

// EncodeModel serializes an ensemble as zstd-compressed JSON.
func EncodeModel(e *ml.Ensemble) ([]byte, error) {
	raw, err := e.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal model: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// DecodeModel reverses EncodeModel and validates the result.
func DecodeModel(b []byte) (*ml.Ensemble, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress model: %w", err)
	}
	var e ml.Ensemble
	if err := e.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return &e, nil
}
