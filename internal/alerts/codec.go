package alerts

import (
	"encoding/json"
	"fmt"

	"github.com/soltixdb/insights/internal/compression"
)

// Codec serializes alerts as JSON inside a compression frame
type Codec struct {
	compressor compression.Compressor
}

// NewCodec returns a codec for the named compression ("none" or "snappy")
func NewCodec(name string) (*Codec, error) {
	algo, err := compression.ParseAlgorithm(name)
	if err != nil {
		return nil, err
	}
	c, err := compression.GetCompressor(algo)
	if err != nil {
		return nil, err
	}
	return &Codec{compressor: c}, nil
}

// Encode marshals and frames an alert
func (c *Codec) Encode(a Alert) ([]byte, error) {
	raw, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal alert: %w", err)
	}
	return compression.Pack(c.compressor, raw)
}

// Decode reverses Encode. The frame tag decides the decompressor, so any
// codec can read alerts written with any compression.
func (c *Codec) Decode(data []byte) (Alert, error) {
	var a Alert
	raw, err := compression.Unpack(data)
	if err != nil {
		return a, fmt.Errorf("unpack alert: %w", err)
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return a, fmt.Errorf("unmarshal alert: %w", err)
	}
	return a, nil
}
