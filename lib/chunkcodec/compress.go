// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package chunkcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/strata-data/strata/lib/dataset"
)

// Registered identifiers of the compression codecs.
const (
	ZstdID    = "zstd"
	LZ4ID     = "lz4"
	ShuffleID = "shuffle"
)

// Compression frames are self-describing:
//
//	[Mode: 1 byte] [Original length: uvarint] [Payload]
//
// Mode modeStored carries the input verbatim; both compressors fall
// back to it when compression does not shrink the data (random or
// already-compressed content), so Encode never fails on
// incompressible input. The declared length is verified on decode.
const (
	modeStored     byte = 0
	modeCompressed byte = 1
)

func frameCompressed(mode byte, originalLength int, payload []byte) []byte {
	frame := make([]byte, 0, 1+binary.MaxVarintLen64+len(payload))
	frame = append(frame, mode)
	frame = binary.AppendUvarint(frame, uint64(originalLength))
	return append(frame, payload...)
}

// splitCompressed parses the mode, declared original length, and
// payload from a compression frame.
func splitCompressed(id string, frame []byte) (mode byte, originalLength int, payload []byte, err error) {
	if len(frame) < 2 {
		return 0, 0, nil, dataset.Errorf(dataset.KindIntegrity,
			"%s frame is %d bytes, too short for mode and length", id, len(frame))
	}
	mode = frame[0]
	length, read := binary.Uvarint(frame[1:])
	if read <= 0 {
		return 0, 0, nil, dataset.Errorf(dataset.KindIntegrity,
			"%s frame has a malformed length prefix", id)
	}
	return mode, int(length), frame[1+read:], nil
}

// decodeStored handles modeStored for both compressors.
func decodeStored(id string, originalLength int, payload []byte, out []byte) ([]byte, error) {
	if len(payload) != originalLength {
		return nil, dataset.Errorf(dataset.KindIntegrity,
			"%s stored frame carries %d bytes, declared %d", id, len(payload), originalLength)
	}
	out = append(out[:0], payload...)
	return out, nil
}

// Zstd compresses chunks with zstd. Text-like content (JSON, CSV,
// logs) typically shrinks 3-5x. The encoder and decoder are built
// once per codec and are safe for concurrent use.
type Zstd struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstd returns a zstd codec. Level zero selects the library's
// speed-default level; other values map through the standard zstd
// level scale.
func NewZstd(level int) (*Zstd, error) {
	encoderLevel := zstd.SpeedDefault
	if level != 0 {
		encoderLevel = zstd.EncoderLevelFromZstd(level)
	}
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel))
	if err != nil {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, dataset.Errorf(dataset.KindMisconfigured, "zstd decoder: %w", err)
	}
	return &Zstd{encoder: encoder, decoder: decoder}, nil
}

func init() {
	Register(ZstdID, func(config Config) (Codec, error) {
		return NewZstd(config.Level)
	})
}

// ID returns "zstd".
func (c *Zstd) ID() string { return ZstdID }

// Encode compresses plaintext, falling back to stored mode when
// compression does not shrink it.
func (c *Zstd) Encode(plaintext []byte) ([]byte, error) {
	compressed := c.encoder.EncodeAll(plaintext, nil)
	if len(compressed) >= len(plaintext) {
		return frameCompressed(modeStored, len(plaintext), plaintext), nil
	}
	return frameCompressed(modeCompressed, len(plaintext), compressed), nil
}

// Decode decompresses a frame and verifies the declared length.
func (c *Zstd) Decode(frame []byte, out []byte) ([]byte, error) {
	mode, originalLength, payload, err := splitCompressed(ZstdID, frame)
	if err != nil {
		return nil, err
	}
	switch mode {
	case modeStored:
		return decodeStored(ZstdID, originalLength, payload, out)
	case modeCompressed:
		result, err := c.decoder.DecodeAll(payload, out[:0])
		if err != nil {
			return nil, dataset.Errorf(dataset.KindIntegrity, "zstd decompress: %w", err)
		}
		if len(result) != originalLength {
			return nil, dataset.Errorf(dataset.KindIntegrity,
				"zstd decompress produced %d bytes, declared %d", len(result), originalLength)
		}
		return result, nil
	default:
		return nil, dataset.Errorf(dataset.KindIntegrity, "zstd frame has unknown mode %d", mode)
	}
}

// LZ4 compresses chunks with LZ4 block compression: lower ratios than
// zstd but several times faster to decode, the usual pick for binary
// content of unknown shape.
type LZ4 struct{}

// NewLZ4 returns an LZ4 block codec.
func NewLZ4() *LZ4 { return &LZ4{} }

func init() {
	Register(LZ4ID, func(config Config) (Codec, error) {
		return NewLZ4(), nil
	})
}

// ID returns "lz4".
func (c *LZ4) ID() string { return LZ4ID }

// Encode compresses plaintext as one LZ4 block. CompressBlock
// signals incompressible input by writing zero bytes; that and any
// non-shrinking result fall back to stored mode.
func (c *LZ4) Encode(plaintext []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(plaintext))
	destination := make([]byte, bound)
	written, err := lz4.CompressBlock(plaintext, destination, nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if written == 0 || written >= len(plaintext) {
		return frameCompressed(modeStored, len(plaintext), plaintext), nil
	}
	return frameCompressed(modeCompressed, len(plaintext), destination[:written]), nil
}

// Decode decompresses a frame into a buffer of exactly the declared
// length.
func (c *LZ4) Decode(frame []byte, out []byte) ([]byte, error) {
	mode, originalLength, payload, err := splitCompressed(LZ4ID, frame)
	if err != nil {
		return nil, err
	}
	switch mode {
	case modeStored:
		return decodeStored(LZ4ID, originalLength, payload, out)
	case modeCompressed:
		destination := out
		if cap(destination) < originalLength {
			destination = make([]byte, originalLength)
		}
		destination = destination[:originalLength]
		read, err := lz4.UncompressBlock(payload, destination)
		if err != nil {
			return nil, dataset.Errorf(dataset.KindIntegrity, "lz4 decompress: %w", err)
		}
		if read != originalLength {
			return nil, dataset.Errorf(dataset.KindIntegrity,
				"lz4 decompress produced %d bytes, declared %d", read, originalLength)
		}
		return destination, nil
	default:
		return nil, dataset.Errorf(dataset.KindIntegrity, "lz4 frame has unknown mode %d", mode)
	}
}

// Shuffle transposes fixed-width elements by byte position: all first
// bytes, then all second bytes, and so on. Numeric arrays whose
// neighbors are close in magnitude (float32 grids, sensor series)
// gain a lot of downstream compressibility from this, since the
// high-order bytes end up in long near-constant runs. Shuffle is
// length-preserving and only useful ahead of a compressor in the
// pipeline.
type Shuffle struct {
	width int
}

// DefaultShuffleWidth is the element width used when configuration
// does not specify one: 4 bytes, the float32 layout.
const DefaultShuffleWidth = 4

// NewShuffle returns a shuffle codec for elements of the given width
// in bytes. Zero selects DefaultShuffleWidth.
func NewShuffle(width int) (*Shuffle, error) {
	if width == 0 {
		width = DefaultShuffleWidth
	}
	if width < 1 {
		return nil, dataset.Errorf(dataset.KindMisconfigured,
			"shuffle width must be positive, got %d", width)
	}
	return &Shuffle{width: width}, nil
}

func init() {
	Register(ShuffleID, func(config Config) (Codec, error) {
		return NewShuffle(config.Width)
	})
}

// ID returns "shuffle".
func (c *Shuffle) ID() string { return ShuffleID }

// Encode transposes plaintext by byte position within each
// width-sized element. Trailing bytes that do not fill an element
// pass through unchanged.
func (c *Shuffle) Encode(plaintext []byte) ([]byte, error) {
	groupCount := len(plaintext) / c.width
	output := make([]byte, len(plaintext))
	for i := 0; i < groupCount; i++ {
		for b := 0; b < c.width; b++ {
			output[groupCount*b+i] = plaintext[i*c.width+b]
		}
	}
	copy(output[groupCount*c.width:], plaintext[groupCount*c.width:])
	return output, nil
}

// Decode reverses the transpose.
func (c *Shuffle) Decode(frame []byte, out []byte) ([]byte, error) {
	groupCount := len(frame) / c.width
	destination := out
	if cap(destination) < len(frame) {
		destination = make([]byte, len(frame))
	}
	destination = destination[:len(frame)]
	for i := 0; i < groupCount; i++ {
		for b := 0; b < c.width; b++ {
			destination[i*c.width+b] = frame[groupCount*b+i]
		}
	}
	copy(destination[groupCount*c.width:], frame[groupCount*c.width:])
	return destination, nil
}
