// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

package chunkcodec

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/strata-data/strata/lib/dataset"
)

// compressionCodecs builds one of each compression codec for
// table-driven round-trip tests.
func compressionCodecs(t *testing.T) []Codec {
	t.Helper()
	zstdCodec, err := NewZstd(0)
	if err != nil {
		t.Fatal(err)
	}
	shuffleCodec, err := NewShuffle(0)
	if err != nil {
		t.Fatal(err)
	}
	return []Codec{zstdCodec, NewLZ4(), shuffleCodec}
}

func TestCompressionRoundTrip(t *testing.T) {
	// Repetitive (compressible), random (incompressible), empty, and
	// sizes that do not align to the shuffle width.
	payloads := map[string][]byte{
		"empty":     {},
		"one byte":  {0x42},
		"unaligned": []byte("seven b"),
	}
	repetitive := make([]byte, 64*1024)
	for i := range repetitive {
		repetitive[i] = byte(i % 17)
	}
	payloads["repetitive"] = repetitive
	random := make([]byte, 64*1024)
	rand.Read(random)
	payloads["random"] = random

	for _, codec := range compressionCodecs(t) {
		for name, payload := range payloads {
			t.Run(fmt.Sprintf("%s/%s", codec.ID(), name), func(t *testing.T) {
				frame, err := codec.Encode(payload)
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}
				decoded, err := codec.Decode(frame, nil)
				if err != nil {
					t.Fatalf("Decode: %v", err)
				}
				if !bytes.Equal(decoded, payload) {
					t.Error("round trip did not reproduce the payload")
				}
			})
		}
	}
}

func TestCompressionShrinksRepetitiveData(t *testing.T) {
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 17)
	}

	zstdCodec, err := NewZstd(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, codec := range []Codec{zstdCodec, NewLZ4()} {
		frame, err := codec.Encode(data)
		if err != nil {
			t.Fatalf("%s: %v", codec.ID(), err)
		}
		if len(frame) >= len(data) {
			t.Errorf("%s did not compress: %d bytes -> %d bytes", codec.ID(), len(data), len(frame))
		}
	}
}

func TestCompressionStoredFallback(t *testing.T) {
	// Random data is incompressible; the frame must carry it in
	// stored mode with only the small header as overhead.
	data := make([]byte, 64*1024)
	rand.Read(data)

	zstdCodec, err := NewZstd(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, codec := range []Codec{zstdCodec, NewLZ4()} {
		frame, err := codec.Encode(data)
		if err != nil {
			t.Fatalf("%s: %v", codec.ID(), err)
		}
		if frame[0] != modeStored {
			t.Errorf("%s: mode = %d, want stored", codec.ID(), frame[0])
		}
		if len(frame) > len(data)+1+10 {
			t.Errorf("%s: stored frame is %d bytes for %d input", codec.ID(), len(frame), len(data))
		}
	}
}

func TestCompressionRejectsLengthMismatch(t *testing.T) {
	zstdCodec, err := NewZstd(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, codec := range []Codec{zstdCodec, NewLZ4()} {
		t.Run(codec.ID(), func(t *testing.T) {
			frame, err := codec.Encode([]byte("declared length fixture"))
			if err != nil {
				t.Fatal(err)
			}
			// Inflate the declared length: the single-byte uvarint
			// after the mode byte.
			tampered := make([]byte, len(frame))
			copy(tampered, frame)
			tampered[1]++

			_, err = codec.Decode(tampered, nil)
			if err == nil {
				t.Fatal("a frame with a wrong declared length decoded")
			}
			if !dataset.IsKind(err, dataset.KindIntegrity) {
				t.Errorf("error kind = %v, want integrity", err)
			}
		})
	}
}

func TestCompressionRejectsUnknownMode(t *testing.T) {
	zstdCodec, err := NewZstd(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, codec := range []Codec{zstdCodec, NewLZ4()} {
		_, err := codec.Decode([]byte{0x7f, 0x04, 0xde, 0xad, 0xbe, 0xef}, nil)
		if err == nil {
			t.Fatalf("%s decoded a frame with an unknown mode byte", codec.ID())
		}
		if !dataset.IsKind(err, dataset.KindIntegrity) {
			t.Errorf("%s: error kind = %v, want integrity", codec.ID(), err)
		}
	}
}

func TestCompressionRejectsTruncatedFrame(t *testing.T) {
	zstdCodec, err := NewZstd(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, frame := range [][]byte{nil, {modeCompressed}} {
		if _, err := zstdCodec.Decode(frame, nil); err == nil {
			t.Errorf("a %d-byte frame decoded", len(frame))
		}
	}
}

func TestShuffleGroupsBytesByPosition(t *testing.T) {
	// Input: [A0 A1 A2 A3] [B0 B1 B2 B3] [C0 C1 C2 C3]
	// Expected: all position-0 bytes, then position-1, and so on.
	input := []byte{
		0x10, 0x11, 0x12, 0x13,
		0x20, 0x21, 0x22, 0x23,
		0x30, 0x31, 0x32, 0x33,
	}
	want := []byte{
		0x10, 0x20, 0x30,
		0x11, 0x21, 0x31,
		0x12, 0x22, 0x32,
		0x13, 0x23, 0x33,
	}

	shuffleCodec, err := NewShuffle(4)
	if err != nil {
		t.Fatal(err)
	}
	got, err := shuffleCodec.Encode(input)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode = % x, want % x", got, want)
	}
}

func TestShuffleTailPassthrough(t *testing.T) {
	shuffleCodec, err := NewShuffle(4)
	if err != nil {
		t.Fatal(err)
	}
	// 10 bytes: two aligned groups plus a 2-byte tail.
	input := []byte{0, 1, 2, 3, 4, 5, 6, 7, 0xfe, 0xff}

	encoded, err := shuffleCodec.Encode(input)
	if err != nil {
		t.Fatal(err)
	}
	if encoded[8] != 0xfe || encoded[9] != 0xff {
		t.Errorf("tail bytes = %x %x, want fe ff unchanged", encoded[8], encoded[9])
	}

	decoded, err := shuffleCodec.Decode(encoded, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(decoded, input) {
		t.Error("shuffle round trip mismatch with unaligned tail")
	}
}

func TestShuffleRoundTripWidths(t *testing.T) {
	for _, width := range []int{1, 2, 4, 8} {
		for _, size := range []int{0, 1, 7, 8, 100, 65537} {
			t.Run(fmt.Sprintf("width=%d/size=%d", width, size), func(t *testing.T) {
				shuffleCodec, err := NewShuffle(width)
				if err != nil {
					t.Fatal(err)
				}
				data := make([]byte, size)
				for i := range data {
					data[i] = byte(i * 37)
				}
				encoded, err := shuffleCodec.Encode(data)
				if err != nil {
					t.Fatal(err)
				}
				if len(encoded) != len(data) {
					t.Fatalf("encoded length %d != original %d", len(encoded), len(data))
				}
				decoded, err := shuffleCodec.Decode(encoded, nil)
				if err != nil {
					t.Fatal(err)
				}
				if !bytes.Equal(decoded, data) {
					t.Fatal("round trip mismatch")
				}
			})
		}
	}
}

func TestShuffleRejectsNegativeWidth(t *testing.T) {
	_, err := NewShuffle(-2)
	if err == nil {
		t.Fatal("NewShuffle accepted a negative width")
	}
	if !dataset.IsKind(err, dataset.KindMisconfigured) {
		t.Errorf("error kind = %v, want misconfigured", err)
	}
}

func TestShuffleImprovesNumericCompression(t *testing.T) {
	// A smooth float32 ramp: neighboring values share exponent and
	// high mantissa bytes, so grouping bytes by position should make
	// zstd's job visibly easier.
	values := make([]byte, 0, 4096*4)
	for i := 0; i < 4096; i++ {
		bits := uint32(0x3f800000 + i) // 1.0 plus a tiny increment
		values = append(values, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	}

	zstdCodec, err := NewZstd(0)
	if err != nil {
		t.Fatal(err)
	}
	shuffleCodec, err := NewShuffle(4)
	if err != nil {
		t.Fatal(err)
	}

	plain, err := zstdCodec.Encode(values)
	if err != nil {
		t.Fatal(err)
	}
	shuffled, err := shuffleCodec.Encode(values)
	if err != nil {
		t.Fatal(err)
	}
	shuffledCompressed, err := zstdCodec.Encode(shuffled)
	if err != nil {
		t.Fatal(err)
	}

	if len(shuffledCompressed) >= len(plain) {
		t.Errorf("shuffle+zstd = %d bytes, zstd alone = %d bytes; shuffle should help here",
			len(shuffledCompressed), len(plain))
	}
}

func TestZstdLevels(t *testing.T) {
	data := make([]byte, 32*1024)
	for i := range data {
		data[i] = byte(i % 29)
	}

	for _, level := range []int{0, 1, 3, 19} {
		t.Run(fmt.Sprintf("level=%d", level), func(t *testing.T) {
			codec, err := NewZstd(level)
			if err != nil {
				t.Fatalf("NewZstd(%d): %v", level, err)
			}
			frame, err := codec.Encode(data)
			if err != nil {
				t.Fatal(err)
			}
			decoded, err := codec.Decode(frame, nil)
			if err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(decoded, data) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func BenchmarkZstdEncode(b *testing.B) {
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 17)
	}
	codec, err := NewZstd(0)
	if err != nil {
		b.Fatal(err)
	}

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		codec.Encode(data)
	}
}

func BenchmarkLZ4Decode(b *testing.B) {
	data := make([]byte, 64*1024)
	for i := range data {
		data[i] = byte(i % 17)
	}
	codec := NewLZ4()
	frame, err := codec.Encode(data)
	if err != nil {
		b.Fatal(err)
	}
	out := make([]byte, 0, len(data))

	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		codec.Decode(frame, out)
	}
}
