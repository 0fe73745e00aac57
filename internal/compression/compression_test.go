package compression

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		in      string
		want    Algorithm
		wantErr bool
	}{
		{"", None, false},
		{"none", None, false},
		{"SNAPPY", Snappy, false},
		{"zstd", None, true},
	}
	for _, tt := range tests {
		got, err := ParseAlgorithm(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseAlgorithm(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseAlgorithm(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetCompressor(t *testing.T) {
	for _, algo := range []Algorithm{None, Snappy} {
		c, err := GetCompressor(algo)
		if err != nil {
			t.Fatalf("GetCompressor(%v) failed: %v", algo, err)
		}
		if c.Algorithm() != algo {
			t.Errorf("expected %v, got %v", algo, c.Algorithm())
		}
	}

	if _, err := GetCompressor(Algorithm(99)); err == nil {
		t.Error("expected error for unknown algorithm")
	}
}

func TestSnappyCompressor_ShrinksRepetitiveData(t *testing.T) {
	original := []byte(strings.Repeat(`{"metric":"revenue","severity":"high"}`, 50))

	compressed, err := SnappyCompressor{}.Compress(original)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if len(compressed) >= len(original) {
		t.Errorf("expected compression, got %d >= %d bytes", len(compressed), len(original))
	}

	decompressed, err := SnappyCompressor{}.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress failed: %v", err)
	}
	if !bytes.Equal(original, decompressed) {
		t.Error("round trip mismatch")
	}
}

func TestSnappyCompressor_InvalidInput(t *testing.T) {
	if _, err := (SnappyCompressor{}).Decompress([]byte{0xff, 0xff, 0xff, 0xff, 0xff}); err == nil {
		t.Error("expected error for corrupt input")
	}
}

func TestPackUnpack(t *testing.T) {
	payload := []byte(strings.Repeat("alert ", 100))

	for _, algo := range []Algorithm{None, Snappy} {
		c, _ := GetCompressor(algo)
		framed, err := Pack(c, payload)
		if err != nil {
			t.Fatalf("Pack(%v) failed: %v", algo, err)
		}
		if Algorithm(framed[0]) != algo {
			t.Errorf("expected tag %v, got %v", algo, Algorithm(framed[0]))
		}

		out, err := Unpack(framed)
		if err != nil {
			t.Fatalf("Unpack(%v) failed: %v", algo, err)
		}
		if !bytes.Equal(payload, out) {
			t.Errorf("%v: round trip mismatch", algo)
		}
	}
}

func TestUnpack_Errors(t *testing.T) {
	if _, err := Unpack(nil); err == nil {
		t.Error("expected error for empty frame")
	}
	if _, err := Unpack([]byte{42, 1, 2}); err == nil {
		t.Error("expected error for unknown tag")
	}
}
