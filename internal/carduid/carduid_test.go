package carduid

import (
	"errors"
	"testing"
)

func TestNormalize_ValidUIDs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "canonical 4-byte uid unchanged",
			raw:  "AA:BB:CC:DD",
			want: "AA:BB:CC:DD",
		},
		{
			name: "canonical 7-byte uid unchanged",
			raw:  "04:A3:2B:1C:9F:00:8E",
			want: "04:A3:2B:1C:9F:00:8E",
		},
		{
			name: "lowercase normalized to uppercase",
			raw:  "b3:9e:38:f6",
			want: "B3:9E:38:F6",
		},
		{
			name: "trailing reader garbage stripped",
			raw:  "B3:9E:38:F6ENTRY0.0000000.000000\x00",
			want: "B3:9E:38:F6",
		},
		{
			name: "embedded nul bytes removed",
			raw:  "AA:\x00BB:CC:\x00DD",
			want: "AA:BB:CC:DD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty payload", raw: ""},
		{name: "only nul bytes", raw: "\x00\x00\x00"},
		{name: "too few pairs", raw: "AA:BB:CC"},
		{name: "not hex", raw: "ZZ:YY:XX:WW"},
		{name: "garbage before uid", raw: "garbageAA:BB:CC:DD"},
		{name: "broker sentinel zero", raw: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			if !errors.Is(err, ErrMalformedUID) {
				t.Errorf("Normalize(%q) error = %v, want ErrMalformedUID", tt.raw, err)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	t.Parallel()

	first, err := Normalize("b3:9e:38:f6exit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := Normalize(first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Errorf("normalization not idempotent: %q != %q", first, second)
	}
}
