package core

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestSkipBOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("itemName,itemCode")...),
			expected: "itemName,itemCode",
		},
		{
			name:     "file without BOM",
			input:    []byte("itemName,itemCode"),
			expected: "itemName,itemCode",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(SkipBOM(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestTextSource(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte{'O', 'h', 'm', 0x80, 's'}...)

	result, err := io.ReadAll(textSource(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "Ohm\uFFFDs"; string(result) != want {
		t.Errorf("got %q, want %q", string(result), want)
	}
}

func TestReadLimited(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		data, err := ReadLimited(strings.NewReader("abc"), 3)
		if err != nil || string(data) != "abc" {
			t.Errorf("ReadLimited = (%q, %v), want (abc, nil)", data, err)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		_, err := ReadLimited(strings.NewReader("abcd"), 3)
		if !errors.Is(err, ErrFileTooLarge) {
			t.Errorf("expected ErrFileTooLarge, got %v", err)
		}
	})

	t.Run("no limit", func(t *testing.T) {
		data, err := ReadLimited(strings.NewReader(strings.Repeat("x", 1000)), 0)
		if err != nil || len(data) != 1000 {
			t.Errorf("ReadLimited = (%d bytes, %v)", len(data), err)
		}
	})
}
