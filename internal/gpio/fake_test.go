package gpio

import (
	"errors"
	"testing"
)

func TestFakeReaderPlayback(t *testing.T) {
	f := NewFakeReader([]bool{true, false, true})

	want := []bool{true, false, true}
	for i, w := range want {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("sample %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("sample %d: got %v, want %v", i, got, w)
		}
	}

	// Exhausted samples repeat the last value.
	for i := 0; i < 3; i++ {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("repeat %d: unexpected error: %v", i, err)
		}
		if got != true {
			t.Errorf("repeat %d: got %v, want true", i, got)
		}
	}
}

func TestFakeReaderNoSamples(t *testing.T) {
	f := NewFakeReader(nil)
	if _, err := f.Read(); err == nil {
		t.Error("expected error with no samples configured")
	}
}

func TestFakeReaderReadError(t *testing.T) {
	f := NewFakeReader([]bool{true})
	f.ReadError = errors.New("boom")
	if _, err := f.Read(); err == nil {
		t.Error("expected configured read error")
	}
}

func TestFakeReaderReset(t *testing.T) {
	f := NewFakeReader([]bool{true, false})
	f.Read()
	f.Read()
	f.Close()
	if !f.Closed {
		t.Error("expected Closed after Close")
	}

	f.Reset()
	if f.Closed {
		t.Error("expected Closed cleared after Reset")
	}
	got, err := f.Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != true {
		t.Error("expected playback to restart from the first sample")
	}
}
