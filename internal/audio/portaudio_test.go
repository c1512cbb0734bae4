package audio

import (
	"encoding/binary"
	"errors"
	"testing"
)

func le16(b []byte, i int) int16 {
	return int16(binary.LittleEndian.Uint16(b[i*2:]))
}

func TestPackInputStereoPair(t *testing.T) {
	// 4 device channels, 2 frames; pick channels 2 and 3.
	in := []int16{
		1, 2, 3, 4,
		5, 6, 7, -8,
	}
	dst := make([]byte, 16)

	n := packInput(in, 4, []int{2, 3}, []float32{1, 1}, dst)
	if n != 8 {
		t.Fatalf("expected 8 bytes, got %d", n)
	}

	expected := []int16{3, 4, 7, -8}
	for i, want := range expected {
		if got := le16(dst, i); got != want {
			t.Fatalf("sample %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestPackInputAppliesVolume(t *testing.T) {
	in := []int16{1000, -1000}
	dst := make([]byte, 4)

	packInput(in, 2, []int{0, 1}, []float32{0.5, 0}, dst)

	if got := le16(dst, 0); got != 500 {
		t.Fatalf("expected left scaled to 500, got %d", got)
	}
	if got := le16(dst, 1); got != 0 {
		t.Fatalf("expected right muted, got %d", got)
	}
}

func TestPackInputClipsToScratch(t *testing.T) {
	in := make([]int16, 2*100)
	dst := make([]byte, 4*10)

	if n := packInput(in, 2, []int{0, 1}, []float32{1, 1}, dst); n != len(dst) {
		t.Fatalf("expected packing to stop at %d bytes, got %d", len(dst), n)
	}
}

func TestUnpackOutput(t *testing.T) {
	src := make([]byte, 8)
	for i, s := range []int16{10, -20, 30, -40} {
		binary.LittleEndian.PutUint16(src[i*2:], uint16(s))
	}
	out := make([]int16, 3*3)

	unpackOutput(src, out, 3, []int{0, 1}, []float32{1, 1})

	expected := []int16{
		10, -20, 0,
		30, -40, 0,
		0, 0, 0,
	}
	for i := range expected {
		if out[i] != expected[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, expected[i], out[i])
		}
	}
}

func TestChannelGroups(t *testing.T) {
	cb := func(dir Direction, channel int, buf []byte) int { return len(buf) }

	table := newChannelTable(4)
	if err := table.join(1, 0); err != nil {
		t.Fatal(err)
	}
	if err := table.join(3, 2); err != nil {
		t.Fatal(err)
	}
	if err := table.enable(2, cb); err != nil {
		t.Fatal(err)
	}
	if err := table.setVolume(3, 0.25); err != nil {
		t.Fatal(err)
	}

	groups, width := table.groups(256)
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	g := groups[0]
	if g.master != 2 || len(g.members) != 2 || g.members[0] != 2 || g.members[1] != 3 {
		t.Fatalf("unexpected group %+v", g)
	}
	if width != 4 {
		t.Fatalf("expected stream width 4, got %d", width)
	}
	if g.volumes[0] != 1 || g.volumes[1] != 0.25 {
		t.Fatalf("unexpected volumes %v", g.volumes)
	}
	if len(g.scratch) != 256*2*2 {
		t.Fatalf("expected scratch of %d bytes, got %d", 256*2*2, len(g.scratch))
	}

	// Level changes reach a running group without rebuilding it.
	if err := table.setVolume(2, 0.5); err != nil {
		t.Fatal(err)
	}
	g.refreshVolumes()
	if g.volumes[0] != 0.5 {
		t.Fatalf("expected refreshed volume 0.5, got %v", g.volumes[0])
	}

	table.disableAll()
	if groups, _ := table.groups(256); len(groups) != 0 {
		t.Fatalf("expected no groups after disableAll, got %d", len(groups))
	}
}

func TestChannelTableErrors(t *testing.T) {
	table := newChannelTable(2)

	if err := table.enable(2, nil); !errors.Is(err, ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}
	if err := table.join(1, 5); !errors.Is(err, ErrNoChannel) {
		t.Fatalf("expected ErrNoChannel, got %v", err)
	}
	for _, level := range []float32{-0.1, 1.5} {
		if err := table.setVolume(0, level); !errors.Is(err, ErrVolumeRange) {
			t.Fatalf("level %v: expected ErrVolumeRange, got %v", level, err)
		}
	}
}
