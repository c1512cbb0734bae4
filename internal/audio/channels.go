package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
)

type channelState struct {
	enabled  bool
	callback Callback
	joinedTo int
	format   SampleFormat
}

// channelTable tracks the per-channel settings of one direction. Levels are
// stored as float32 bits so a running stream picks up changes immediately.
type channelTable struct {
	chans  []channelState
	levels []atomic.Uint32
}

func newChannelTable(n int) channelTable {
	t := channelTable{
		chans:  make([]channelState, n),
		levels: make([]atomic.Uint32, n),
	}
	for i := range t.chans {
		t.chans[i] = channelState{joinedTo: -1, format: Format16Bit}
		t.levels[i].Store(math.Float32bits(1))
	}
	return t
}

func (t *channelTable) level(index int) float32 {
	return math.Float32frombits(t.levels[index].Load())
}

func (t *channelTable) get(index int) (*channelState, error) {
	if index < 0 || index >= len(t.chans) {
		return nil, fmt.Errorf("%w: %d", ErrNoChannel, index)
	}
	return &t.chans[index], nil
}

func (t *channelTable) enable(index int, cb Callback) error {
	c, err := t.get(index)
	if err != nil {
		return err
	}
	c.enabled = true
	c.callback = cb
	return nil
}

func (t *channelTable) disableAll() {
	for i := range t.chans {
		t.chans[i].enabled = false
		t.chans[i].callback = nil
	}
}

func (t *channelTable) join(channel, to int) error {
	c, err := t.get(channel)
	if err != nil {
		return err
	}
	if _, err := t.get(to); err != nil {
		return err
	}
	if channel == to {
		c.joinedTo = -1
		return nil
	}
	c.joinedTo = to
	return nil
}

func (t *channelTable) setVolume(index int, level float32) error {
	if level < 0 || level > 1 || math.IsNaN(float64(level)) {
		return fmt.Errorf("%w: %v", ErrVolumeRange, level)
	}
	if _, err := t.get(index); err != nil {
		return err
	}
	t.levels[index].Store(math.Float32bits(level))
	return nil
}

// channelGroup is one enabled channel plus every channel joined to it, in
// the order they are interleaved in the callback buffer.
type channelGroup struct {
	table    *channelTable
	master   int
	callback Callback
	members  []int
	volumes  []float32
	scratch  []byte
}

// refreshVolumes copies the current channel levels into the group.
func (g *channelGroup) refreshVolumes() {
	for k, m := range g.members {
		g.volumes[k] = g.table.level(m)
	}
}

// groups resolves the enabled channels for a stream delivering
// framesPerBuffer frames and allocates each group's scratch buffer.
// It also returns how many leading device channels the stream must open.
func (t *channelTable) groups(framesPerBuffer int) ([]*channelGroup, int) {
	var out []*channelGroup
	width := 0
	for i, c := range t.chans {
		if !c.enabled || c.joinedTo >= 0 {
			continue
		}
		g := &channelGroup{table: t, master: i, callback: c.callback, members: []int{i}}
		for j, other := range t.chans {
			if other.joinedTo == i {
				g.members = append(g.members, j)
			}
		}
		sort.Ints(g.members)
		g.volumes = make([]float32, len(g.members))
		for _, m := range g.members {
			width = max(width, m+1)
		}
		g.refreshVolumes()
		g.scratch = make([]byte, framesPerBuffer*len(g.members)*2)
		out = append(out, g)
	}
	return out, width
}

// packInput extracts the group's channels from interleaved samples with the
// given stride, applies the volume and writes little-endian 16-bit bytes to
// dst. It returns the number of bytes written.
func packInput(in []int16, stride int, members []int, volumes []float32, dst []byte) int {
	if stride == 0 || len(members) == 0 {
		return 0
	}
	frames := min(len(in)/stride, len(dst)/(2*len(members)))
	n := 0
	for f := 0; f < frames; f++ {
		row := in[f*stride:]
		for k, ch := range members {
			binary.LittleEndian.PutUint16(dst[n:], uint16(scale(row[ch], volumes[k])))
			n += 2
		}
	}
	return n
}

// unpackOutput spreads interleaved 16-bit bytes from src into the group's
// channels of out. Frames past the end of src are left untouched.
func unpackOutput(src []byte, out []int16, stride int, members []int, volumes []float32) {
	if stride == 0 || len(members) == 0 {
		return
	}
	frames := min(len(out)/stride, len(src)/(2*len(members)))
	n := 0
	for f := 0; f < frames; f++ {
		row := out[f*stride:]
		for k, ch := range members {
			row[ch] = scale(int16(binary.LittleEndian.Uint16(src[n:])), volumes[k])
			n += 2
		}
	}
}

func scale(s int16, v float32) int16 {
	if v >= 1 {
		return s
	}
	return int16(float32(s) * v)
}
