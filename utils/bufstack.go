package utils

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/pkg/errors"
)

// BufStack is a named window over a byte buffer. Reads past the window
// do not panic: they return zeroes and latch an error readable with Err.
type BufStack struct {
	parent         *BufStack
	childs         []*BufStack
	buf            []byte
	relativeOffset int
	absoluteOffset int
	size           int
	pos            int
	kind           string
	name           string
	err            error
}

func NewBufStack(kind string, b []byte) *BufStack {
	return &BufStack{
		buf:  b,
		size: len(b),
		kind: kind,
	}
}

func (bs *BufStack) addChild(childBs *BufStack) {
	index := sort.Search(len(bs.childs), func(i int) bool {
		return bs.childs[i].relativeOffset > childBs.relativeOffset
	})
	bs.childs = append(bs.childs, childBs)
	copy(bs.childs[index+1:], bs.childs[index:])
	bs.childs[index] = childBs
}

// SubBuf opens a window of size bytes at offset. An out of range window is
// empty and carries the error.
func (bs *BufStack) SubBuf(kind string, offset, size int) *BufStack {
	childBs := &BufStack{
		parent:         bs,
		relativeOffset: offset,
		absoluteOffset: bs.absoluteOffset + offset,
		kind:           kind,
		size:           size,
	}
	if offset < 0 || size < 0 || offset+size > len(bs.Raw()) {
		childBs.err = errors.Errorf("%v out of bounds of %v", childBs, bs)
		childBs.size = 0
	} else {
		childBs.buf = bs.buf[offset : offset+size]
	}
	bs.addChild(childBs)
	return childBs
}

func (bs *BufStack) SetName(name string) *BufStack {
	bs.name = name
	return bs
}

func (bs *BufStack) Name() string {
	return bs.name
}

func (bs *BufStack) Size() int {
	return bs.size
}

func (bs *BufStack) Kind() string {
	return bs.kind
}

func (bs *BufStack) Parent() *BufStack {
	return bs.parent
}

func (bs *BufStack) RelativeOffset() int {
	return bs.relativeOffset
}

func (bs *BufStack) AbsoluteOffset() int {
	return bs.absoluteOffset
}

func (bs *BufStack) Err() error {
	return bs.err
}

func (bs *BufStack) String() string {
	return fmt.Sprintf("buf<%v>(%v)[o:0x%x,s:0x%x,ao:0x%x,ae:0x%x]",
		bs.kind, bs.name, bs.relativeOffset, bs.size, bs.absoluteOffset, bs.absoluteOffset+bs.size)
}

func (bs *BufStack) StringChain() string {
	s := bs.String()
	if bs.parent != nil {
		s += fmt.Sprintf("::%s", bs.parent.StringChain())
	}
	return s
}

func (bs *BufStack) stringTree(pad int) string {
	sPad := ""
	for i := 0; i < pad; i++ {
		sPad += ".  "
	}
	s := sPad + bs.String() + "\n"
	pos := 0
	for i, child := range bs.childs {
		if child.relativeOffset > pos {
			s += fmt.Sprintf("%s.  gap [o:0x%x,s:0x%x]\n", sPad, pos, child.relativeOffset-pos)
		}
		s += child.stringTree(pad + 1)
		end := child.relativeOffset + child.size
		if end > pos {
			pos = end
		}
		if i != len(bs.childs)-1 && end > bs.childs[i+1].relativeOffset {
			s += fmt.Sprintf("%s. [OVERLAP]\n", sPad)
		}
	}
	return s
}

// StringTree renders the window hierarchy with gaps and overlaps, for dumps.
func (bs *BufStack) StringTree() string {
	return bs.stringTree(0)
}

func (bs *BufStack) Raw() []byte {
	return bs.buf[:bs.size]
}

func (bs *BufStack) Pos() int {
	return bs.pos
}

func (bs *BufStack) Left() int {
	return bs.size - bs.pos
}

func (bs *BufStack) Read(amount int) []byte {
	if amount < 0 || bs.pos+amount > bs.size {
		if bs.err == nil {
			bs.err = errors.Errorf("read of %d bytes at 0x%x overruns %s", amount, bs.pos, bs.StringChain())
		}
		bs.pos = bs.size
		if amount < 0 {
			amount = 0
		}
		return make([]byte, amount)
	}
	oldPos := bs.pos
	bs.pos += amount
	return bs.buf[oldPos:bs.pos]
}

func (bs *BufStack) Skip(amount int) {
	bs.Read(amount)
}

func (bs *BufStack) ReadLU32() uint32 {
	return binary.LittleEndian.Uint32(bs.Read(4))
}

func (bs *BufStack) ReadLI32() int32 {
	return int32(bs.ReadLU32())
}

func (bs *BufStack) ReadByte() byte {
	return bs.Read(1)[0]
}

func (bs *BufStack) ReadLF() float32 {
	return math.Float32frombits(bs.ReadLU32())
}

func (bs *BufStack) ReadLFs(out []float32) {
	for i := range out {
		out[i] = bs.ReadLF()
	}
}

func (bs *BufStack) LU32(off int) uint32 {
	if off < 0 || off+4 > bs.size {
		if bs.err == nil {
			bs.err = errors.Errorf("u32 at 0x%x out of %v", off, bs)
		}
		return 0
	}
	return binary.LittleEndian.Uint32(bs.buf[off:])
}
