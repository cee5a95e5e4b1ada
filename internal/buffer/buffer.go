package buffer

import "github.com/indigo-web/utils/uf"

// Buffer is the per-connection scratch memory request strings are copied into. It's a single
// fixed-capacity slice split into segments, so copying all the strings of a request head costs
// no allocations. The capacity never grows: strings handed out earlier stay valid until Clear.
type Buffer struct {
	memory []byte
	begin  int
}

// New returns a buffer able to hold exactly size bytes.
func New(size int) *Buffer {
	return &Buffer{
		memory: make([]byte, 0, size),
	}
}

// Append writes data into the current segment. Returns false without writing anything if
// the capacity would be exceeded.
func (b *Buffer) Append(elements ...byte) (ok bool) {
	if len(b.memory)+len(elements) > cap(b.memory) {
		return false
	}

	b.memory = append(b.memory, elements...)
	return true
}

// AppendByte writes a single byte, checking whether it won't exceed the limit.
func (b *Buffer) AppendByte(c byte) (ok bool) {
	if len(b.memory) == cap(b.memory) {
		return false
	}

	b.memory = append(b.memory, c)
	return true
}

// SegmentLength returns a number of bytes, taken by current segment.
func (b *Buffer) SegmentLength() int {
	return len(b.memory) - b.begin
}

// Preview returns current segment without moving the head.
func (b *Buffer) Preview() []byte {
	return b.memory[b.begin:]
}

// Finish completes current segment, returning its value.
func (b *Buffer) Finish() []byte {
	segment := b.memory[b.begin:len(b.memory):len(b.memory)]
	b.begin = len(b.memory)

	return segment
}

// String completes current segment, returning it as a string sharing the memory.
func (b *Buffer) String() string {
	return uf.B2S(b.Finish())
}

// Copy appends the whole of data as a separate segment and returns it as a string.
func (b *Buffer) Copy(data []byte) (str string, ok bool) {
	if !b.Append(data...) {
		return "", false
	}

	return b.String(), true
}

// Discard drops the unfinished segment.
func (b *Buffer) Discard() {
	b.memory = b.memory[:b.begin]
}

// Clear just resets the pointers, so old values may be overridden by new ones.
func (b *Buffer) Clear() {
	b.begin = 0
	b.memory = b.memory[:0]
}
