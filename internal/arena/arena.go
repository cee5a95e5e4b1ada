package arena

const (
	// BodyHeadroom precedes the response body so a chunk size line can be put in front of
	// the payload without moving it. 8 bytes fit the largest size line of a buffer-sized
	// chunk ("10000\r\n") with a spare byte.
	BodyHeadroom = 8
	// BodyTailroom follows the response body and takes the chunk CRLF and the terminating
	// zero-length chunk.
	BodyTailroom = 8
	// SendHeadroom is reserved in front of WebSocket payloads for the frame header, which
	// never exceeds 4 bytes for server frames limited to 65535 bytes.
	SendHeadroom = 4
)

// Continue is the pre-baked interim response, stored once per block after all the slots.
var Continue = []byte("HTTP/1.1 100 Continue\r\n\r\n")

// SlotSize returns the number of bytes a single slot reserves for the buffer size r.
func SlotSize(r int) int {
	return 3*r + BodyHeadroom + BodyTailroom
}

// Block is a single allocation hosting n connection slots followed by the shared constants
// region. Blocks are never freed while the server runs: slots are reused by every
// connection they serve.
type Block struct {
	memory    []byte
	constants []byte
	r, n      int
}

// New allocates a block of n slots, each of them sized for the buffer size r.
func New(n, r int) *Block {
	slotsize := SlotSize(r)
	memory := make([]byte, n*slotsize+len(Continue))
	copy(memory[n*slotsize:], Continue)

	return &Block{
		memory:    memory,
		constants: memory[n*slotsize : len(memory) : len(memory)],
		r:         r,
		n:         n,
	}
}

// Len returns the number of slots in the block.
func (b *Block) Len() int {
	return b.n
}

// Slot returns the views of i-th slot. Requesting a slot out of the block is a programming
// error, therefore panics.
func (b *Block) Slot(i int) Slot {
	if i < 0 || i >= b.n {
		panic("arena: slot index out of block")
	}

	slotsize := SlotSize(b.r)
	start, end := i*slotsize, (i+1)*slotsize

	return Slot{
		memory:    b.memory[start:end:end],
		constants: b.constants,
		r:         b.r,
	}
}

// Slot is the region of a single connection:
//
//	[0, R)                  receive: the request head as received, then the body bytes
//	[R, 2R)                 staging: response headers, also used as drain scratch
//	[2R, 2R+8)              headroom for the chunk size line
//	[2R+8, 3R+8)            response body
//	[3R+8, 3R+16)           tailroom for chunk CRLF and the zero chunk
//
// All the views are capped by their capacity, so appending to one never overwrites
// its neighbour.
type Slot struct {
	memory    []byte
	constants []byte
	r         int
}

// Size returns R, the buffer size the slot was sized for.
func (s Slot) Size() int {
	return s.r
}

// Receive returns the region requests are received into.
func (s Slot) Receive() []byte {
	return s.memory[:s.r:s.r]
}

// Response returns the window spanning staging, headroom, body and tailroom. The staging
// region starts at its beginning and BodyOffset is relative to it, so are all the merges
// and sends of a composed response.
func (s Slot) Response() []byte {
	return s.memory[s.r:len(s.memory):len(s.memory)]
}

// Staging returns the response headers staging region.
func (s Slot) Staging() []byte {
	return s.memory[s.r : 2*s.r : 2*s.r]
}

// Body returns the response body region.
func (s Slot) Body() []byte {
	start := 2*s.r + BodyHeadroom
	return s.memory[start : start+s.r : start+s.r]
}

// BodyOffset returns the offset of the body region within the Response window.
func (s Slot) BodyOffset() int {
	return s.r + BodyHeadroom
}

// SendWindow returns the window WebSocket frames are composed in. It's the same memory as
// the Response window, as after the upgrade no HTTP response is being composed anymore.
func (s Slot) SendWindow() []byte {
	return s.Response()
}

// Continue returns the shared read-only interim response.
func (s Slot) Continue() []byte {
	return s.constants
}
