package arena

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func addr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

func TestBlock(t *testing.T) {
	const r = 1024

	t.Run("layout", func(t *testing.T) {
		block := New(3, r)
		require.Equal(t, 3, block.Len())
		require.Len(t, block.memory, 3*SlotSize(r)+len(Continue))

		slot := block.Slot(1)
		base := addr(block.memory) + uintptr(SlotSize(r))
		require.Equal(t, base, addr(slot.Receive()))
		require.Equal(t, base+r, addr(slot.Staging()))
		require.Equal(t, base+r, addr(slot.Response()))
		require.Equal(t, base+2*r+BodyHeadroom, addr(slot.Body()))
		require.Equal(t, addr(slot.Response())+uintptr(slot.BodyOffset()), addr(slot.Body()))
		require.Len(t, slot.Response(), 2*r+BodyHeadroom+BodyTailroom)
		require.Len(t, slot.Body(), r)
		require.Equal(t, r, slot.Size())
	})

	t.Run("views are capped", func(t *testing.T) {
		block := New(2, r)
		first, second := block.Slot(0), block.Slot(1)
		secondBefore := bytes.Clone(second.Receive())

		receive := append(first.Receive(), bytes.Repeat([]byte("x"), 10)...)
		staging := append(first.Staging(), 'y')
		response := append(first.Response(), 'z')

		require.NotEqual(t, addr(first.Receive()), addr(receive))
		require.NotEqual(t, addr(first.Staging()), addr(staging))
		require.NotEqual(t, addr(first.Response()), addr(response))
		require.Equal(t, secondBefore, second.Receive())
	})

	t.Run("constants are shared", func(t *testing.T) {
		block := New(4, r)
		for i := range block.Len() {
			slot := block.Slot(i)
			require.Equal(t, Continue, slot.Continue())
			require.Equal(t, addr(block.Slot(0).Continue()), addr(slot.Continue()))
		}
	})

	t.Run("writes stay inside the slot", func(t *testing.T) {
		block := New(2, r)
		first := block.Slot(0)
		for _, view := range [][]byte{first.Receive(), first.Response()} {
			for i := range view {
				view[i] = 0xAA
			}
		}

		require.Equal(t, make([]byte, SlotSize(r)), block.Slot(1).memory)
		require.Equal(t, Continue, block.Slot(1).Continue())
	})

	t.Run("out of range", func(t *testing.T) {
		require.Panics(t, func() {
			New(1, r).Slot(1)
		})
	})
}
