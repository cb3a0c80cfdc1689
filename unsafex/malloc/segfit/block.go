package segfit

import "unsafe"

// headerSize is the size of the in-band header prefixed to every block,
// free or used. It must stay a multiple of 8 so payloads inherit the
// arena's 8-byte alignment.
//
// layout (all fields little/native-endian, written via unsafe.Pointer):
//
//	offset  0: size          uint64  total block size, header included
//	offset  8: flags         uint64  bit0 = used, bit1 = prevUsed
//	offset 16: prevPhysical  int64   offset of preceding physical block, nullOffset if none
//	offset 24: next          int64   free-list link, meaningful only when free
//	offset 32: prev          int64   free-list link, meaningful only when free
const headerSize = 40

// nullOffset marks the absence of a link (no prev_physical, no free-list
// neighbor). 0 is a valid block offset, so -1 is used instead of 0.
const nullOffset = -1

const (
	flagUsed     uint64 = 1 << 0
	flagPrevUsed uint64 = 1 << 1
)

func (a *Allocator) ptrAt(offset int) unsafe.Pointer {
	return unsafe.Add(a.arenaStart, offset)
}

func (a *Allocator) blockSize(off int) int {
	return int(*(*uint64)(a.ptrAt(off)))
}

func (a *Allocator) setBlockSize(off, size int) {
	*(*uint64)(a.ptrAt(off)) = uint64(size)
}

func (a *Allocator) blockFlags(off int) uint64 {
	return *(*uint64)(a.ptrAt(off + 8))
}

func (a *Allocator) setBlockFlags(off int, f uint64) {
	*(*uint64)(a.ptrAt(off + 8)) = f
}

func (a *Allocator) blockUsed(off int) bool {
	return a.blockFlags(off)&flagUsed != 0
}

func (a *Allocator) setBlockUsed(off int, used bool) {
	f := a.blockFlags(off)
	if used {
		f |= flagUsed
	} else {
		f &^= flagUsed
	}
	a.setBlockFlags(off, f)
}

func (a *Allocator) blockPrevUsed(off int) bool {
	return a.blockFlags(off)&flagPrevUsed != 0
}

func (a *Allocator) setBlockPrevUsed(off int, used bool) {
	f := a.blockFlags(off)
	if used {
		f |= flagPrevUsed
	} else {
		f &^= flagPrevUsed
	}
	a.setBlockFlags(off, f)
}

func (a *Allocator) blockPrevPhysical(off int) int {
	return int(*(*int64)(a.ptrAt(off + 16)))
}

func (a *Allocator) setBlockPrevPhysical(off, prev int) {
	*(*int64)(a.ptrAt(off + 16)) = int64(prev)
}

func (a *Allocator) blockNext(off int) int {
	return int(*(*int64)(a.ptrAt(off + 24)))
}

func (a *Allocator) setBlockNext(off, next int) {
	*(*int64)(a.ptrAt(off + 24)) = int64(next)
}

func (a *Allocator) blockPrev(off int) int {
	return int(*(*int64)(a.ptrAt(off + 32)))
}

func (a *Allocator) setBlockPrev(off, prev int) {
	*(*int64)(a.ptrAt(off + 32)) = int64(prev)
}

// payloadView returns the slice callers see: capacity spans the full
// block minus header (any split slack is usable cap, per Realloc's
// grow-in-place contract), length is the requested payload size.
func (a *Allocator) payloadView(off, size int) []byte {
	capacity := a.blockSize(off) - headerSize
	ptr := unsafe.Add(a.arenaStart, off+headerSize)
	return unsafe.Slice((*byte)(ptr), capacity)[:size]
}

// offsetOf recovers a block's header offset from a payload slice
// previously returned by Alloc/Realloc, as BuddyAllocator.Free does:
// read the slice's data pointer directly rather than via unsafe.SliceData
// (which needs go1.20+) to keep the package's go1.17 floor.
func (a *Allocator) offsetOf(block []byte) (int, bool) {
	dataPtr := *(*uintptr)(unsafe.Pointer(&block))
	off := int(dataPtr-uintptr(a.arenaStart)) - headerSize
	if off < 0 || off >= a.used {
		return 0, false
	}
	return off, true
}

// roundUp8 rounds n up to the next multiple of 8.
func roundUp8(n int) int {
	return (n + 7) &^ 7
}

// blockSizeFor maps a requested payload size to a block size per
// spec §4.1: header included, rounded to 8, floored at header+8.
func blockSizeFor(payload int) int {
	sz := roundUp8(headerSize + payload)
	if sz < headerSize+8 {
		sz = headerSize + 8
	}
	return sz
}
