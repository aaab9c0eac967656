package wire

import (
	"encoding/binary"
	"fmt"
)

// Fixed sizes of the wire structures.
const (
	OpcodeSize            = 4
	TransactionHeaderSize = 32
	FlatObjectSize        = 24
	NotifierDataSize      = 16
	OffsetSize            = 8
	CookieSize            = 8
)

// Align8 rounds n up to the next 8-byte boundary.
func Align8(n int) int {
	return (n + 7) &^ 7
}

// TransactionHeader is the fixed part of a BC/BR transaction record. The
// data bytes and the offset array follow it inline, each 8-byte aligned.
type TransactionHeader struct {
	Target      uint64
	Code        uint32
	Flags       uint32
	SenderPID   int32
	SenderEUID  uint32
	DataSize    uint32
	OffsetsSize uint32
}

// Encode writes the header into b, which must hold TransactionHeaderSize
// bytes.
func (h *TransactionHeader) Encode(b []byte) {
	binary.LittleEndian.PutUint64(b[0:], h.Target)
	binary.LittleEndian.PutUint32(b[8:], h.Code)
	binary.LittleEndian.PutUint32(b[12:], h.Flags)
	binary.LittleEndian.PutUint32(b[16:], uint32(h.SenderPID))
	binary.LittleEndian.PutUint32(b[20:], h.SenderEUID)
	binary.LittleEndian.PutUint32(b[24:], h.DataSize)
	binary.LittleEndian.PutUint32(b[28:], h.OffsetsSize)
}

// DecodeTransactionHeader reads a header from b.
func DecodeTransactionHeader(b []byte) (TransactionHeader, error) {
	if len(b) < TransactionHeaderSize {
		return TransactionHeader{}, fmt.Errorf("transaction header: %d of %d bytes: %w",
			len(b), TransactionHeaderSize, ErrFault)
	}
	return TransactionHeader{
		Target:      binary.LittleEndian.Uint64(b[0:]),
		Code:        binary.LittleEndian.Uint32(b[8:]),
		Flags:       binary.LittleEndian.Uint32(b[12:]),
		SenderPID:   int32(binary.LittleEndian.Uint32(b[16:])),
		SenderEUID:  binary.LittleEndian.Uint32(b[20:]),
		DataSize:    binary.LittleEndian.Uint32(b[24:]),
		OffsetsSize: binary.LittleEndian.Uint32(b[28:]),
	}, nil
}

// PayloadSize returns the inline bytes following the header: aligned data
// plus the offset array.
func (h *TransactionHeader) PayloadSize() int {
	return Align8(int(h.DataSize)) + int(h.OffsetsSize)
}

// Validate enforces the transaction size limits: the data must fit the
// transaction cap, the offset array must be a whole number of offsets, and
// one flat object per offset plus the offset array itself must fit in the
// data (count*FlatObjectSize + OffsetsSize <= DataSize). Where each offset
// points is not checked here.
func (h *TransactionHeader) Validate() error {
	if h.DataSize == 0 && h.OffsetsSize == 0 {
		return nil
	}
	if h.DataSize > MaxTransactionSize {
		return fmt.Errorf("data size %d exceeds %d: %w", h.DataSize, MaxTransactionSize, ErrInvalidArgument)
	}
	if h.OffsetsSize%OffsetSize != 0 {
		return fmt.Errorf("offsets size %d not a multiple of %d: %w", h.OffsetsSize, OffsetSize, ErrInvalidArgument)
	}
	objsSize := h.OffsetsSize / OffsetSize * FlatObjectSize
	if objsSize+h.OffsetsSize > h.DataSize {
		return fmt.Errorf("offsets size %d too large for data size %d: %w", h.OffsetsSize, h.DataSize, ErrInvalidArgument)
	}
	return nil
}

// DecodeOffsets reads the offset array following the aligned data.
func DecodeOffsets(b []byte, count int) []uint64 {
	offsets := make([]uint64, count)
	for i := range offsets {
		offsets[i] = binary.LittleEndian.Uint64(b[i*OffsetSize:])
	}
	return offsets
}

// EncodeOffsets writes the offset array into b.
func EncodeOffsets(b []byte, offsets []uint64) {
	for i, off := range offsets {
		binary.LittleEndian.PutUint64(b[i*OffsetSize:], off)
	}
}

// FlatObject is the descriptor embedded in a transaction payload at each
// offset. On the wire between processes the Cookie field carries the
// owner queue id; the owner's real cookie is kept in the registry and
// restored when the handle returns home.
type FlatObject struct {
	Tag    uint32
	Flags  uint32
	Binder uint64
	Cookie uint64
}

// DecodeFlatObject reads a descriptor from b.
func DecodeFlatObject(b []byte) FlatObject {
	return FlatObject{
		Tag:    binary.LittleEndian.Uint32(b[0:]),
		Flags:  binary.LittleEndian.Uint32(b[4:]),
		Binder: binary.LittleEndian.Uint64(b[8:]),
		Cookie: binary.LittleEndian.Uint64(b[16:]),
	}
}

// Encode writes the descriptor into b.
func (fo FlatObject) Encode(b []byte) {
	binary.LittleEndian.PutUint32(b[0:], fo.Tag)
	binary.LittleEndian.PutUint32(b[4:], fo.Flags)
	binary.LittleEndian.PutUint64(b[8:], fo.Binder)
	binary.LittleEndian.PutUint64(b[16:], fo.Cookie)
}

// NotifierData is the payload of the death-notification commands.
type NotifierData struct {
	Binder uint64
	Cookie uint64
}

// DecodeNotifierData reads a notifier payload from b.
func DecodeNotifierData(b []byte) (NotifierData, error) {
	if len(b) < NotifierDataSize {
		return NotifierData{}, fmt.Errorf("notifier payload: %d of %d bytes: %w",
			len(b), NotifierDataSize, ErrFault)
	}
	return NotifierData{
		Binder: binary.LittleEndian.Uint64(b[0:]),
		Cookie: binary.LittleEndian.Uint64(b[8:]),
	}, nil
}

// Encode writes the notifier payload into b.
func (nd NotifierData) Encode(b []byte) {
	binary.LittleEndian.PutUint64(b[0:], nd.Binder)
	binary.LittleEndian.PutUint64(b[8:], nd.Cookie)
}

// PutCookie writes a 64-bit cookie into b.
func PutCookie(b []byte, cookie uint64) {
	binary.LittleEndian.PutUint64(b, cookie)
}

// Cookie reads a 64-bit cookie from b.
func Cookie(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// PutOpcode writes a 32-bit opcode into b.
func PutOpcode(b []byte, op uint32) {
	binary.LittleEndian.PutUint32(b, op)
}

// Opcode reads a 32-bit opcode from b.
func Opcode(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}
