package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionHeaderRoundTrip(t *testing.T) {
	hdr := TransactionHeader{
		Target:      0xA11CE,
		Code:        7,
		Flags:       FlagOneWay,
		SenderPID:   1234,
		SenderEUID:  1000,
		DataSize:    48,
		OffsetsSize: 8,
	}

	buf := make([]byte, TransactionHeaderSize)
	hdr.Encode(buf)

	got, err := DecodeTransactionHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, hdr, got)
}

func TestDecodeTransactionHeaderShortBuffer(t *testing.T) {
	_, err := DecodeTransactionHeader(make([]byte, TransactionHeaderSize-1))
	assert.ErrorIs(t, err, ErrFault)
}

func TestHeaderValidate(t *testing.T) {
	tests := []struct {
		name    string
		hdr     TransactionHeader
		wantErr error
	}{
		{"empty", TransactionHeader{}, nil},
		{"plain data", TransactionHeader{DataSize: 100}, nil},
		{"one object", TransactionHeader{DataSize: 32, OffsetsSize: 8}, nil},
		{"too big", TransactionHeader{DataSize: MaxTransactionSize + 1}, ErrInvalidArgument},
		{"ragged offsets", TransactionHeader{DataSize: 100, OffsetsSize: 12}, ErrInvalidArgument},
		{"objects overflow data", TransactionHeader{DataSize: 31, OffsetsSize: 8}, ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hdr.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPayloadSizeAligned(t *testing.T) {
	hdr := TransactionHeader{DataSize: 33, OffsetsSize: 16}
	assert.Equal(t, 40+16, hdr.PayloadSize())
}

func TestFlatObjectRoundTrip(t *testing.T) {
	fo := FlatObject{
		Tag:    TagBinder,
		Flags:  3,
		Binder: 0xFEED,
		Cookie: 0xC0FFEE,
	}

	buf := make([]byte, FlatObjectSize)
	fo.Encode(buf)
	assert.Equal(t, fo, DecodeFlatObject(buf))
}

func TestNotifierDataRoundTrip(t *testing.T) {
	nd := NotifierData{Binder: 0xA11CE, Cookie: 0xDEAD}

	buf := make([]byte, NotifierDataSize)
	nd.Encode(buf)

	got, err := DecodeNotifierData(buf)
	require.NoError(t, err)
	assert.Equal(t, nd, got)

	_, err = DecodeNotifierData(buf[:8])
	assert.ErrorIs(t, err, ErrFault)
}

func TestOffsetsRoundTrip(t *testing.T) {
	offsets := []uint64{0, 24, 48}

	buf := make([]byte, len(offsets)*OffsetSize)
	EncodeOffsets(buf, offsets)
	assert.Equal(t, offsets, DecodeOffsets(buf, len(offsets)))
}

func TestAlign8(t *testing.T) {
	assert.Equal(t, 0, Align8(0))
	assert.Equal(t, 8, Align8(1))
	assert.Equal(t, 8, Align8(8))
	assert.Equal(t, 16, Align8(9))
}

func TestOpcodeNamesDistinct(t *testing.T) {
	ops := []uint32{
		BcTransaction, BcReply, BcRequestDeathNotification,
		BcClearDeathNotification, BcEnterLooper, BcExitLooper,
		BcRegisterLooper, BrTransaction, BrReply, BrTransactionComplete,
		BrDeadBinder, BrClearDeathNotificationDone, BrSpawnLooper,
		BrFailedReply, BrDeadReply,
	}

	seen := make(map[string]bool)
	for _, op := range ops {
		name := OpcodeName(op)
		assert.NotEqual(t, "UNKNOWN", name)
		assert.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
	assert.Equal(t, "UNKNOWN", OpcodeName(0xFFFF))
}
