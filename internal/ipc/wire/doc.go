// Package wire defines the binder command protocol: the packed opcode
// streams exchanged with the host on write and read, the transaction
// header, the flat object descriptor embedded in payloads, and the error
// kinds shared across the dispatcher.
//
// All framing is little-endian. A write batch is a sequence of 32-bit
// opcodes each followed by a fixed payload; transaction payloads carry
// their data and offset array inline, 8-byte aligned. The read batch uses
// the same framing with response opcodes.
package wire
