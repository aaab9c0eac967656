package router

import (
	"fmt"

	"github.com/openmesa/binderd/internal/ipc/wire"
)

// translateWrite rewrites one embedded descriptor as it leaves the
// sender. Exports (Binder tags) get a registry entry on demand, the
// sender-chosen cookie recorded on it, and are rewritten to Handle tags
// with the owner queue id in the cookie field. Handle tags must name a
// reference the sender already holds.
func (p *Process) translateWrite(fo *wire.FlatObject) error {
	switch fo.Tag {
	case wire.TagBinder, wire.TagWeakBinder:
		obj, created := p.registry.InsertOrGetLocal(fo.Binder)
		if created {
			// The cookie is not worth carrying across the wire; it lives
			// on the object until the handle comes home.
			obj.RealCookie = fo.Cookie
		}
		if fo.Tag == wire.TagBinder {
			fo.Tag = wire.TagHandle
		} else {
			fo.Tag = wire.TagWeakHandle
		}
		fo.Cookie = obj.ID.Owner
		return nil

	case wire.TagHandle, wire.TagWeakHandle:
		if _, ok := p.registry.Find(fo.Cookie, fo.Binder); !ok {
			return fmt.Errorf("unknown handle (%d,%d): %w", fo.Cookie, fo.Binder, wire.ErrFailedReply)
		}
		return nil

	default:
		return fmt.Errorf("flat object tag %d: %w", fo.Tag, wire.ErrFailedReply)
	}
}

// translateRead rewrites one embedded descriptor as it reaches the
// receiver. A handle that reached its owner reverts to a Binder tag with
// the real cookie restored; any other handle materialises a reference
// entry on demand. Binder tags never travel between processes.
func (p *Process) translateRead(fo *wire.FlatObject) error {
	switch fo.Tag {
	case wire.TagHandle, wire.TagWeakHandle:
		if fo.Cookie == p.queueID {
			obj, ok := p.registry.FindLocal(fo.Binder)
			if !ok {
				return fmt.Errorf("handle (%d,%d) names no local export: %w",
					fo.Cookie, fo.Binder, wire.ErrFault)
			}
			if fo.Tag == wire.TagHandle {
				fo.Tag = wire.TagBinder
			} else {
				fo.Tag = wire.TagWeakBinder
			}
			fo.Cookie = obj.RealCookie
			return nil
		}
		p.registry.InsertOrGet(fo.Cookie, fo.Binder)
		return nil

	default:
		return fmt.Errorf("flat object tag %d on read side: %w", fo.Tag, wire.ErrFault)
	}
}

// translatePayload applies a per-descriptor translation to every offset
// of a message payload, rewriting descriptors in place.
func translatePayload(data []byte, offsets []uint64, fn func(*wire.FlatObject) error) error {
	for _, off := range offsets {
		if off+wire.FlatObjectSize > uint64(len(data)) {
			return fmt.Errorf("offset %d past payload end %d: %w", off, len(data), wire.ErrFault)
		}
		fo := wire.DecodeFlatObject(data[off:])
		if err := fn(&fo); err != nil {
			return err
		}
		fo.Encode(data[off:])
	}
	return nil
}
