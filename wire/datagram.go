/*
File Name:  datagram.go
Package:    wire

Datagram pairs a TLV with the remote address it came from or is going to,
the unit a socket read/write actually produces or consumes.
*/

package wire

// Datagram is a TLV together with the remote address of its counterpart:
// Src is set on receive, Dst is set on send. Exactly one of the two is
// meaningful for a given direction of travel; the other is nil.
type Datagram struct {
	Src  *Host
	Data TLV
	Dst  *Host
}

// NewReceived builds a Datagram for a just-received frame.
func NewReceived(src Host, data TLV) Datagram {
	return Datagram{Src: &src, Data: data}
}

// NewToSend builds a Datagram addressed to dst for sending.
func NewToSend(dst Host, data TLV) Datagram {
	return Datagram{Dst: &dst, Data: data}
}

// Swap turns a received datagram into one addressed back to its sender.
// When both Src and Dst are set it exchanges them; when only Dst is set,
// it moves Dst into Src instead. Used by the echo-style reply path, where
// a handler answers the peer a frame arrived from.
func (d *Datagram) Swap() {
	if d.Src != nil {
		d.Src, d.Dst = d.Dst, d.Src
	} else if d.Dst != nil {
		d.Src = d.Dst
		d.Dst = nil
	}
}
