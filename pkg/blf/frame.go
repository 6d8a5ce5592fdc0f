package blf

import (
	"encoding/binary"
	"fmt"
)

const (
	// FrameDataLength is the fixed payload capacity of a frame, modeled
	// after a classic CAN bus message.
	FrameDataLength = 8

	// Wire layout: channel(2) + dlc(1) + id(4) + flags(4) + timestamp(8) + data
	frameWireSize = 19 + FrameDataLength
)

// Frame is one unit of log data written into a log container. Fields follow
// the CAN message model: a channel id, a data length code, an arbitration id,
// flag bits and a fixed-size payload buffer.
type Frame struct {
	Channel   uint16
	DLC       uint8
	ID        uint32
	Flags     uint32
	Timestamp uint64
	Data      [FrameDataLength]byte
}

// ObjectSize returns the number of bytes the frame occupies inside a log
// container, headers included.
func (f *Frame) ObjectSize() int {
	return frameWireSize
}

// encode appends the little-endian wire representation of the frame to dst
// and returns the extended slice.
func (f *Frame) encode(dst []byte) []byte {
	var buf [frameWireSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], f.Channel)
	buf[2] = f.DLC
	binary.LittleEndian.PutUint32(buf[3:7], f.ID)
	binary.LittleEndian.PutUint32(buf[7:11], f.Flags)
	binary.LittleEndian.PutUint64(buf[11:19], f.Timestamp)
	copy(buf[19:], f.Data[:])
	return append(dst, buf[:]...)
}

// decodeFrame reads one frame from the beginning of src.
func decodeFrame(src []byte) (*Frame, error) {
	if len(src) < frameWireSize {
		return nil, fmt.Errorf("truncated frame: have %d bytes, want %d", len(src), frameWireSize)
	}

	frame := &Frame{
		Channel:   binary.LittleEndian.Uint16(src[0:2]),
		DLC:       src[2],
		ID:        binary.LittleEndian.Uint32(src[3:7]),
		Flags:     binary.LittleEndian.Uint32(src[7:11]),
		Timestamp: binary.LittleEndian.Uint64(src[11:19]),
	}
	copy(frame.Data[:], src[19:frameWireSize])

	return frame, nil
}
