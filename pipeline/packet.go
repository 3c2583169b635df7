package pipeline

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/rf-tools/iqpipe/iqfmt"
)

// packetMagic is the 4-byte little-endian "IQPK" marker every framed
// packet on the source-side ring begins with, spec.md §6.
var packetMagic = [4]byte{'I', 'Q', 'P', 'K'}

// Packet flag bits, spec.md §3/§6.
const (
	FlagInterleaved uint8 = 1 << 0
	FlagStreamReset uint8 = 1 << 1
)

const packetHeaderLen = 10 // magic(4) + num_samples(4) + flags(1) + format_id(1)

// ErrPacketCorrupt is returned by ReadPacket when a packet fails header
// validation after a successful magic resync — spec.md §4.4's "fatal parse
// error".
var ErrPacketCorrupt = fmt.Errorf("pipeline: corrupt framed packet")

// WriteDataPacket serializes one INTERLEAVED data packet of numSamples
// frames in the given wire format onto rb. Header and payload are written
// as two separate non-blocking Write calls; if either returns short, the
// whole packet is considered dropped (the caller logs the overrun and
// continues, spec.md §4.4).
func WriteDataPacket(rb *RingBuffer, format iqfmt.Format, numSamples uint32, payload []byte) bool {
	var hdr [packetHeaderLen]byte
	copy(hdr[0:4], packetMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:8], numSamples)
	hdr[8] = FlagInterleaved
	hdr[9] = uint8(format)

	if n := rb.Write(hdr[:]); n != len(hdr) {
		return false
	}
	if n := rb.Write(payload); n != len(payload) {
		return false
	}
	return true
}

// WriteResetPacket serializes a zero-payload STREAM_RESET packet onto rb.
func WriteResetPacket(rb *RingBuffer) bool {
	var hdr [packetHeaderLen]byte
	copy(hdr[0:4], packetMagic[:])
	binary.LittleEndian.PutUint32(hdr[4:8], 0)
	hdr[8] = FlagStreamReset
	hdr[9] = uint8(iqfmt.FormatUnknown)

	return rb.Write(hdr[:]) == len(hdr)
}

// readFullFromRing reads exactly len(buf) bytes from rb, looping over
// short Reads. It returns fewer bytes than requested only when rb has hit
// end-of-stream or shutdown.
func readFullFromRing(rb *RingBuffer, buf []byte) int {
	total := 0
	for total < len(buf) {
		n := rb.Read(buf[total:])
		if n == 0 {
			break
		}
		total += n
	}
	return total
}

// resync discards bytes from rb one at a time until the next 4 bytes match
// packetMagic, or the ring hits end-of-stream/shutdown. It returns the
// number of bytes discarded and whether a magic was found.
func resync(rb *RingBuffer) (discarded int, found bool) {
	var window [4]byte
	if n := readFullFromRing(rb, window[:]); n < len(window) {
		return discarded, false
	}
	for window != packetMagic {
		copy(window[:], window[1:])
		if n := readFullFromRing(rb, window[3:4]); n < 1 {
			return discarded, false
		}
		discarded++
	}
	return discarded, true
}

// ReadPacket deframes the next packet from rb into chunk, per spec.md §4.4.
// It returns the frame count on a data packet, 0 with isReset=true on a
// STREAM_RESET event, 0 with isReset=false on clean end-of-stream/shutdown,
// and a non-nil error on any fatal parse failure (after which the source-
// side ring is no longer trustworthy and the caller should treat this as a
// fatal stream-corruption error, spec.md §7).
//
// temp must be at least 2*PipelineChunkBaseSamples*2 bytes, used as
// de-interleaving scratch space for de-interleaved payloads.
func ReadPacket(rb *RingBuffer, chunk *Chunk, temp []byte, logger *zap.Logger) (frames int, isReset bool, err error) {
	discarded, found := resync(rb)
	if !found {
		return 0, false, nil
	}
	if discarded > 0 && logger != nil {
		logger.Warn("pipeline: resynced framed packet stream", zap.Int("discarded_bytes", discarded))
	}

	var rest [packetHeaderLen - 4]byte
	if n := readFullFromRing(rb, rest[:]); n < len(rest) {
		return 0, false, fmt.Errorf("pipeline: truncated packet header: %w", ErrPacketCorrupt)
	}
	numSamples := binary.LittleEndian.Uint32(rest[0:4])
	flags := rest[4]
	format := iqfmt.Format(rest[5])

	if !format.Valid() && !(numSamples == 0 && flags&FlagStreamReset != 0) {
		return 0, false, fmt.Errorf("pipeline: unrecognized format_id %d: %w", rest[5], ErrPacketCorrupt)
	}
	if numSamples > 2*PipelineChunkBaseSamples {
		return 0, false, fmt.Errorf("pipeline: impossible packet size %d: %w", numSamples, ErrPacketCorrupt)
	}
	if numSamples > 0 && format == iqfmt.FormatUnknown {
		return 0, false, fmt.Errorf("pipeline: data packet with unknown format: %w", ErrPacketCorrupt)
	}

	if numSamples == 0 {
		if flags&FlagStreamReset != 0 {
			return 0, true, nil
		}
		return 0, false, nil
	}

	effective := int(numSamples)
	truncated := false
	if effective > PipelineChunkBaseSamples {
		truncated = true
		effective = PipelineChunkBaseSamples
	}

	if flags&FlagInterleaved != 0 {
		stride := format.BytesPerPair()
		total := int(numSamples) * stride
		keep := effective * stride
		if total > len(chunk.RawInput)+len(temp) {
			// The size guard above bounds the frame count, not the byte
			// count, so a packet format wider than the chunk's input
			// format can still exceed the scratch capacity here.
			return 0, false, fmt.Errorf("pipeline: packet payload %d bytes exceeds scratch capacity: %w", total, ErrPacketCorrupt)
		}
		if n := readFullFromRing(rb, chunk.RawInput[:keep]); n < keep {
			return 0, false, fmt.Errorf("pipeline: truncated packet payload: %w", ErrPacketCorrupt)
		}
		if total > keep {
			discard := total - keep
			if n := readFullFromRing(rb, temp[:discard]); n < discard {
				return 0, false, fmt.Errorf("pipeline: truncated packet payload: %w", ErrPacketCorrupt)
			}
		}
	} else {
		// De-interleaved: num_samples 16-bit I values then num_samples
		// 16-bit Q values.
		totalIQ := 2 * int(numSamples) * 2
		if totalIQ > len(temp) {
			return 0, false, fmt.Errorf("pipeline: de-interleaved payload %d bytes exceeds scratch capacity: %w", totalIQ, ErrPacketCorrupt)
		}
		if n := readFullFromRing(rb, temp[:totalIQ]); n < totalIQ {
			return 0, false, fmt.Errorf("pipeline: truncated packet payload: %w", ErrPacketCorrupt)
		}
		iBytes := temp[:int(numSamples)*2]
		qBytes := temp[int(numSamples)*2 : totalIQ]
		for i := 0; i < effective; i++ {
			copy(chunk.RawInput[i*4:i*4+2], iBytes[i*2:i*2+2])
			copy(chunk.RawInput[i*4+2:i*4+4], qBytes[i*2:i*2+2])
		}
		format = iqfmt.FormatI16C
	}

	if truncated && logger != nil {
		logger.Warn("pipeline: truncated oversized packet",
			zap.Uint32("num_samples", numSamples),
			zap.Int("kept", effective))
	}

	chunk.PacketSampleFormat = format
	chunk.FramesRead = effective
	return effective, false, nil
}
