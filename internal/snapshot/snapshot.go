// Package snapshot implements the binary codec for the rollback-relevant
// slice of kernel.State: enough to resume simulation at any recent
// frame without carrying the full in-memory representation. See Save,
// Load, and Checksum.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"

	"fightnet/internal/kernel"
)

// Save emits the dense little-endian binary encoding of s: u32 frame,
// u16 hitstop, u8 character count, then per character a length-prefixed
// id and fixed-width fields. The layout is part of the wire format and
// must not change independently between interoperating builds.
func Save(s kernel.State) (frame uint32, checksum uint32, blob []byte, err error) {
	var buf bytes.Buffer

	if err := binary.Write(&buf, binary.LittleEndian, uint32(s.Frame)); err != nil {
		return 0, 0, nil, err
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint16(clampUint16(s.Hitstop))); err != nil {
		return 0, 0, nil, err
	}
	if err := buf.WriteByte(2); err != nil {
		return 0, 0, nil, err
	}

	for _, c := range []kernel.Character{s.P0, s.P1} {
		if err := writeCharacter(&buf, c); err != nil {
			return 0, 0, nil, err
		}
	}

	out := buf.Bytes()
	return uint32(s.Frame), Checksum(out), out, nil
}

func writeCharacter(buf *bytes.Buffer, c kernel.Character) error {
	id := []byte(c.ID)
	if len(id) > 255 {
		return fmt.Errorf("snapshot: character id %q exceeds 255 bytes", c.ID)
	}
	if err := buf.WriteByte(byte(len(id))); err != nil {
		return err
	}
	if _, err := buf.Write(id); err != nil {
		return err
	}

	fields := []float32{
		float32(c.Health), float32(c.X), float32(c.Y), float32(c.Z),
		float32(c.Meter), float32(c.Guard),
	}
	for _, f := range fields {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return err
		}
	}

	if err := buf.WriteByte(byte(int8(c.State))); err != nil {
		return err
	}

	if c.CurrentMove == nil {
		return buf.WriteByte(0)
	}
	if err := buf.WriteByte(1); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(clampUint16(c.CurrentMove.CurrentFrame))); err != nil {
		return err
	}
	return buf.WriteByte(byte(int8(c.CurrentMove.Phase)))
}

// Load decodes a blob produced by Save back into a kernel.State. Facing
// is not carried on the wire; Load derives it from the two positions the
// same way Step does. Velocity, airborne, and the transient
// combo/juggle/armor counters are not carried either and are left at
// their zero value, and a restored CurrentMove has no Name (see
// DESIGN.md).
func Load(blob []byte) (kernel.State, error) {
	r := bytes.NewReader(blob)
	var s kernel.State

	var frame uint32
	if err := binary.Read(r, binary.LittleEndian, &frame); err != nil {
		return kernel.State{}, fmt.Errorf("snapshot: %w: %v", ErrInvalidInput, err)
	}
	var hitstop uint16
	if err := binary.Read(r, binary.LittleEndian, &hitstop); err != nil {
		return kernel.State{}, fmt.Errorf("snapshot: %w: %v", ErrInvalidInput, err)
	}
	count, err := r.ReadByte()
	if err != nil {
		return kernel.State{}, fmt.Errorf("snapshot: %w: %v", ErrInvalidInput, err)
	}

	s.Frame = uint64(frame)
	s.Hitstop = int(hitstop)

	chars := make([]kernel.Character, 0, count)
	for i := byte(0); i < count; i++ {
		c, err := readCharacter(r)
		if err != nil {
			return kernel.State{}, fmt.Errorf("snapshot: %w: %v", ErrInvalidInput, err)
		}
		chars = append(chars, c)
	}
	if len(chars) >= 1 {
		s.P0 = chars[0]
	}
	if len(chars) >= 2 {
		s.P1 = chars[1]
	}
	if s.P0.X <= s.P1.X {
		s.P0.Facing, s.P1.Facing = 1, -1
	} else {
		s.P0.Facing, s.P1.Facing = -1, 1
	}

	return s, nil
}

func readCharacter(r *bytes.Reader) (kernel.Character, error) {
	var c kernel.Character

	idLen, err := r.ReadByte()
	if err != nil {
		return c, err
	}
	id := make([]byte, idLen)
	if _, err := io.ReadFull(r, id); err != nil {
		return c, err
	}
	c.ID = string(id)

	var health, x, y, z, meter, guard float32
	for _, f := range []*float32{&health, &x, &y, &z, &meter, &guard} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return c, err
		}
	}
	c.Health, c.X, c.Y, c.Z = int(health), float64(x), float64(y), float64(z)
	c.Meter, c.Guard = int(meter), int(guard)

	stateTag, err := r.ReadByte()
	if err != nil {
		return c, err
	}
	c.State = kernel.CharState(int8(stateTag))

	hasMove, err := r.ReadByte()
	if err != nil {
		return c, err
	}
	if hasMove != 0 {
		var currentFrame uint16
		if err := binary.Read(r, binary.LittleEndian, &currentFrame); err != nil {
			return c, err
		}
		phaseTag, err := r.ReadByte()
		if err != nil {
			return c, err
		}
		c.CurrentMove = &kernel.MoveInstance{
			CurrentFrame: int(currentFrame),
			Phase:        kernel.MovePhase(int8(phaseTag)),
		}
	}

	return c, nil
}

// Checksum is a stable 32-bit FNV-1a content hash over the blob bytes,
// used for desync diagnostics. hash/fnv is stdlib; no ecosystem FNV
// implementation appears anywhere in the reference corpus, so this one
// piece is a justified stdlib exception (see DESIGN.md).
func Checksum(blob []byte) uint32 {
	h := fnv.New32a()
	h.Write(blob)
	return h.Sum32()
}

func clampUint16(v int) int {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return v
}

// jsonSnapshot is the textual fallback form (spec §4.2 "Fallback").
// Save never falls back to it on its own; it is reached only through
// explicit SaveJSON/LoadJSON calls.
type jsonSnapshot struct {
	Frame   uint64           `json:"frame"`
	Hitstop int              `json:"hitstop"`
	P0      kernel.Character `json:"p0"`
	P1      kernel.Character `json:"p1"`
}

// SaveJSON is the fallback textual encoder.
func SaveJSON(s kernel.State) ([]byte, error) {
	return json.Marshal(jsonSnapshot{Frame: s.Frame, Hitstop: s.Hitstop, P0: s.P0, P1: s.P1})
}

// LoadJSON is the fallback textual decoder.
func LoadJSON(blob []byte) (kernel.State, error) {
	var js jsonSnapshot
	if err := json.Unmarshal(blob, &js); err != nil {
		return kernel.State{}, fmt.Errorf("snapshot: %w: %v", ErrInvalidInput, err)
	}
	return kernel.State{Frame: js.Frame, Hitstop: js.Hitstop, P0: js.P0, P1: js.P1}, nil
}
