package wasmobj

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Binary format constants needed to enumerate exports.
const (
	wasmMagic   = 0x6d736100 // \0asm
	wasmVersion = 1

	sectionImport = 2
	sectionGlobal = 6
	sectionExport = 7

	kindFunc   = 0x00
	kindTable  = 0x01
	kindMemory = 0x02
	kindGlobal = 0x03
	kindTag    = 0x04

	valRefNull = 0x63
	valRef     = 0x64

	opEnd        = 0x0b
	opGlobalGet  = 0x23
	opI32Const   = 0x41
	opI64Const   = 0x42
	opF32Const   = 0x43
	opF64Const   = 0x44
	opRefNull    = 0xd0
	opRefFunc    = 0xd2
	opSIMDPrefix = 0xfd
	limitsHasMax = 0x01
)

type exportEntry struct {
	Name  string
	Kind  byte
	Index uint32
}

type globalEntry struct {
	ValType byte
	Mutable bool
}

// moduleInfo is what the runtime does not report about a compiled module:
// export order and global mutability. Imported globals come first in
// Globals, matching the global index space.
type moduleInfo struct {
	Exports []exportEntry
	Globals []globalEntry
}

// reader reads the binary format from a byte slice.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, io.ErrUnexpectedEOF
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) skip(n int) error {
	if n < 0 || r.pos+n > len(r.data) {
		return io.ErrUnexpectedEOF
	}
	r.pos += n
	return nil
}

// readU32 reads an unsigned LEB128 value.
func (r *reader) readU32() (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
		if shift >= 35 {
			return 0, fmt.Errorf("leb128: overflow")
		}
	}
}

// skipLEB skips a LEB128 value of any width.
func (r *reader) skipLEB() error {
	for i := 0; i < 10; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b&0x80 == 0 {
			return nil
		}
	}
	return fmt.Errorf("leb128: overflow")
}

func (r *reader) readName() (string, error) {
	n, err := r.readU32()
	if err != nil {
		return "", err
	}
	start := r.pos
	if err := r.skip(int(n)); err != nil {
		return "", err
	}
	return string(r.data[start:r.pos]), nil
}

// scanModule walks the section list of a core module.
func scanModule(data []byte) (*moduleInfo, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("module too short")
	}
	if binary.LittleEndian.Uint32(data[0:4]) != wasmMagic {
		return nil, fmt.Errorf("invalid wasm magic number")
	}
	if binary.LittleEndian.Uint32(data[4:8]) != wasmVersion {
		return nil, fmt.Errorf("unsupported wasm version")
	}

	info := &moduleInfo{}
	r := &reader{data: data, pos: 8}
	for r.pos < len(r.data) {
		id, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		size, err := r.readU32()
		if err != nil {
			return nil, fmt.Errorf("section %d size: %w", id, err)
		}
		start := r.pos
		if err := r.skip(int(size)); err != nil {
			return nil, fmt.Errorf("section %d: %w", id, err)
		}
		sr := &reader{data: r.data[start:r.pos]}

		switch id {
		case sectionImport:
			err = scanImports(sr, info)
		case sectionGlobal:
			err = scanGlobals(sr, info)
		case sectionExport:
			err = scanExports(sr, info)
		}
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", id, err)
		}
	}
	return info, nil
}

func scanImports(r *reader, info *moduleInfo) error {
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if _, err := r.readName(); err != nil {
			return err
		}
		if _, err := r.readName(); err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch kind {
		case kindFunc:
			_, err = r.readU32()
		case kindTable:
			err = skipTableType(r)
		case kindMemory:
			err = skipLimits(r)
		case kindGlobal:
			var g globalEntry
			g, err = readGlobalType(r)
			info.Globals = append(info.Globals, g)
		case kindTag:
			if _, err = r.ReadByte(); err == nil {
				_, err = r.readU32()
			}
		default:
			err = fmt.Errorf("invalid import kind: 0x%02x", kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func scanGlobals(r *reader, info *moduleInfo) error {
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		g, err := readGlobalType(r)
		if err != nil {
			return err
		}
		if err := skipInitExpr(r); err != nil {
			return err
		}
		info.Globals = append(info.Globals, g)
	}
	return nil
}

func scanExports(r *reader, info *moduleInfo) error {
	count, err := r.readU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.readName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > kindTag {
			return fmt.Errorf("invalid export kind: 0x%02x", kind)
		}
		idx, err := r.readU32()
		if err != nil {
			return err
		}
		info.Exports = append(info.Exports, exportEntry{Name: name, Kind: kind, Index: idx})
	}
	return nil
}

func readGlobalType(r *reader) (globalEntry, error) {
	valType, err := r.ReadByte()
	if err != nil {
		return globalEntry{}, err
	}
	if valType == valRefNull || valType == valRef {
		if err := r.skipLEB(); err != nil {
			return globalEntry{}, err
		}
	}
	mut, err := r.ReadByte()
	if err != nil {
		return globalEntry{}, err
	}
	return globalEntry{ValType: valType, Mutable: mut != 0}, nil
}

func skipLimits(r *reader) error {
	flags, err := r.ReadByte()
	if err != nil {
		return err
	}
	if err := r.skipLEB(); err != nil {
		return err
	}
	if flags&limitsHasMax != 0 {
		return r.skipLEB()
	}
	return nil
}

func skipTableType(r *reader) error {
	elem, err := r.ReadByte()
	if err != nil {
		return err
	}
	if elem == valRefNull || elem == valRef {
		if err := r.skipLEB(); err != nil {
			return err
		}
	}
	return skipLimits(r)
}

// skipInitExpr skips a constant expression up to and including its end.
func skipInitExpr(r *reader) error {
	for {
		op, err := r.ReadByte()
		if err != nil {
			return err
		}
		switch op {
		case opEnd:
			return nil
		case opI32Const, opI64Const, opGlobalGet, opRefNull, opRefFunc:
			err = r.skipLEB()
		case opF32Const:
			err = r.skip(4)
		case opF64Const:
			err = r.skip(8)
		case opSIMDPrefix:
			if err = r.skipLEB(); err == nil {
				err = r.skip(16)
			}
		case 0x6a, 0x6b, 0x6c, 0x7c, 0x7d, 0x7e:
			// extended-const arithmetic, no immediates
		default:
			return fmt.Errorf("unsupported opcode 0x%02x in constant expression", op)
		}
		if err != nil {
			return err
		}
	}
}
