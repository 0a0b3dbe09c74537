// Package pecoff is a PE32+ reader adapted for the collab package: it
// implements collab.ImportNameResolver from a loaded image's import table,
// and exposes a named export's raw code bytes so a caller can feed them to
// the decompilation core. It never touches the core's packages — the
// core's ToPseudoCode works on a plain []byte and imageBase regardless of
// where they came from.
package pecoff

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/xyproto/pseudo64/collab"
)

type dosHeader struct {
	Magic    uint16
	peOffset uint32
}

type coffHeader struct {
	Machine              uint16
	NumberOfSections     uint16
	TimeDateStamp        uint32
	PointerToSymbolTable uint32
	NumberOfSymbols      uint32
	SizeOfOptionalHeader uint16
	Characteristics      uint16
}

type dataDirectory struct {
	VirtualAddress uint32
	Size           uint32
}

type optionalHeader64 struct {
	Magic                   uint16
	MajorLinkerVersion      uint8
	MinorLinkerVersion      uint8
	SizeOfCode              uint32
	SizeOfInitializedData   uint32
	SizeOfUninitializedData uint32
	AddressOfEntryPoint     uint32
	BaseOfCode              uint32
	ImageBase               uint64
	SectionAlignment        uint32
	FileAlignment           uint32
	MajorOSVersion          uint16
	MinorOSVersion          uint16
	MajorImageVersion       uint16
	MinorImageVersion       uint16
	MajorSubsystemVersion   uint16
	MinorSubsystemVersion   uint16
	Win32VersionValue       uint32
	SizeOfImage             uint32
	SizeOfHeaders           uint32
	CheckSum                uint32
	Subsystem               uint16
	DllCharacteristics      uint16
	SizeOfStackReserve      uint64
	SizeOfStackCommit       uint64
	SizeOfHeapReserve       uint64
	SizeOfHeapCommit        uint64
	LoaderFlags             uint32
	NumberOfRvaAndSizes     uint32
	DataDirectory           [16]dataDirectory
}

type sectionHeader struct {
	Name                 [8]byte
	VirtualSize          uint32
	VirtualAddress       uint32
	SizeOfRawData        uint32
	PointerToRawData     uint32
	PointerToRelocations uint32
	PointerToLinenumbers uint32
	NumberOfRelocations  uint16
	NumberOfLinenumbers  uint16
	Characteristics      uint32
}

type importDescriptor struct {
	OriginalFirstThunk uint32
	TimeDateStamp      uint32
	ForwarderChain     uint32
	Name               uint32
	FirstThunk         uint32
}

// ExportedFunction is one entry of the image's export table.
type ExportedFunction struct {
	Name    string
	Ordinal uint16
	RVA     uint32
}

// ImportedFunction is one resolved import-table slot: the absolute
// virtual address of its IAT entry, and the "dll!name" it resolves to.
type ImportedFunction struct {
	IATAddress uint64
	DLL        string
	Name       string
}

// Image is a parsed PE32+ image backed by its raw bytes.
type Image struct {
	data     []byte
	coff     coffHeader
	opt      optionalHeader64
	sections []sectionHeader
}

// Open parses the DOS/COFF/optional headers and section table of a PE32+
// image held entirely in memory.
func Open(data []byte) (*Image, error) {
	img := &Image{data: data}
	r := bytes.NewReader(data)

	var magic uint16
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("pecoff: reading DOS magic: %w", err)
	}
	if magic != 0x5A4D {
		return nil, fmt.Errorf("pecoff: invalid DOS magic 0x%04X", magic)
	}
	if _, err := r.Seek(0x3C, 0); err != nil {
		return nil, err
	}
	var peOffset uint32
	if err := binary.Read(r, binary.LittleEndian, &peOffset); err != nil {
		return nil, fmt.Errorf("pecoff: reading PE offset: %w", err)
	}

	if _, err := r.Seek(int64(peOffset), 0); err != nil {
		return nil, err
	}
	var sig uint32
	if err := binary.Read(r, binary.LittleEndian, &sig); err != nil {
		return nil, err
	}
	if sig != 0x00004550 {
		return nil, fmt.Errorf("pecoff: invalid PE signature 0x%08X", sig)
	}
	if err := binary.Read(r, binary.LittleEndian, &img.coff); err != nil {
		return nil, fmt.Errorf("pecoff: reading COFF header: %w", err)
	}
	if img.coff.SizeOfOptionalHeader == 0 {
		return nil, fmt.Errorf("pecoff: no optional header")
	}
	var optMagic uint16
	if err := binary.Read(r, binary.LittleEndian, &optMagic); err != nil {
		return nil, err
	}
	if optMagic != 0x020B {
		return nil, fmt.Errorf("pecoff: only PE32+ images are supported, got magic 0x%04X", optMagic)
	}
	if _, err := r.Seek(-2, 1); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &img.opt); err != nil {
		return nil, fmt.Errorf("pecoff: reading optional header: %w", err)
	}

	sectionOffset := int64(peOffset) + 4 + int64(binary.Size(img.coff)) + int64(img.coff.SizeOfOptionalHeader)
	if _, err := r.Seek(sectionOffset, 0); err != nil {
		return nil, err
	}
	img.sections = make([]sectionHeader, img.coff.NumberOfSections)
	for i := range img.sections {
		if err := binary.Read(r, binary.LittleEndian, &img.sections[i]); err != nil {
			return nil, fmt.Errorf("pecoff: reading section %d: %w", i, err)
		}
	}
	return img, nil
}

// ImageBase is the preferred load address from the optional header.
func (img *Image) ImageBase() uint64 { return img.opt.ImageBase }

// EntryPoint is the image's configured entry point, as an absolute VA.
func (img *Image) EntryPoint() uint64 { return img.opt.ImageBase + uint64(img.opt.AddressOfEntryPoint) }

func (img *Image) rvaToSection(rva uint32) *sectionHeader {
	for i := range img.sections {
		s := &img.sections[i]
		if rva >= s.VirtualAddress && rva < s.VirtualAddress+s.VirtualSize {
			return s
		}
	}
	return nil
}

func (img *Image) rvaToFileOffset(rva uint32) (uint32, bool) {
	s := img.rvaToSection(rva)
	if s == nil {
		return 0, false
	}
	return rva - s.VirtualAddress + s.PointerToRawData, true
}

func (img *Image) readCString(offset uint32) (string, error) {
	if int(offset) >= len(img.data) {
		return "", fmt.Errorf("pecoff: string offset 0x%X out of range", offset)
	}
	end := bytes.IndexByte(img.data[offset:], 0)
	if end < 0 {
		return "", fmt.Errorf("pecoff: unterminated string at 0x%X", offset)
	}
	return string(img.data[offset : offset+uint32(end)]), nil
}

// Exports parses and returns the export directory, same layout and
// ordering as the classic export-table walk: function address table,
// name pointer table, name ordinal table joined by index.
func (img *Image) Exports() ([]ExportedFunction, error) {
	dir := img.opt.DataDirectory[0]
	if dir.Size == 0 {
		return nil, fmt.Errorf("pecoff: no export directory")
	}
	off, ok := img.rvaToFileOffset(dir.VirtualAddress)
	if !ok {
		return nil, fmt.Errorf("pecoff: export directory RVA not mapped")
	}
	r := bytes.NewReader(img.data[off:])

	var hdr struct {
		Characteristics       uint32
		TimeDateStamp         uint32
		MajorVersion          uint16
		MinorVersion          uint16
		Name                  uint32
		Base                  uint32
		NumberOfFunctions     uint32
		NumberOfNames         uint32
		AddressOfFunctions    uint32
		AddressOfNames        uint32
		AddressOfNameOrdinals uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("pecoff: reading export directory: %w", err)
	}

	funcAddrs := make([]uint32, hdr.NumberOfFunctions)
	if err := img.readRVAArray32(hdr.AddressOfFunctions, funcAddrs); err != nil {
		return nil, err
	}
	nameRVAs := make([]uint32, hdr.NumberOfNames)
	if err := img.readRVAArray32(hdr.AddressOfNames, nameRVAs); err != nil {
		return nil, err
	}
	nameOrdinals := make([]uint16, hdr.NumberOfNames)
	ordOff, ok := img.rvaToFileOffset(hdr.AddressOfNameOrdinals)
	if !ok {
		return nil, fmt.Errorf("pecoff: name ordinal table RVA not mapped")
	}
	or := bytes.NewReader(img.data[ordOff:])
	if err := binary.Read(or, binary.LittleEndian, nameOrdinals); err != nil {
		return nil, fmt.Errorf("pecoff: reading name ordinals: %w", err)
	}

	out := make([]ExportedFunction, 0, hdr.NumberOfNames)
	for i := uint32(0); i < hdr.NumberOfNames; i++ {
		nameOff, ok := img.rvaToFileOffset(nameRVAs[i])
		if !ok {
			continue
		}
		name, err := img.readCString(nameOff)
		if err != nil {
			continue
		}
		ordinal := nameOrdinals[i]
		if uint32(ordinal) >= hdr.NumberOfFunctions {
			continue
		}
		out = append(out, ExportedFunction{Name: name, Ordinal: ordinal + uint16(hdr.Base), RVA: funcAddrs[ordinal]})
	}
	return out, nil
}

func (img *Image) readRVAArray32(rva uint32, out []uint32) error {
	off, ok := img.rvaToFileOffset(rva)
	if !ok {
		return fmt.Errorf("pecoff: RVA 0x%X not mapped", rva)
	}
	r := bytes.NewReader(img.data[off:])
	return binary.Read(r, binary.LittleEndian, out)
}

// ExportedFunctionBytes returns the raw bytes of a named export, starting
// at its RVA and running to the end of its containing section (or
// maxBytes, whichever comes first), plus its absolute virtual address.
func (img *Image) ExportedFunctionBytes(name string, maxBytes int) ([]byte, uint64, error) {
	exports, err := img.Exports()
	if err != nil {
		return nil, 0, err
	}
	for _, e := range exports {
		if e.Name != name {
			continue
		}
		off, ok := img.rvaToFileOffset(e.RVA)
		if !ok {
			return nil, 0, fmt.Errorf("pecoff: export %q RVA not mapped", name)
		}
		section := img.rvaToSection(e.RVA)
		avail := len(img.data) - int(off)
		if section != nil {
			sectionEnd := int(section.PointerToRawData + section.SizeOfRawData)
			if sectionEnd-int(off) < avail {
				avail = sectionEnd - int(off)
			}
		}
		n := maxBytes
		if n <= 0 || n > avail {
			n = avail
		}
		return img.data[off : int(off)+n], img.opt.ImageBase + uint64(e.RVA), nil
	}
	return nil, 0, fmt.Errorf("pecoff: export %q not found", name)
}

// FunctionBytesAtRVA returns the raw bytes starting at rva and running to
// the end of its containing section (or maxBytes, whichever comes first),
// plus the corresponding absolute virtual address. It's the RVA-addressed
// counterpart to ExportedFunctionBytes, for a caller that already knows
// where a function starts but not its export name.
func (img *Image) FunctionBytesAtRVA(rva uint32, maxBytes int) ([]byte, uint64, error) {
	off, ok := img.rvaToFileOffset(rva)
	if !ok {
		return nil, 0, fmt.Errorf("pecoff: RVA 0x%X not mapped", rva)
	}
	section := img.rvaToSection(rva)
	avail := len(img.data) - int(off)
	if section != nil {
		sectionEnd := int(section.PointerToRawData + section.SizeOfRawData)
		if sectionEnd-int(off) < avail {
			avail = sectionEnd - int(off)
		}
	}
	n := maxBytes
	if n <= 0 || n > avail {
		n = avail
	}
	return img.data[off : int(off)+n], img.opt.ImageBase + uint64(rva), nil
}

// Imports parses the import directory into one ImportedFunction per IAT
// slot, skipping ordinal-only imports (no name to resolve to).
func (img *Image) Imports() ([]ImportedFunction, error) {
	dir := img.opt.DataDirectory[1]
	if dir.Size == 0 {
		return nil, nil
	}
	off, ok := img.rvaToFileOffset(dir.VirtualAddress)
	if !ok {
		return nil, fmt.Errorf("pecoff: import directory RVA not mapped")
	}

	var out []ImportedFunction
	descSize := uint32(binary.Size(importDescriptor{}))
	for i := uint32(0); ; i++ {
		var desc importDescriptor
		r := bytes.NewReader(img.data[off+i*descSize:])
		if err := binary.Read(r, binary.LittleEndian, &desc); err != nil {
			break
		}
		if desc.OriginalFirstThunk == 0 && desc.FirstThunk == 0 {
			break
		}
		dllNameOff, ok := img.rvaToFileOffset(desc.Name)
		if !ok {
			continue
		}
		dllName, err := img.readCString(dllNameOff)
		if err != nil {
			continue
		}
		dllName = strings.TrimSuffix(strings.ToLower(dllName), ".dll")

		thunkRVA := desc.OriginalFirstThunk
		if thunkRVA == 0 {
			thunkRVA = desc.FirstThunk
		}
		thunkOff, ok := img.rvaToFileOffset(thunkRVA)
		if !ok {
			continue
		}
		iatVA := img.opt.ImageBase + uint64(desc.FirstThunk)

		for slot := uint32(0); ; slot++ {
			var thunk uint64
			r := bytes.NewReader(img.data[thunkOff+slot*8:])
			if err := binary.Read(r, binary.LittleEndian, &thunk); err != nil {
				break
			}
			if thunk == 0 {
				break
			}
			if thunk&(1<<63) != 0 {
				continue // ordinal import, no name
			}
			nameOff, ok := img.rvaToFileOffset(uint32(thunk))
			if !ok {
				continue
			}
			funcName, err := img.readCString(nameOff + 2) // skip 2-byte hint
			if err != nil {
				continue
			}
			out = append(out, ImportedFunction{
				IATAddress: iatVA + uint64(slot)*8,
				DLL:        dllName,
				Name:       funcName,
			})
		}
	}
	return out, nil
}

// ImportResolver builds a collab.ImportNameResolver backed by this image's
// import table, keyed by the absolute address of each IAT slot.
func (img *Image) ImportResolver() (collab.ImportNameResolver, error) {
	imports, err := img.Imports()
	if err != nil {
		return nil, err
	}
	byAddr := make(map[uint64]string, len(imports))
	for _, imp := range imports {
		byAddr[imp.IATAddress] = fmt.Sprintf("%s!%s", imp.DLL, imp.Name)
	}
	return func(addr uint64) (string, bool) {
		name, ok := byAddr[addr]
		return name, ok
	}, nil
}
