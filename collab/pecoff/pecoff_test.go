package pecoff

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// testExportDir mirrors the anonymous export-directory header Exports()
// decodes: same field order and widths, so writing it here and reading it
// back through Open/Exports round-trips correctly.
type testExportDir struct {
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

const (
	testSectionVA        = 0x1000
	testSectionFileStart = 0x200
)

func rvaFor(offsetInSection uint32) uint32 { return testSectionVA + offsetInSection }

// buildImage assembles a minimal, single-section PE32+ image: a DOS stub,
// a COFF + PE32+ optional header carrying dataDirs, a single .text section
// header, and sectionData as that section's raw bytes.
func buildImage(t *testing.T, optMagic uint16, sectionData []byte, dataDirs [16]dataDirectory) []byte {
	t.Helper()
	var buf bytes.Buffer

	dos := make([]byte, 0x80)
	dos[0], dos[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(dos[0x3C:], 0x80)
	buf.Write(dos)

	if err := binary.Write(&buf, binary.LittleEndian, uint32(0x00004550)); err != nil {
		t.Fatalf("writing PE signature: %v", err)
	}

	opt := optionalHeader64{
		Magic:               optMagic,
		ImageBase:           0x140000000,
		AddressOfEntryPoint: 0x1000,
		NumberOfRvaAndSizes: 16,
		DataDirectory:       dataDirs,
	}
	optSize := binary.Size(opt)
	if optSize <= 0 {
		t.Fatalf("binary.Size(optionalHeader64{}) returned %d", optSize)
	}

	coff := coffHeader{
		Machine:              0x8664,
		NumberOfSections:     1,
		SizeOfOptionalHeader: uint16(optSize),
	}
	if err := binary.Write(&buf, binary.LittleEndian, &coff); err != nil {
		t.Fatalf("writing COFF header: %v", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, &opt); err != nil {
		t.Fatalf("writing optional header: %v", err)
	}

	sec := sectionHeader{
		VirtualSize:      uint32(len(sectionData)),
		VirtualAddress:   testSectionVA,
		SizeOfRawData:    uint32(len(sectionData)),
		PointerToRawData: testSectionFileStart,
	}
	copy(sec.Name[:], ".text")
	if err := binary.Write(&buf, binary.LittleEndian, &sec); err != nil {
		t.Fatalf("writing section header: %v", err)
	}

	for buf.Len() < testSectionFileStart {
		buf.WriteByte(0)
	}
	buf.Write(sectionData)
	return buf.Bytes()
}

func TestOpenRejectsBadDOSMagic(t *testing.T) {
	_, err := Open([]byte{0x00, 0x00, 0x00, 0x00})
	if err == nil {
		t.Fatalf("expected an error for a non-MZ buffer")
	}
}

func TestOpenRejectsBadPESignature(t *testing.T) {
	data := make([]byte, 0x90)
	data[0], data[1] = 'M', 'Z'
	binary.LittleEndian.PutUint32(data[0x3C:], 0x80)
	// leave the signature as zero bytes instead of "PE\0\0"
	_, err := Open(data)
	if err == nil {
		t.Fatalf("expected an error for a bad PE signature")
	}
}

func TestOpenRejectsNonPE32Plus(t *testing.T) {
	data := buildImage(t, 0x010B, nil, [16]dataDirectory{})
	_, err := Open(data)
	if err == nil {
		t.Fatalf("expected an error for a PE32 (not PE32+) optional header magic")
	}
}

func TestOpenParsesImageBaseAndEntryPoint(t *testing.T) {
	data := buildImage(t, 0x020B, make([]byte, 16), [16]dataDirectory{})
	img, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if img.ImageBase() != 0x140000000 {
		t.Errorf("ImageBase() = 0x%X, want 0x140000000", img.ImageBase())
	}
	if want := uint64(0x140000000 + 0x1000); img.EntryPoint() != want {
		t.Errorf("EntryPoint() = 0x%X, want 0x%X", img.EntryPoint(), want)
	}
}

func TestFunctionBytesAtRVAReadsFromSection(t *testing.T) {
	code := []byte{0xB8, 0x01, 0x00, 0x00, 0x00, 0xC3}
	section := append(append([]byte{}, code...), make([]byte, 10)...)
	data := buildImage(t, 0x020B, section, [16]dataDirectory{})

	img, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	bytesOut, va, err := img.FunctionBytesAtRVA(testSectionVA, len(code))
	if err != nil {
		t.Fatalf("FunctionBytesAtRVA: %v", err)
	}
	if !bytes.Equal(bytesOut, code) {
		t.Errorf("FunctionBytesAtRVA returned %v, want %v", bytesOut, code)
	}
	if want := uint64(0x140000000 + testSectionVA); va != want {
		t.Errorf("returned VA = 0x%X, want 0x%X", va, want)
	}
}

func TestExportsAndExportedFunctionBytes(t *testing.T) {
	code := []byte{0xB8, 0x01, 0x00, 0x00, 0x00, 0xC3}
	var sec bytes.Buffer
	sec.Write(code)

	funcAddrOff := uint32(sec.Len())
	binary.Write(&sec, binary.LittleEndian, rvaFor(0))

	nameOff := uint32(sec.Len())
	sec.WriteString("MyFunc\x00")

	namePtrOff := uint32(sec.Len())
	binary.Write(&sec, binary.LittleEndian, rvaFor(nameOff))

	ordinalOff := uint32(sec.Len())
	binary.Write(&sec, binary.LittleEndian, uint16(0))

	dirOff := uint32(sec.Len())
	hdr := testExportDir{
		NumberOfFunctions:     1,
		NumberOfNames:         1,
		AddressOfFunctions:    rvaFor(funcAddrOff),
		AddressOfNames:        rvaFor(namePtrOff),
		AddressOfNameOrdinals: rvaFor(ordinalOff),
	}
	binary.Write(&sec, binary.LittleEndian, &hdr)

	var dataDirs [16]dataDirectory
	dataDirs[0] = dataDirectory{VirtualAddress: rvaFor(dirOff), Size: uint32(binary.Size(hdr))}

	data := buildImage(t, 0x020B, sec.Bytes(), dataDirs)
	img, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	exports, err := img.Exports()
	if err != nil {
		t.Fatalf("Exports: %v", err)
	}
	if len(exports) != 1 || exports[0].Name != "MyFunc" {
		t.Fatalf("Exports() = %#v, want one entry named MyFunc", exports)
	}
	if exports[0].RVA != rvaFor(0) {
		t.Errorf("export RVA = 0x%X, want 0x%X", exports[0].RVA, rvaFor(0))
	}

	got, va, err := img.ExportedFunctionBytes("MyFunc", 0)
	if err != nil {
		t.Fatalf("ExportedFunctionBytes: %v", err)
	}
	if !bytes.Equal(got[:len(code)], code) {
		t.Errorf("ExportedFunctionBytes = %v, want prefix %v", got, code)
	}
	if want := uint64(0x140000000 + testSectionVA); va != want {
		t.Errorf("returned VA = 0x%X, want 0x%X", va, want)
	}

	if _, _, err := img.ExportedFunctionBytes("NoSuchFunc", 0); err == nil {
		t.Errorf("expected an error for an unknown export name")
	}
}

func TestImportsAndImportResolver(t *testing.T) {
	var sec bytes.Buffer

	dllNameOff := uint32(sec.Len())
	sec.WriteString("KERNEL32.dll\x00")

	hintNameOff := uint32(sec.Len())
	binary.Write(&sec, binary.LittleEndian, uint16(0)) // hint
	sec.WriteString("ExitProcess\x00")

	thunkOff := uint32(sec.Len())
	binary.Write(&sec, binary.LittleEndian, uint64(rvaFor(hintNameOff)))
	binary.Write(&sec, binary.LittleEndian, uint64(0)) // terminator

	descOff := uint32(sec.Len())
	desc := importDescriptor{
		Name:       rvaFor(dllNameOff),
		FirstThunk: rvaFor(thunkOff),
	}
	binary.Write(&sec, binary.LittleEndian, &desc)
	var zero importDescriptor
	binary.Write(&sec, binary.LittleEndian, &zero)

	var dataDirs [16]dataDirectory
	dataDirs[1] = dataDirectory{VirtualAddress: rvaFor(descOff), Size: uint32(binary.Size(desc)) * 2}

	data := buildImage(t, 0x020B, sec.Bytes(), dataDirs)
	img, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	imports, err := img.Imports()
	if err != nil {
		t.Fatalf("Imports: %v", err)
	}
	if len(imports) != 1 {
		t.Fatalf("got %d imports, want 1", len(imports))
	}
	if imports[0].DLL != "kernel32" || imports[0].Name != "ExitProcess" {
		t.Errorf("import = %#v, want kernel32!ExitProcess", imports[0])
	}
	wantIAT := uint64(0x140000000) + uint64(rvaFor(thunkOff))
	if imports[0].IATAddress != wantIAT {
		t.Errorf("IATAddress = 0x%X, want 0x%X", imports[0].IATAddress, wantIAT)
	}

	resolver, err := img.ImportResolver()
	if err != nil {
		t.Fatalf("ImportResolver: %v", err)
	}
	name, ok := resolver(wantIAT)
	if !ok || name != "kernel32!ExitProcess" {
		t.Errorf("resolver(0x%X) = (%q, %v), want (kernel32!ExitProcess, true)", wantIAT, name, ok)
	}
	if _, ok := resolver(wantIAT + 8); ok {
		t.Errorf("resolver should miss an address with no IAT slot")
	}
}
