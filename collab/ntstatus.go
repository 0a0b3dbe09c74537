package collab

// DefaultReturnEnumTypeFullName is the enum the return-constant
// symbolization passes target when a caller does not supply one —
// Windows' NTSTATUS, since the core's decoded functions are overwhelmingly
// kernel-mode or driver-adjacent code returning status codes in RAX.
const DefaultReturnEnumTypeFullName = "Windows.Win32.Foundation.NTSTATUS"

// ntstatusNames covers the handful of NTSTATUS codes that show up
// constantly in decompiled Windows code. A full external constant
// database would cover the entire enum; this is a deliberately small
// built-in so the module is directly runnable without one.
var ntstatusNames = map[uint64]string{
	0x00000000: "STATUS_SUCCESS",
	0x00000103: "STATUS_PENDING",
	0xC0000001: "STATUS_UNSUCCESSFUL",
	0xC0000002: "STATUS_NOT_IMPLEMENTED",
	0xC0000005: "STATUS_ACCESS_VIOLATION",
	0xC0000008: "STATUS_INVALID_HANDLE",
	0xC000000D: "STATUS_INVALID_PARAMETER",
	0xC0000017: "STATUS_NO_MEMORY",
	0xC0000022: "STATUS_ACCESS_DENIED",
	0xC0000023: "STATUS_BUFFER_TOO_SMALL",
	0xC0000034: "STATUS_OBJECT_NAME_NOT_FOUND",
	0xC0000225: "STATUS_NOT_FOUND",
}

// NTStatusProvider is the built-in ConstantNameProvider for
// DefaultReturnEnumTypeFullName.
func NTStatusProvider(enumFullName string, value uint64) (string, bool) {
	if enumFullName != DefaultReturnEnumTypeFullName {
		return "", false
	}
	name, ok := ntstatusNames[value]
	return name, ok
}
