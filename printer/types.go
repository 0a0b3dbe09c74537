package printer

import (
	"fmt"

	"github.com/xyproto/pseudo64/ir"
)

// typeString renders a Type the way the printer's comment header and
// local declarations do: stdint names (uint64_t) by default, or the
// classic C spellings when Options.UseStdIntNames is false.
func typeString(t *ir.Type, opts Options) string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case ir.Void:
		return "void"
	case ir.Int:
		if opts.UseStdIntNames {
			return stdIntName(t.Bits, t.Signed)
		}
		return classicIntName(t.Bits, t.Signed)
	case ir.Float:
		if t.Bits == 32 {
			return "float"
		}
		return "double"
	case ir.Pointer:
		return typeString(t.Elem, opts) + "*"
	case ir.Vector:
		switch t.Bits {
		case 128:
			return "__m128"
		case 256:
			return "__m256"
		case 512:
			return "__m512"
		default:
			return fmt.Sprintf("vec%d_t", t.Bits)
		}
	case ir.Unknown:
		if t.Note != "" {
			return fmt.Sprintf("void /* %s */", t.Note)
		}
		return "void"
	default:
		return "void"
	}
}

func stdIntName(bits int, signed bool) string {
	prefix := "uint"
	if signed {
		prefix = "int"
	}
	switch bits {
	case 8, 16, 32, 64:
		return fmt.Sprintf("%s%d_t", prefix, bits)
	default:
		return fmt.Sprintf("%s64_t", prefix)
	}
}

func classicIntName(bits int, signed bool) string {
	switch bits {
	case 8:
		if signed {
			return "signed char"
		}
		return "unsigned char"
	case 16:
		if signed {
			return "short"
		}
		return "unsigned short"
	case 32:
		if signed {
			return "int"
		}
		return "unsigned int"
	default:
		if signed {
			return "long long"
		}
		return "unsigned long long"
	}
}

// constIntLiteral renders a signed integer constant: decimal below 10,
// else the two's-complement hex pattern at its declared width.
func constIntLiteral(v int64, bits int) string {
	if v >= 0 && v < 10 {
		return fmt.Sprintf("%d", v)
	}
	var bits64 uint64
	if v < 0 {
		if bits >= 64 {
			bits64 = uint64(v)
		} else {
			mask := uint64(1)<<uint(bits) - 1
			bits64 = uint64(v) & mask
		}
	} else {
		bits64 = uint64(v)
	}
	return fmt.Sprintf("0x%X", bits64)
}

// constUintLiteral renders an unsigned integer constant: decimal below 10,
// else hex.
func constUintLiteral(v uint64) string {
	if v < 10 {
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("0x%X", v)
}
