package codegen

// Register is a slot in the ad-hoc evaluation stack: a total order over the
// eight general-purpose registers the emitter is willing to use, in the
// exact order original_source/compiler.h's reg_t enum declares them.
type Register int

const (
	RegNone Register = iota
	RAX
	RBX
	RCX
	RDX
	RDI
	RSI
	RBP
	RSP
)

func (r Register) String() string {
	switch r {
	case RAX:
		return "rax"
	case RBX:
		return "rbx"
	case RCX:
		return "rcx"
	case RDX:
		return "rdx"
	case RDI:
		return "rdi"
	case RSI:
		return "rsi"
	case RBP:
		return "rbp"
	case RSP:
		return "rsp"
	default:
		return ""
	}
}
