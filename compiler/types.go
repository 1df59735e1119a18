package compiler

// TypeKind enumerates the four builtin types. The zero value is
// intentionally not a valid kind (Go's default zero-value-to-invalid
// convention catches forgetting to set a TypeInfo).
type TypeKind int

const (
	Int TypeKind = iota + 1
	Float
	Bool
	Void
)

// TypeInfo is a builtin type's static, process-wide metadata: its
// assembly-visible size and the five operand-validity predicates spec.md's
// data model requires. This table is read-only configuration, never
// mutated at runtime.
type TypeInfo struct {
	Kind TypeKind
	Repr string
	Size int

	ValidVariableType       bool
	ValidReturnType         bool
	ValidArithmeticOperand  bool
	ValidBooleanOperand     bool
	ValidOrderingOperand    bool
}

// builtins is the fixed TypeInfo matrix, recovered field-for-field from
// original_source/compiler.c's static type_infos table (including
// is_valid_lg_gt_value_type, the fifth predicate absent from the stale
// compiler.h snapshot but present in the .c file).
var builtins = map[string]TypeInfo{
	"int": {
		Kind: Int, Repr: "int", Size: 8,
		ValidVariableType: true, ValidReturnType: true,
		ValidArithmeticOperand: true, ValidBooleanOperand: true, ValidOrderingOperand: true,
	},
	"float": {
		Kind: Float, Repr: "float", Size: 8,
		ValidVariableType: true, ValidReturnType: true,
		ValidArithmeticOperand: true, ValidBooleanOperand: true, ValidOrderingOperand: true,
	},
	"bool": {
		Kind: Bool, Repr: "bool", Size: 1,
		ValidVariableType: true, ValidReturnType: true,
		ValidArithmeticOperand: false, ValidBooleanOperand: true, ValidOrderingOperand: false,
	},
	"void": {
		Kind: Void, Repr: "void", Size: 0,
		ValidVariableType: false, ValidReturnType: true,
		ValidArithmeticOperand: false, ValidBooleanOperand: false, ValidOrderingOperand: false,
	},
}

// BuiltinTypeInfo looks up a type by its source-level name ("int", "float",
// "bool", "void"). The second return value is false for any other name.
func BuiltinTypeInfo(name string) (TypeInfo, bool) {
	t, ok := builtins[name]
	return t, ok
}
