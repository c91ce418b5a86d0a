package dex

// Register identifies a dalvik register within a method frame.
type Register uint16

// Opcode identifies the kind of an instruction.
type Opcode uint8

const (
	OpNop Opcode = iota
	OpConst
	OpNewArray
	OpFillArrayData
	OpSPutObject
	OpMove
	OpAPutObject
	OpInvokeStatic
	OpReturnVoid
)

// String returns the dalvik-style mnemonic.
func (o Opcode) String() string {
	switch o {
	case OpNop:
		return "nop"
	case OpConst:
		return "const"
	case OpNewArray:
		return "new-array"
	case OpFillArrayData:
		return "fill-array-data"
	case OpSPutObject:
		return "sput-object"
	case OpMove:
		return "move"
	case OpAPutObject:
		return "aput-object"
	case OpInvokeStatic:
		return "invoke-static"
	case OpReturnVoid:
		return "return-void"
	default:
		return "unknown"
	}
}

// Instruction is one instruction in a method body. Dest is meaningful
// only for opcodes that write a register; registers an instruction
// reads live in Srcs. Payload carries the encoded block of a
// fill-array-data instruction and Field the symbolic reference of a
// field or method instruction.
type Instruction struct {
	Op      Opcode     `json:"op"`
	Dest    Register   `json:"dest,omitempty"`
	Srcs    []Register `json:"srcs,omitempty"`
	Literal int64      `json:"literal,omitempty"`
	Payload []byte     `json:"payload,omitempty"`
	Field   string     `json:"field,omitempty"`
}

// writesDest reports whether the opcode defines its Dest register.
func (i *Instruction) writesDest() bool {
	switch i.Op {
	case OpConst, OpNewArray, OpMove:
		return true
	default:
		return false
	}
}

// WritesTo reports whether the instruction writes reg.
func (i *Instruction) WritesTo(reg Register) bool {
	return i.writesDest() && i.Dest == reg
}

// Reads reports whether the instruction reads reg.
func (i *Instruction) Reads(reg Register) bool {
	for _, s := range i.Srcs {
		if s == reg {
			return true
		}
	}
	return false
}

// ArrayReg returns the array register of a fill-array-data or
// sput-object instruction.
func (i *Instruction) ArrayReg() Register {
	if len(i.Srcs) > 0 {
		return i.Srcs[0]
	}
	return 0
}

// Builders used by frontends and test fixtures.

// NewConst builds a constant-load writing literal into dest.
func NewConst(dest Register, literal int64) *Instruction {
	return &Instruction{Op: OpConst, Dest: dest, Literal: literal}
}

// NewNewArray builds an array allocation writing dest, sized by the
// value in size.
func NewNewArray(dest, size Register) *Instruction {
	return &Instruction{Op: OpNewArray, Dest: dest, Srcs: []Register{size}}
}

// NewFillArrayData builds a payload fill of the array in reg.
func NewFillArrayData(reg Register, payload []byte) *Instruction {
	return &Instruction{Op: OpFillArrayData, Srcs: []Register{reg}, Payload: payload}
}

// NewSPutObject builds a static field store reading reg.
func NewSPutObject(reg Register, field string) *Instruction {
	return &Instruction{Op: OpSPutObject, Srcs: []Register{reg}, Field: field}
}

// NewMove builds a register move.
func NewMove(dest, src Register) *Instruction {
	return &Instruction{Op: OpMove, Dest: dest, Srcs: []Register{src}}
}

// NewInvokeStatic builds a static call reading args.
func NewInvokeStatic(method string, args ...Register) *Instruction {
	return &Instruction{Op: OpInvokeStatic, Srcs: args, Field: method}
}

// MethodCode is the instruction sequence of one method body.
type MethodCode struct {
	Instrs []*Instruction `json:"instrs"`
}

// Method is a named method with its code. Abstract and native methods
// carry no code.
type Method struct {
	Name       string      `json:"name"`
	Descriptor string      `json:"descriptor,omitempty"`
	Code       *MethodCode `json:"code,omitempty"`
}

// StaticInitName is the JVM name of a class's static initializer.
const StaticInitName = "<clinit>"

// Class is a class as the remap pass sees it: a JVM descriptor name
// like "Lcom/app/R$styleable;" and its methods.
type Class struct {
	Name    string    `json:"name"`
	Methods []*Method `json:"methods,omitempty"`
}

// StaticInit returns the class's static initializer, or nil.
func (c *Class) StaticInit() *Method {
	for _, m := range c.Methods {
		if m.Name == StaticInitName {
			return m
		}
	}
	return nil
}

// Store is a named collection of classes, e.g. one input DEX file.
type Store struct {
	Name    string   `json:"name"`
	Classes []*Class `json:"classes"`
}

// Program is the whole-program view handed to the pass: all stores in
// deterministic order.
type Program struct {
	Stores []*Store `json:"stores"`
}

// ClassCount returns the total number of classes across all stores.
func (p *Program) ClassCount() int {
	n := 0
	for _, s := range p.Stores {
		n += len(s.Classes)
	}
	return n
}

// FindClass locates a class by descriptor across all stores.
func (p *Program) FindClass(name string) *Class {
	for _, s := range p.Stores {
		for _, c := range s.Classes {
			if c.Name == name {
				return c
			}
		}
	}
	return nil
}
