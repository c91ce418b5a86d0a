package dex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcode_String(t *testing.T) {
	tests := []struct {
		op       Opcode
		expected string
	}{
		{OpNop, "nop"},
		{OpConst, "const"},
		{OpNewArray, "new-array"},
		{OpFillArrayData, "fill-array-data"},
		{OpSPutObject, "sput-object"},
		{OpMove, "move"},
		{OpAPutObject, "aput-object"},
		{OpInvokeStatic, "invoke-static"},
		{OpReturnVoid, "return-void"},
		{Opcode(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.op.String())
		})
	}
}

func TestInstruction_WritesTo(t *testing.T) {
	assert.True(t, NewConst(1, 4).WritesTo(1))
	assert.False(t, NewConst(1, 4).WritesTo(2))
	assert.True(t, NewNewArray(2, 1).WritesTo(2))
	assert.True(t, NewMove(3, 2).WritesTo(3))

	// Reading instructions never define a register.
	assert.False(t, NewFillArrayData(2, nil).WritesTo(2))
	assert.False(t, NewSPutObject(2, "Lcom/app/R;.ids:[I").WritesTo(2))
}

func TestInstruction_Reads(t *testing.T) {
	fill := NewFillArrayData(2, nil)
	assert.True(t, fill.Reads(2))
	assert.False(t, fill.Reads(1))
	assert.Equal(t, Register(2), fill.ArrayReg())

	alloc := NewNewArray(2, 1)
	assert.True(t, alloc.Reads(1))
	assert.False(t, alloc.Reads(2))

	call := NewInvokeStatic("Lcom/app/Util;.init:()V", 4, 5)
	assert.True(t, call.Reads(5))
	assert.False(t, call.Reads(2))
}

func TestClass_StaticInit(t *testing.T) {
	cls := &Class{
		Name: "Lcom/app/R;",
		Methods: []*Method{
			{Name: "<init>", Code: &MethodCode{}},
			{Name: StaticInitName, Code: &MethodCode{}},
		},
	}
	assert.NotNil(t, cls.StaticInit())
	assert.Equal(t, StaticInitName, cls.StaticInit().Name)

	assert.Nil(t, (&Class{Name: "Lcom/app/Plain;"}).StaticInit())
}

func TestProgram_FindClass(t *testing.T) {
	p := &Program{Stores: []*Store{
		{Name: "classes.dex", Classes: []*Class{{Name: "Lcom/app/R;"}}},
		{Name: "classes2.dex", Classes: []*Class{{Name: "Lcom/app/R$styleable;"}}},
	}}

	assert.Equal(t, 2, p.ClassCount())
	assert.NotNil(t, p.FindClass("Lcom/app/R$styleable;"))
	assert.Nil(t, p.FindClass("Lcom/app/Missing;"))
}
