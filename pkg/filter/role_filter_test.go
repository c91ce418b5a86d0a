package filter

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input    string
		expected Role
		wantErr  bool
	}{
		{"sequential", RoleSequential, false},
		{"positional", RolePositional, false},
		{"skip", RoleSkip, false},
		{"  Sequential ", RoleSequential, false},
		{"banana", RoleNone, true},
		{"", RoleNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, role)
		})
	}
}

func TestRoleFilter_DefaultNaming(t *testing.T) {
	f := NewRoleFilter()

	tests := []struct {
		descriptor string
		expected   Role
	}{
		{"Lcom/app/R;", RoleSequential},
		{"Lcom/app/R$drawable;", RoleSequential},
		{"Lcom/app/R$string;", RoleSequential},
		{"Lcom/app/R$styleable;", RolePositional},
		{"Lcom/app/MainActivity;", RoleNone},
		{"Lcom/app/Renderer;", RoleNone},
		{"LR;", RoleSequential},
		{"", RoleNone},
		{"not a descriptor", RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			assert.Equal(t, tt.expected, f.Classify(tt.descriptor))
		})
	}
}

func TestRoleFilter_CustomizedHolder(t *testing.T) {
	f := NewRoleFilter()
	f.AddCustomizedHolder("Lcom/app/CustomResources;")

	assert.Equal(t, RoleSequential, f.Classify("Lcom/app/CustomResources;"))
	assert.True(t, f.IsCustomized("Lcom/app/CustomResources;"))
	assert.False(t, f.IsCustomized("Lcom/app/R;"))
}

func TestRoleFilter_Overrides(t *testing.T) {
	f := NewRoleFilter()

	assert.NoError(t, f.SetOverride("Lcom/app/R$styleable;", "skip"))
	assert.Equal(t, RoleSkip, f.Classify("Lcom/app/R$styleable;"))

	// An override beats both the default naming and the customized set.
	f.AddCustomizedHolder("Lcom/app/CustomResources;")
	assert.NoError(t, f.SetOverride("Lcom/app/CustomResources;", "positional"))
	assert.Equal(t, RolePositional, f.Classify("Lcom/app/CustomResources;"))

	assert.Error(t, f.SetOverride("Lcom/app/R;", "sideways"))
}

func TestRoleFilter_OverrideInvalidatesCache(t *testing.T) {
	f := NewRoleFilter()

	assert.Equal(t, RoleSequential, f.Classify("Lcom/app/R;"))
	assert.NoError(t, f.SetOverride("Lcom/app/R;", "skip"))
	assert.Equal(t, RoleSkip, f.Classify("Lcom/app/R;"))
}

func TestRoleFilter_ConcurrentClassify(t *testing.T) {
	f := NewRoleFilter()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				desc := fmt.Sprintf("Lcom/app%d/R$styleable;", j)
				assert.Equal(t, RolePositional, f.Classify(desc))
			}
		}(i)
	}
	wg.Wait()
}

func TestRole_String(t *testing.T) {
	assert.Equal(t, "sequential", RoleSequential.String())
	assert.Equal(t, "positional", RolePositional.String())
	assert.Equal(t, "skip", RoleSkip.String())
	assert.Equal(t, "none", RoleNone.String())
	assert.Equal(t, "unknown", Role(99).String())
}
