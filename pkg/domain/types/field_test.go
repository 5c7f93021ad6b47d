package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

func TestFieldType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		fieldType types.FieldType
		want      bool
	}{
		{name: "valid text", fieldType: types.FieldTypeText, want: true},
		{name: "valid integer", fieldType: types.FieldTypeInteger, want: true},
		{name: "valid time", fieldType: types.FieldTypeTime, want: true},
		{name: "valid object", fieldType: types.FieldTypeObject, want: true},
		{name: "invalid type", fieldType: types.FieldType("select"), want: false},
		{name: "empty type", fieldType: types.FieldType(""), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.want {
				gt.B(t, tt.fieldType.IsValid()).True()
			} else {
				gt.B(t, tt.fieldType.IsValid()).False()
			}
		})
	}
}

func TestAllFieldTypes(t *testing.T) {
	all := types.AllFieldTypes()
	gt.A(t, all).Length(4)
	for _, ft := range all {
		gt.B(t, ft.IsValid()).True()
	}
}
