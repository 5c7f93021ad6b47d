package types_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/caseflow/pkg/domain/types"
)

func TestParseSortDirection(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    types.SortDirection
		wantErr bool
	}{
		{name: "empty defaults to ascending", input: "", want: types.SortAsc},
		{name: "asc", input: "asc", want: types.SortAsc},
		{name: "desc", input: "desc", want: types.SortDesc},
		{name: "upper case is not coerced", input: "DESC", wantErr: true},
		{name: "unknown", input: "sideways", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseSortDirection(tt.input)
			if tt.wantErr {
				gt.Error(t, err)
				return
			}
			gt.NoError(t, err)
			gt.V(t, got).Equal(tt.want)
		})
	}
}

func TestParseObjectType(t *testing.T) {
	for _, o := range types.AllObjectTypes() {
		got, err := types.ParseObjectType(o.String())
		gt.NoError(t, err)
		gt.V(t, got).Equal(o)
	}

	_, err := types.ParseObjectType("task")
	gt.Error(t, err)
}

func TestHookPoint_IsValid(t *testing.T) {
	for _, h := range types.AllHookPoints() {
		gt.B(t, h.IsValid()).Describef("hook %s should be valid", h).True()
	}
	gt.B(t, types.HookPoint("on_preload_task_create").IsValid()).False()
}
