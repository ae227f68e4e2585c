package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkflowFilterNormalize(t *testing.T) {
	cases := []struct {
		name       string
		in         WorkflowFilter
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", WorkflowFilter{}, 1, 20, 0},
		{"negative page", WorkflowFilter{Page: -3, Limit: 10}, 1, 10, 0},
		{"limit capped", WorkflowFilter{Page: 2, Limit: 500}, 2, 100, 100},
		{"third page", WorkflowFilter{Page: 3, Limit: 25}, 3, 25, 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := tc.in
			f.Normalize()
			assert.Equal(t, tc.wantPage, f.Page)
			assert.Equal(t, tc.wantLimit, f.Limit)
			assert.Equal(t, tc.wantOffset, f.Offset())
		})
	}
}
