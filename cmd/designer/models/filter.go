package models

// WorkflowFilter narrows and pages a workflow listing. The listing is
// always scoped to workflows the caller holds a permission on.
type WorkflowFilter struct {
	Status WorkflowStatus // zero value: any status
	Owner  string         // creator user id; zero value: any owner
	Page   int
	Limit  int
}

// Normalize applies pagination defaults and bounds
func (f *WorkflowFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// Offset returns the row offset for the current page
func (f *WorkflowFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
