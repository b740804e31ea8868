package ports

import (
	"context"
	"delivery-dispatch-service/internal/domain"
)

// Port: read access to delivery staff. Assignment never writes staff records.
type StaffRepository interface {
	// Return the staff member, or domain.ErrStaffNotFound (wrapped).
	FindByID(ctx context.Context, id string) (*domain.Staff, error)
	// Lock the given staff members until the surrounding transaction ends, so
	// their workload cannot change while an assignment is decided. Unknown ids are ignored.
	LockForAssignment(ctx context.Context, ids []string) error
}
