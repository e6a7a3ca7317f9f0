package access

import (
	"github.com/google/uuid"

	"github.com/velamart/velamart-backend/pkg/enums"
	pkgerrors "github.com/velamart/velamart-backend/pkg/errors"
)

// Actor identifies the authenticated principal performing a request.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

// CanCreateOrder enforces that only customers and admins place orders.
func CanCreateOrder(actor Actor) error {
	if actor.Role == enums.UserRoleCustomer || actor.Role == enums.UserRoleAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "vendors cannot place orders")
}

// CanViewOrder enforces role-scoped order visibility: admins see everything,
// customers see their own orders, vendors see orders containing their items.
func CanViewOrder(actor Actor, customerID uuid.UUID, vendorUserIDs []uuid.UUID) error {
	switch actor.Role {
	case enums.UserRoleAdmin:
		return nil
	case enums.UserRoleCustomer:
		if actor.UserID == customerID {
			return nil
		}
	case enums.UserRoleVendor:
		for _, id := range vendorUserIDs {
			if id == actor.UserID {
				return nil
			}
		}
	}
	// Report not-found rather than forbidden so order ids do not leak.
	return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

// CanMutateOrderStatus restricts status transitions to admins. Customers go
// through the dedicated cancel path; a multi-vendor order must never be moved
// wholesale by one of its vendors.
func CanMutateOrderStatus(actor Actor) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required to update order status")
}

// CanCancelOrder allows the owning customer or an admin to cancel.
func CanCancelOrder(actor Actor, customerID uuid.UUID) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if actor.Role == enums.UserRoleCustomer && actor.UserID == customerID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "only the ordering customer or an admin can cancel")
}

// CanMutateProduct allows admins and the owning vendor to edit a listing.
func CanMutateProduct(actor Actor, ownerUserID uuid.UUID) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if actor.Role == enums.UserRoleVendor && actor.UserID == ownerUserID {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another vendor")
}

// CanManageVendors restricts vendor administration to admins.
func CanManageVendors(actor Actor) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
}
