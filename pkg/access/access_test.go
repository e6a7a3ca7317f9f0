package access

import (
	"testing"

	"github.com/google/uuid"

	"github.com/velamart/velamart-backend/pkg/enums"
	"github.com/velamart/velamart-backend/pkg/errors"
)

func TestCanCreateOrder(t *testing.T) {
	if err := CanCreateOrder(Actor{Role: enums.UserRoleCustomer}); err != nil {
		t.Fatalf("customer should create orders: %v", err)
	}
	if err := CanCreateOrder(Actor{Role: enums.UserRoleAdmin}); err != nil {
		t.Fatalf("admin should create orders: %v", err)
	}
	err := CanCreateOrder(Actor{Role: enums.UserRoleVendor})
	if !errors.IsCode(err, errors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestCanViewOrder(t *testing.T) {
	customerID := uuid.New()
	vendorUserID := uuid.New()
	vendors := []uuid.UUID{vendorUserID}

	if err := CanViewOrder(Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}, customerID, vendors); err != nil {
		t.Fatalf("admin should view any order: %v", err)
	}
	if err := CanViewOrder(Actor{UserID: customerID, Role: enums.UserRoleCustomer}, customerID, vendors); err != nil {
		t.Fatalf("owner should view their order: %v", err)
	}
	if err := CanViewOrder(Actor{UserID: vendorUserID, Role: enums.UserRoleVendor}, customerID, vendors); err != nil {
		t.Fatalf("vendor with items should view the order: %v", err)
	}

	err := CanViewOrder(Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer}, customerID, vendors)
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("foreign customer must get not-found, got %v", err)
	}
	err = CanViewOrder(Actor{UserID: uuid.New(), Role: enums.UserRoleVendor}, customerID, vendors)
	if !errors.IsCode(err, errors.CodeNotFound) {
		t.Fatalf("uninvolved vendor must get not-found, got %v", err)
	}
}

func TestCanMutateOrderStatus(t *testing.T) {
	if err := CanMutateOrderStatus(Actor{Role: enums.UserRoleAdmin}); err != nil {
		t.Fatalf("admin should mutate status: %v", err)
	}

	// Vendors never move an order wholesale, even with items in it.
	err := CanMutateOrderStatus(Actor{UserID: uuid.New(), Role: enums.UserRoleVendor})
	if !errors.IsCode(err, errors.CodeForbidden) {
		t.Fatalf("vendor must be forbidden, got %v", err)
	}
	err = CanMutateOrderStatus(Actor{UserID: uuid.New(), Role: enums.UserRoleCustomer})
	if !errors.IsCode(err, errors.CodeForbidden) {
		t.Fatalf("customer must be forbidden, got %v", err)
	}
}

func TestCanCancelOrder(t *testing.T) {
	customerID := uuid.New()

	if err := CanCancelOrder(Actor{Role: enums.UserRoleAdmin}, customerID); err != nil {
		t.Fatalf("admin should cancel: %v", err)
	}
	if err := CanCancelOrder(Actor{UserID: customerID, Role: enums.UserRoleCustomer}, customerID); err != nil {
		t.Fatalf("owner should cancel: %v", err)
	}
	err := CanCancelOrder(Actor{UserID: uuid.New(), Role: enums.UserRoleVendor}, customerID)
	if !errors.IsCode(err, errors.CodeForbidden) {
		t.Fatalf("vendor must be forbidden, got %v", err)
	}
}

func TestCanMutateProduct(t *testing.T) {
	ownerID := uuid.New()

	if err := CanMutateProduct(Actor{Role: enums.UserRoleAdmin}, ownerID); err != nil {
		t.Fatalf("admin should mutate product: %v", err)
	}
	if err := CanMutateProduct(Actor{UserID: ownerID, Role: enums.UserRoleVendor}, ownerID); err != nil {
		t.Fatalf("owner should mutate product: %v", err)
	}
	err := CanMutateProduct(Actor{UserID: uuid.New(), Role: enums.UserRoleVendor}, ownerID)
	if !errors.IsCode(err, errors.CodeForbidden) {
		t.Fatalf("foreign vendor must be forbidden, got %v", err)
	}
}

func TestCanManageVendors(t *testing.T) {
	if err := CanManageVendors(Actor{Role: enums.UserRoleAdmin}); err != nil {
		t.Fatalf("admin should manage vendors: %v", err)
	}
	if err := CanManageVendors(Actor{Role: enums.UserRoleVendor}); err == nil {
		t.Fatal("vendor must not manage vendors")
	}
}
