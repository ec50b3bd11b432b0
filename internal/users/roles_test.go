package users

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleSuperAdmin, RoleManager, RoleCashier, RoleWaiter} {
		require.True(t, r.Valid(), "%s", r)
	}
	require.False(t, Role("admin").Valid())
	require.False(t, Role("").Valid())
}

func TestCan(t *testing.T) {
	// Only cashiers open orders.
	require.True(t, Can(RoleCashier, ActionCreateOrder))
	require.False(t, Can(RoleManager, ActionCreateOrder))
	require.False(t, Can(RoleSuperAdmin, ActionCreateOrder))
	require.False(t, Can(RoleWaiter, ActionCreateOrder))

	// Listing and deleting orders is an admin concern.
	for _, r := range []Role{RoleSuperAdmin, RoleManager} {
		require.True(t, Can(r, ActionListOrders), "%s", r)
		require.True(t, Can(r, ActionDeleteOrder), "%s", r)
		require.True(t, Can(r, ActionManageItems), "%s", r)
	}
	require.False(t, Can(RoleCashier, ActionListOrders))
	require.False(t, Can(RoleWaiter, ActionDeleteOrder))
	require.False(t, Can(RoleCashier, ActionManageItems))

	// Waiters cannot touch orders but can browse the catalog and see
	// their own commission.
	require.False(t, Can(RoleWaiter, ActionViewOrder))
	require.False(t, Can(RoleWaiter, ActionMutateOrder))
	require.True(t, Can(RoleWaiter, ActionViewItems))
	require.True(t, Can(RoleWaiter, ActionViewCommission))

	// Unknown actions deny everyone.
	require.False(t, Can(RoleSuperAdmin, Action("order.export")))
}
