package users

// Role is the closed set of staff roles. Permission rules are pure
// functions over (role, action) evaluated at the HTTP boundary; the
// lifecycle engine itself trusts the caller context it is handed.
type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleManager    Role = "manager"
	RoleCashier    Role = "cashier"
	RoleWaiter     Role = "waiter"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleManager, RoleCashier, RoleWaiter:
		return true
	}
	return false
}

type Action string

const (
	ActionCreateOrder    Action = "order.create"
	ActionListOrders     Action = "order.list"
	ActionViewOrder      Action = "order.view"
	ActionMutateOrder    Action = "order.mutate" // add/remove items, complete, assign waiter
	ActionDeleteOrder    Action = "order.delete"
	ActionManageItems    Action = "item.manage"
	ActionViewItems      Action = "item.view"
	ActionViewCommission Action = "commission.view"
)

var admins = []Role{RoleSuperAdmin, RoleManager}
var staff = []Role{RoleSuperAdmin, RoleManager, RoleCashier}
var everyone = []Role{RoleSuperAdmin, RoleManager, RoleCashier, RoleWaiter}

var allowed = map[Action][]Role{
	ActionCreateOrder:    {RoleCashier},
	ActionListOrders:     admins,
	ActionViewOrder:      staff,
	ActionMutateOrder:    staff,
	ActionDeleteOrder:    admins,
	ActionManageItems:    admins,
	ActionViewItems:      everyone,
	ActionViewCommission: everyone,
}

// Can reports whether role may perform action.
func Can(role Role, action Action) bool {
	for _, r := range allowed[action] {
		if r == role {
			return true
		}
	}
	return false
}
