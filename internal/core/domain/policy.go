package domain

// Operation identifies a role-gated use case.
type Operation string

const (
	OpCouponCreate         Operation = "coupon.create"
	OpCouponUpdate         Operation = "coupon.update"
	OpCouponDelete         Operation = "coupon.delete"
	OpCouponRead           Operation = "coupon.read"
	OpCouponList           Operation = "coupon.list"
	OpCouponUpload         Operation = "coupon.upload"
	OpCouponListCreated    Operation = "coupon.list_created"
	OpCouponListUnassigned Operation = "coupon.list_unassigned"
	OpCouponListTitles     Operation = "coupon.list_titles"
	OpAssign               Operation = "assignment.assign"
	OpAssignmentListMine   Operation = "assignment.list_mine"
	OpAssignmentMarkUsed   Operation = "assignment.mark_used"
	OpUserCreate           Operation = "user.create"
	OpUserList             Operation = "user.list"
	OpUserRead             Operation = "user.read"
	OpUserUpdate           Operation = "user.update"
	OpUserDelete           Operation = "user.delete"
	OpProfileRead          Operation = "profile.read"
	OpAuditRead            Operation = "audit.read"
)

var (
	adminOnly      = []Role{RoleAdmin}
	managerOrAdmin = []Role{RoleManager, RoleAdmin}
	anyRole        = []Role{RoleAdmin, RoleManager, RoleUser}
)

// permissions is the capability table. Operations missing from it are denied.
var permissions = map[Operation][]Role{
	OpCouponCreate:         adminOnly,
	OpCouponUpdate:         adminOnly,
	OpCouponDelete:         adminOnly,
	OpCouponRead:           adminOnly,
	OpCouponList:           adminOnly,
	OpCouponUpload:         managerOrAdmin,
	OpCouponListCreated:    {RoleManager},
	OpCouponListUnassigned: managerOrAdmin,
	OpCouponListTitles:     managerOrAdmin,
	OpAssign:               managerOrAdmin,
	OpAssignmentListMine:   {RoleUser},
	OpAssignmentMarkUsed:   {RoleUser},
	OpUserCreate:           adminOnly,
	OpUserList:             adminOnly,
	OpUserRead:             anyRole,
	OpUserUpdate:           adminOnly,
	OpUserDelete:           adminOnly,
	OpProfileRead:          anyRole,
	OpAuditRead:            adminOnly,
}

// Allows reports whether role may perform op.
func (op Operation) Allows(role Role) bool {
	for _, allowed := range permissions[op] {
		if allowed == role {
			return true
		}
	}
	return false
}

// Authorize fails closed: an unauthenticated principal gets ErrUnauthorized,
// a role outside the operation's set gets ErrForbidden.
func Authorize(p Principal, op Operation) error {
	if !p.Authenticated() {
		return ErrUnauthorized
	}
	if !op.Allows(p.Role) {
		return ErrForbidden
	}
	return nil
}
