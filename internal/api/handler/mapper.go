package handler

import (
	"github.com/ecodeclub/ekit/slice"

	"github.com/couponhub/coupon-service/internal/core/domain"
	"github.com/couponhub/coupon-service/internal/core/ports"
)

// --- Request → Service input ---

func toCreateCouponInput(req couponRequest) ports.CreateCouponInput {
	return ports.CreateCouponInput{
		Code:            req.Code,
		Description:     req.Description,
		DiscountAmount:  req.DiscountAmount,
		DiscountType:    req.DiscountType,
		ExpirationDate:  req.ExpirationDate,
		Brand:           req.Brand,
		AssignmentTitle: req.AssignmentTitle,
	}
}

func toCouponPatch(req updateCouponRequest) domain.CouponPatch {
	patch := domain.CouponPatch{
		Code:            req.Code,
		Description:     req.Description,
		DiscountAmount:  req.DiscountAmount,
		ExpirationDate:  req.ExpirationDate,
		IsActive:        req.IsActive,
		Brand:           req.Brand,
		AssignmentTitle: req.AssignmentTitle,
	}
	if req.DiscountType != nil {
		dt := domain.ParseDiscountType(*req.DiscountType)
		patch.DiscountType = &dt
	}
	return patch
}

func toUserPatch(req updateUserRequest) domain.UserPatch {
	patch := domain.UserPatch{Email: req.Email}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		patch.Role = &role
	}
	return patch
}

func toPairs(reqs []assignPairRequest) []domain.Pair {
	return slice.Map(reqs, func(_ int, src assignPairRequest) domain.Pair {
		return domain.Pair{CouponID: src.CouponID, UserID: src.UserID}
	})
}

// --- Domain → Response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponses(users []*domain.User) []userResponse {
	return slice.Map(users, func(_ int, src *domain.User) userResponse {
		return toUserResponse(src)
	})
}

func toCouponResponse(c *domain.Coupon) couponResponse {
	return couponResponse{
		ID:              c.ID,
		Code:            c.Code,
		Description:     c.Description,
		DiscountAmount:  c.DiscountAmount,
		DiscountType:    string(c.DiscountType),
		ExpirationDate:  c.ExpirationDate,
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
		CreatedByID:     c.CreatedByID,
		Brand:           c.Brand,
		AssignmentTitle: c.AssignmentTitle,
	}
}

func toCouponResponses(coupons []*domain.Coupon) []couponResponse {
	return slice.Map(coupons, func(_ int, src *domain.Coupon) couponResponse {
		return toCouponResponse(src)
	})
}

func toTitleResponses(titles []domain.TitleSummary) []titleResponse {
	return slice.Map(titles, func(_ int, src domain.TitleSummary) titleResponse {
		return titleResponse{Title: src.Title, Unassigned: src.Unassigned}
	})
}

func toAssignmentResponse(a *domain.Assignment) assignmentResponse {
	resp := assignmentResponse{
		ID:         a.ID,
		CouponID:   a.CouponID,
		UserID:     a.UserID,
		IsUsed:     a.IsUsed,
		AssignedAt: a.AssignedAt,
		UsedAt:     a.UsedAt,
	}
	if a.Coupon != nil {
		c := toCouponResponse(a.Coupon)
		resp.CouponCode = c.Code
		resp.Coupon = &c
	}
	return resp
}

func toAssignmentResponses(assignments []*domain.Assignment) []assignmentResponse {
	return slice.Map(assignments, func(_ int, src *domain.Assignment) assignmentResponse {
		return toAssignmentResponse(src)
	})
}

func toAuditEventResponses(events []domain.CouponEvent) []auditEventResponse {
	return slice.Map(events, func(_ int, src domain.CouponEvent) auditEventResponse {
		return auditEventResponse{
			ID:           src.ID,
			Type:         string(src.Type),
			ActorID:      src.ActorID,
			CouponID:     src.CouponID,
			UserID:       src.UserID,
			AssignmentID: src.AssignmentID,
			OccurredAt:   src.OccurredAt,
			Details:      src.Details,
		}
	})
}
