package projections

import (
	"context"
	"time"

	"seacomms/internal/adapters/storage/progress"
	"seacomms/internal/domain/account"
	"seacomms/internal/domain/apperr"
	domainProgress "seacomms/internal/domain/progress"
)

// GetProfileQuery carries query parameters.
type GetProfileQuery struct {
	AccountID string
	Email     string
}

// GetProfileResult carries the query result.
type GetProfileResult struct {
	Email       string    `json:"email"`
	IsAdmin     bool      `json:"is_admin"`
	MemberSince time.Time `json:"member_since,omitzero"`
}

// GetProfileDeps holds dependencies for GetProfile.
type GetProfileDeps struct {
	AccountStore AccountStore // optional: nil skips the member-since lookup
	AllowList    account.AllowList
}

// QueryGetProfile builds the profile view for the signed-in user.
// PRE: Email is the session's email
// POST: IsAdmin follows the allow-list exactly; a missing account row is not an error
func QueryGetProfile(ctx context.Context, query GetProfileQuery, deps GetProfileDeps) (GetProfileResult, error) {
	res := GetProfileResult{
		Email:   query.Email,
		IsAdmin: account.IsAdmin(query.Email, deps.AllowList),
	}
	if deps.AccountStore != nil && query.AccountID != "" {
		if acct, err := deps.AccountStore.GetByID(ctx, query.AccountID); err == nil {
			res.MemberSince = acct.CreatedAt
		}
	}
	return res, nil
}

// GetUserProgressQuery carries query parameters.
type GetUserProgressQuery struct {
	UserID string
}

// GetUserProgressDeps holds dependencies for GetUserProgress.
type GetUserProgressDeps struct {
	ProgressStore ProgressStore
}

// QueryGetUserProgress lists the signed-in user's own progress rows.
// PRE: UserID is the signed-in user
// INVARIANT: never returns another user's rows
func QueryGetUserProgress(ctx context.Context, query GetUserProgressQuery, deps GetUserProgressDeps) ([]domainProgress.UserProgress, error) {
	if query.UserID == "" {
		return []domainProgress.UserProgress{}, nil
	}
	rows, err := deps.ProgressStore.List(ctx, progress.ListFilter{UserID: query.UserID})
	if err != nil {
		return nil, apperr.Store("progress.list", err)
	}
	if rows == nil {
		rows = []domainProgress.UserProgress{}
	}
	return rows, nil
}
