// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/danielhkuo/recruit-feasibility/auth"
)

const (
	HeaderReviewer = "X-Reviewer"
	HeaderAdminKey = "X-Admin-Key"
)

type reviewerKey struct{}

// RequireReviewer only lets requests through that carry a reviewer name
// and a matching reviewer key.
func RequireReviewer(salt string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reviewer := strings.TrimSpace(r.Header.Get(HeaderReviewer))
			key := strings.TrimSpace(r.Header.Get(HeaderAdminKey))
			if reviewer == "" || key == "" {
				ErrorResponse(w, http.StatusUnauthorized, "Reviewer credentials required")
				return
			}
			if err := auth.ValidateReviewerKey(reviewer, key, salt); err != nil {
				zap.L().Info("reviewer key rejected", zap.String("reviewer", auth.NormalizeReviewer(reviewer)))
				ErrorResponse(w, http.StatusForbidden, "Invalid reviewer key")
				return
			}
			ctx := context.WithValue(r.Context(), reviewerKey{}, auth.NormalizeReviewer(reviewer))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ReviewerFromContext returns the reviewer admitted by RequireReviewer.
func ReviewerFromContext(ctx context.Context) string {
	s, _ := ctx.Value(reviewerKey{}).(string)
	return s
}
