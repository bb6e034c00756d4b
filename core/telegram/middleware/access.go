package middleware

import (
	"github.com/m3rciful/utilbot/core/telegram/flow"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	AdminID  int64
	OnReject flow.Handler
}

// AdminOnly lets only the configured admin reach next. With no admin
// configured nobody does.
func AdminOnly(opts AdminOptions) func(next flow.Handler) flow.Handler {
	return func(next flow.Handler) flow.Handler {
		return func(req *flow.Request) error {
			if opts.AdminID == 0 || req.Event.UserID != opts.AdminID {
				if opts.OnReject != nil {
					return opts.OnReject(req)
				}
				return nil
			}
			return next(req)
		}
	}
}
