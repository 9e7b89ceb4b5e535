package authz

import "fmt"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds 系统预置角色矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "moderator",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/reviews", Action: "GET"},
				{Object: "/admin/reviews/:id/approve", Action: "POST"},
				{Object: "/admin/reviews/:id/reject", Action: "POST"},
				{Object: "/admin/contact-edit-requests", Action: "GET"},
				{Object: "/admin/contact-edit-requests/:id/approve", Action: "POST"},
				{Object: "/admin/contact-edit-requests/:id/reject", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "listings_editor",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/listings", Action: "*"},
				{Object: "/admin/listings/:id", Action: "*"},
				{Object: "/admin/listings/:id/status", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "security_auditor",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/security/audit-events", Action: "GET"},
				{Object: "/admin/security/telemetry", Action: "GET"},
			},
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles 初始化预置角色与默认策略
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	for _, seed := range BuiltinRoleSeeds() {
		role, err := s.EnsureRole(seed.Role)
		if err != nil {
			return err
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if _, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			if _, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}
