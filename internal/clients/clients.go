package clients

import (
	"github.com/subodhkmahto/student-teacher-management-system/internal/config"
	"github.com/subodhkmahto/student-teacher-management-system/internal/platform"
)

// Clients bundles the outbound platform clients the backend depends on.
type Clients struct {
	Identity platform.Identity
	Store    platform.Store
}

func New(cfg config.Config) *Clients {
	return &Clients{
		Identity: platform.NewGoTrueIdentity(cfg.SupabaseURL, cfg.AnonKey, cfg.ServiceRoleKey, cfg.HTTPTimeout),
		Store:    platform.NewRESTStore(cfg.SupabaseURL, cfg.ServiceRoleKey),
	}
}
