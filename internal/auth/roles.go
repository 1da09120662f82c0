package auth

import (
	"strings"
	"sync"
)

type Role string

const (
	AdminRole  Role = "admin"
	MinterRole Role = "minter"
)

// Roles is an explicit role-membership set. Privileged operations check
// membership at their entry point rather than relying on any implicit
// capability of the caller.
type Roles struct {
	mu      sync.RWMutex
	members map[Role]map[string]bool
}

func NewRoles() *Roles {
	return &Roles{members: make(map[Role]map[string]bool)}
}

func (r *Roles) Grant(role Role, addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.members[role] == nil {
		r.members[role] = make(map[string]bool)
	}
	r.members[role][strings.ToLower(addr)] = true
}

func (r *Roles) Revoke(role Role, addr string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.members[role] != nil {
		delete(r.members[role], strings.ToLower(addr))
	}
}

func (r *Roles) Has(role Role, addr string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.members[role][strings.ToLower(addr)]
}

// IsAdmin is sugar for the check most call sites make.
func (r *Roles) IsAdmin(addr string) bool {
	return r.Has(AdminRole, addr)
}

func (r *Roles) IsMinter(addr string) bool {
	return r.Has(MinterRole, addr)
}
