package model

import (
	"time"
)

// TenantPlan is the subscription tier of a tenant
type TenantPlan string

const (
	PlanFree       TenantPlan = "FREE"
	PlanBasic      TenantPlan = "BASIC"
	PlanPremium    TenantPlan = "PREMIUM"
	PlanEnterprise TenantPlan = "ENTERPRISE"
)

// Valid reports whether p is a known plan
func (p TenantPlan) Valid() bool {
	switch p {
	case PlanFree, PlanBasic, PlanPremium, PlanEnterprise:
		return true
	}
	return false
}

// TenantStatus is the account state of a tenant
type TenantStatus string

const (
	TenantActive    TenantStatus = "ACTIVE"
	TenantSuspended TenantStatus = "SUSPENDED"
	TenantInactive  TenantStatus = "INACTIVE"
	TenantPending   TenantStatus = "PENDING"
)

// Valid reports whether s is a known tenant status
func (s TenantStatus) Valid() bool {
	switch s {
	case TenantActive, TenantSuspended, TenantInactive, TenantPending:
		return true
	}
	return false
}

// TenantSettings holds optional per-tenant configuration
type TenantSettings struct {
	MaxUsers     *int     `json:"maxUsers,omitempty"`
	Features     []string `json:"features,omitempty"`
	CustomDomain string   `json:"customDomain,omitempty"`
}

// Tenant is a customer account. Values are never mutated in place; the With*
// methods return new versions.
type Tenant struct {
	TenantID  string          `json:"tenantId"`
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Plan      TenantPlan      `json:"plan"`
	Status    TenantStatus    `json:"status"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Settings  *TenantSettings `json:"settings,omitempty"`
}

// TenantFields are the caller-supplied fields of a new tenant
type TenantFields struct {
	Name     string
	Email    string
	Plan     TenantPlan
	Status   TenantStatus
	Settings *TenantSettings
}

// TenantPatch carries the fields an update may replace. Nil fields are kept.
type TenantPatch struct {
	Name     *string         `json:"name,omitempty"`
	Plan     *TenantPlan     `json:"plan,omitempty"`
	Status   *TenantStatus   `json:"status,omitempty"`
	Settings *TenantSettings `json:"settings,omitempty"`
}

// NewTenant mints an identifier and timestamps and copies f verbatim
func NewTenant(f TenantFields) Tenant {
	ts := now()
	return Tenant{
		TenantID:  newID("tenant"),
		Name:      f.Name,
		Email:     f.Email,
		Plan:      f.Plan,
		Status:    f.Status,
		CreatedAt: ts,
		UpdatedAt: ts,
		Settings:  f.Settings,
	}
}

// WithFields returns a copy of t with the non-nil fields of p applied
func (t Tenant) WithFields(p TenantPatch) Tenant {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Plan != nil {
		t.Plan = *p.Plan
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Settings != nil {
		t.Settings = p.Settings
	}
	t.UpdatedAt = touch(t.UpdatedAt)
	return t
}

// WithStatus returns a copy of t with the given status
func (t Tenant) WithStatus(s TenantStatus) Tenant {
	return t.WithFields(TenantPatch{Status: &s})
}
