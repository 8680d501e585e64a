package models

import "time"

// DomainsResponse lists the parent domains subdomains can be created under.
type DomainsResponse struct {
	Domains []string `json:"domains"`
}

// CheckSubdomainRequest asks whether subdomain.domain is free.
type CheckSubdomainRequest struct {
	Subdomain string `json:"subdomain"`
	Domain    string `json:"domain"`
}

// CheckSubdomainResponse reports whether the name is already taken.
type CheckSubdomainResponse struct {
	Exists  bool   `json:"exists"`
	Message string `json:"message,omitempty"`
}

// CreateSubdomainRequest provisions a subdomain. Proxied must be present.
type CreateSubdomainRequest struct {
	Subdomain string `json:"subdomain"`
	Domain    string `json:"domain"`
	Type      string `json:"type"`
	Content   string `json:"content"`
	Proxied   *bool  `json:"proxied" validate:"required"`
}

// LoginRequest carries the ownership token.
type LoginRequest struct {
	Content string `json:"content" form:"content"`
}

// Record is a ledger entry as shown to its owner.
type Record struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Content   string     `json:"content"`
	Proxied   bool       `json:"proxied"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// DashboardResponse lists the records owned by the session identity.
type DashboardResponse struct {
	User    string   `json:"user"`
	Records []Record `json:"records"`
}

// UpdateRecordRequest replaces the editable fields of an owned record.
type UpdateRecordRequest struct {
	OldName string `json:"old_name"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Proxied bool   `json:"proxied"`
}
