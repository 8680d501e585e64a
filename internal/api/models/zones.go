package models

// ZoneSummary is a brief zone description. Credentials are never included.
type ZoneSummary struct {
	Name     string `json:"name"`
	ZoneID   string `json:"zone_id"`
	AuthMode string `json:"auth_mode"` // "key" (key + email) or "token"
}

// ZoneListResponse contains a list of zones.
type ZoneListResponse struct {
	Zones []ZoneSummary `json:"zones"`
	Count int           `json:"count"`
}
