package tenant

// ResolveRequest carries the three tenant signals extracted from an
// inbound request. Resolution tries them in order: subdomain, API key,
// explicit tenant id header. The first signal that matches a tenant wins;
// signals are never merged.
type ResolveRequest struct {
	Host         string
	APIKey       string
	TenantHeader string
	IPAddress    string
	UserAgent    string
}

// SignupRequest creates a tenant together with its first admin operator.
type SignupRequest struct {
	Name           string `json:"name"`
	Subdomain      string `json:"subdomain"`
	Plan           string `json:"plan"`
	AdminEmail     string `json:"admin_email"`
	AdminPassword  string `json:"admin_password"`
	AdminFirstName string `json:"admin_first_name"`
	AdminLastName  string `json:"admin_last_name"`
}
