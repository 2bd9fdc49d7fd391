// Package tenant resolves inbound requests to tenants and manages the
// tenant lifecycle: signup, plan changes, suspension and API key
// rotation. Resolution order is subdomain, then API key, then the
// explicit tenant id header; the first matching signal wins.
package tenant
