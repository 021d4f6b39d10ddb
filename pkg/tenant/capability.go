package tenant

// Capability interfaces are how principals, tenant objects and job payloads
// expose tenant data. Resolvers probe them in a fixed priority order.
// Bag satisfies every map-backed capability, so plain mappings work without
// extra wrappers.

// HasID is implemented by tenant objects that expose their primary key.
type HasID interface {
	GetID() any
}

// HasTenantColumn is implemented by values carrying the tenant column as an
// attribute, e.g. a user with a company_id field.
type HasTenantColumn interface {
	TenantColumn(column string) (any, bool)
}

// HasTenantObject is implemented by values that reach the tenant entity
// through an accessor named after the tenant object key, e.g. user.Company().
type HasTenantObject interface {
	TenantObject(key string) (any, bool)
}

// HasAssociation is implemented by values exposing named collections such as
// the companys_users join records of a principal.
type HasAssociation interface {
	Association(name string) ([]any, bool)
}

// HasCompany is the legacy accessor for payload objects built around a company.
type HasCompany interface {
	Company() any
}

// HasUser is implemented by job payload objects that carry the acting user.
type HasUser interface {
	User() any
}

// IsPayloadObject reports whether v exposes any capability the job payload
// resolver can probe. Queue handlers use it to decide whether a decoded
// payload is worth handing to the guard instead of the raw JSON.
func IsPayloadObject(v any) bool {
	switch v.(type) {
	case HasTenantObject, HasCompany, HasTenantColumn:
		return true
	default:
		return false
	}
}

// idOf extracts a validated ID from a tenant object.
func idOf(obj any) (ID, bool) {
	if !present(obj) {
		return 0, false
	}
	if o, ok := obj.(HasID); ok {
		return ParseID(o.GetID())
	}
	return 0, false
}

// firstOf returns the first element of a collection, if any.
func firstOf(items []any) (any, bool) {
	if len(items) == 0 {
		return nil, false
	}
	return items[0], present(items[0])
}
