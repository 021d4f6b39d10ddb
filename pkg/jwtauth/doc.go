// Package jwtauth verifies HS256 bearer tokens with golang-jwt and exposes
// their claims as the flat values consumed by the external principal tenant
// strategy.
//
//	v, err := jwtauth.NewVerifier(secret, jwtauth.WithIssuer("auth.example.com"))
//	if err != nil {
//		return err
//	}
//	r := chi.NewRouter()
//	r.Use(jwtauth.Middleware(v))
//	r.Use(tenant.Middleware(guard,
//		tenant.WithValues(jwtauth.Values),
//		tenant.WithCurrentUser(jwtauth.Subject),
//	))
//
// A token carrying {"sub":"42","company_id":7} then runs its request bound
// to tenant 7. Claims keep numbers as json.Number, which the tenant ID rule
// accepts; string IDs are rejected as usual.
package jwtauth
