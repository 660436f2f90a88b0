// Package auth provides signup, login and token handling for the marketplace.
//
// Two principal kinds live in separate collections: users (shoppers) and
// vendors (store owners). Each carries a Role that is fixed by the
// collection it was created in.
//
//   - Passwords are hashed with bcrypt; plaintext is never stored.
//   - Tokens are HS256 JWTs carrying {id, role} and a 3-day expiry.
//   - The signing secret is injected into TokenIssuer, never read from
//     process globals.
//
// Request gating lives in the api package; this package only supplies the
// primitives (ParseBearer, TokenIssuer.Verify, PrincipalRepository.GetIdentity)
// and the context helpers that carry the resolved Identity downstream.
package auth
