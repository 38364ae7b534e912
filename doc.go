// Package auth provides stateless JWT security primitives: token issuance,
// principal reconstruction from claims, request authentication and path
// based authorization.
//
// Tokens:
//   - TokenService signs HS512 tokens carrying the claims produced by
//     ClaimsCodec and resolves them back into a Principal. Any signature,
//     structure, expiry or claims failure is an invalid token error; nothing
//     fails open.
//
// Authentication:
//   - AuthenticationManager turns a raw credential into an
//     AuthenticatedIdentity. A blank credential means "no authentication",
//     which is not an error. Identities are authenticated only when the
//     principal is enabled and holds at least one authority.
//
// Authorization:
//   - Policy is an ordered list of PathRule values matched with ant style
//     globs. The first match wins and unmatched requests must be
//     authenticated.
//   - IsAdmin, IsMe and AdminOrMe implement resource scopes.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue without
//     blocking authentication.
package auth
