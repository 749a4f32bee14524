// Package identity provides account management primitives (JWT issuance and
// refresh, bun backed repositories, HTTP controllers) plus a request
// authorization engine built around integer permission levels.
//
// Permission levels:
//   - Levels are plain integers persisted on the user record: admin (0),
//     moderator (1) and standard (2) are built in, and any other id resolves
//     to a custom level through the PermissionRegistry.
//   - Restrictions bind method/path patterns to allowed level sets; the
//     Evaluator decides every request, answering rejections with one opaque
//     status so restricted routes cannot be discovered by probing.
//   - A restriction may name a path parameter holding the resource owner's
//     id. A caller reaching their own record passes regardless of level.
//
// Tokens:
//   - TokenService mints RS256 access and refresh tokens. Access tokens
//     embed the subject's profile and level; refresh tokens carry only the
//     subject id and the Refresh flow re-reads the store so revoked or
//     demoted accounts do not keep their old level.
//   - ClaimProvider lets callers contribute extension claims at issuance.
//     Providers run in order, later ones win, and the base payload claims
//     are never overwritten.
package identity
