// Package session keeps server-side login sessions and the signed cookie
// that refers to them.
//
// Sessions live in memory for the lifetime of the process. The cookie holds
// an HS256 JWT whose jti is the session id; deleting the session on logout
// invalidates the cookie even while the token itself is still unexpired.
package session
