// Package auth stores credentials and verifies them.
//
// Passwords are hashed with bcrypt. Usernames are unique and compared
// exactly. Both an unknown user and a wrong password produce
// ErrInvalidCredentials so callers cannot tell the two apart.
package auth
