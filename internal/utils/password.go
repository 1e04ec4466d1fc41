// Package utils provides the admin credential helpers: password
// verification and access token minting.
package utils

import "golang.org/x/crypto/bcrypt"

// VerifyPassword compares a bcrypt hash against a plain password in
// constant time.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
