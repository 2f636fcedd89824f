// Package jwt issues and verifies the signed tokens carried by device sessions.
// Tokens bind a user id to a random jti and an expiry; verification is strict
// about algorithm, key id, issuer and audience.
package jwt
