// Package jwt issues and verifies the bearer access tokens presented on
// every protected request. Verification is strict: pinned algorithm,
// required expiry, optional issuer/audience/kid checks.
package jwt
