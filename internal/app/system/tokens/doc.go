// Package tokens signs and verifies the service's bearer tokens.
//
// A token carries exactly three claims:
//
//	sub      user id (hex ObjectID)
//	exp      expiry, always computed here from a TTL
//	refresh  true for refresh tokens, false for access tokens
//
// Anything else in the payload makes the token invalid. Tokens are stateless:
// nothing is persisted, so a leaked token stays valid until it expires. There
// is no revocation list.
package tokens
