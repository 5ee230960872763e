// Package session is the credential and session facade. It registers local
// accounts, authenticates password and social logins, and issues stateless
// access and refresh token pairs.
//
// Tokens carry no revocation state. A leaked token stays valid until it
// expires, and a refresh does not invalidate the refresh token it consumed.
package session
