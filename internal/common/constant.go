// Package common contains shared constants and sentinel errors used across
// the blog's web and api front ends.
package common

// AccessTokenCookieName is the httponly cookie the api front end stores the
// signed access token in.
const AccessTokenCookieName = "access_token"

// SessionCookieName is the cookie that carries the opaque web session id.
const SessionCookieName = "blog_session"

// AuthorizationHeaderName is the header checked for "Bearer <token>" when no
// access token cookie is present.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "
