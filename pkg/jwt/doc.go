// Package jwt verifies HS256 access tokens issued by the auth provider.
//
// The middleware stores verified Claims in the request context; handlers
// read the user with UserIDFromContext:
//
//	svc, _ := jwt.New(cfg)
//	r.Use(jwt.Middleware(svc))
//
//	userID, ok := jwt.UserIDFromContext(r.Context())
package jwt
