package httpclient

import "context"

// AuthMaterial carries the credential material merged into every outgoing
// request: headers and body fields. It is treated as immutable once resolved.
type AuthMaterial struct {
	Headers map[string]string
	Body    map[string]any
}

// AuthProvider resolves auth material. Resolution may involve I/O (a token
// fetch, a session handshake) and happens once, on the client's first
// request.
type AuthProvider interface {
	Resolve(ctx context.Context) (AuthMaterial, error)
}

// AuthProviderFunc adapts a function to the AuthProvider interface.
type AuthProviderFunc func(ctx context.Context) (AuthMaterial, error)

func (f AuthProviderFunc) Resolve(ctx context.Context) (AuthMaterial, error) {
	return f(ctx)
}

// StaticAuth is an AuthProvider whose material is known up front.
type StaticAuth AuthMaterial

func (s StaticAuth) Resolve(ctx context.Context) (AuthMaterial, error) {
	return AuthMaterial(s), nil
}

// BearerAuth returns a provider that sends a static bearer token.
func BearerAuth(token string) AuthProvider {
	return StaticAuth{Headers: map[string]string{"Authorization": "Bearer " + token}}
}

// NoAuth returns a provider with empty material.
func NoAuth() AuthProvider {
	return StaticAuth{}
}
