// Package auth defines the credential providers used to authenticate
// against a Metabase instance.  Two methods are supported: a static API
// key, and an email/password pair that is exchanged for a session token on
// first use.
package auth

import "errors"

// Type is the auth type.
type Type uint8

// All supported auth types.
const (
	TypeInvalid Type = iota
	TypeAPIKey
	TypeUserPass
)

func (t Type) String() string {
	switch t {
	case TypeAPIKey:
		return "api key"
	case TypeUserPass:
		return "username/password"
	default:
		return "invalid"
	}
}

// Provider supplies Metabase credentials to the API client.
type Provider interface {
	// Type returns the auth type.
	Type() Type
	// APIKey returns the static API key, or an empty string if the
	// provider does not use one.
	APIKey() string
	// Credentials returns the username (email) and password pair, or empty
	// strings if the provider does not use them.
	Credentials() (username, password string)
	// Validate returns an error if the credentials are incomplete.
	Validate() error
}

var (
	ErrNoAuth        = errors.New("no authentication method configured: set an API key or a username and password")
	ErrPartialAuth   = errors.New("incomplete username/password pair: both must be set")
	ErrAmbiguousAuth = errors.New("both API key and username/password configured: choose one")
)

// New selects the authentication method from the supplied values.  Exactly
// one of the API key or the complete username/password pair must be
// present; anything else is a configuration error.
func New(apiKey, username, password string) (Provider, error) {
	hasKey := apiKey != ""
	hasUser := username != "" || password != ""
	switch {
	case hasKey && hasUser:
		return nil, ErrAmbiguousAuth
	case hasKey:
		return NewAPIKey(apiKey)
	case username != "" && password != "":
		return NewUserPass(username, password)
	case hasUser:
		return nil, ErrPartialAuth
	default:
		return nil, ErrNoAuth
	}
}

// APIKeyAuth authenticates with a static API key sent on every request.
type APIKeyAuth struct {
	key string
}

// NewAPIKey returns an API key provider.
func NewAPIKey(key string) (APIKeyAuth, error) {
	a := APIKeyAuth{key: key}
	return a, a.Validate()
}

func (a APIKeyAuth) Type() Type {
	return TypeAPIKey
}

func (a APIKeyAuth) APIKey() string {
	return a.key
}

func (a APIKeyAuth) Credentials() (string, string) {
	return "", ""
}

func (a APIKeyAuth) Validate() error {
	if a.key == "" {
		return ErrNoAuth
	}
	return nil
}

// UserPassAuth authenticates with an email/password pair via the session
// endpoint.
type UserPassAuth struct {
	username string
	password string
}

// NewUserPass returns a username/password provider.
func NewUserPass(username, password string) (UserPassAuth, error) {
	a := UserPassAuth{username: username, password: password}
	return a, a.Validate()
}

func (a UserPassAuth) Type() Type {
	return TypeUserPass
}

func (a UserPassAuth) APIKey() string {
	return ""
}

func (a UserPassAuth) Credentials() (string, string) {
	return a.username, a.password
}

func (a UserPassAuth) Validate() error {
	if a.username == "" || a.password == "" {
		return ErrPartialAuth
	}
	return nil
}
