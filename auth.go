package venom

import (
	"encoding/base64"
)

const (
	Basic  = "basic"
	Bearer = "bearer"
	APIKey = "apikey"
)

type AuthConfig struct {
	Type     string `yaml:"type"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Token    string `yaml:"token"`
	APIKey   string `yaml:"api_key"`
	// Header carries the API key, "apikey" when empty.
	Header string `yaml:"header"`
}

type AuthManager struct {
	Config *AuthConfig
}

func (am *AuthManager) basicAuthHook() RequestHook {
	return func(req *Request) error {
		auth := base64.StdEncoding.EncodeToString([]byte(am.Config.Username + ":" + am.Config.Password))
		req.Headers["Authorization"] = "Basic " + auth
		return nil
	}
}

func (am *AuthManager) bearerAuthHook() RequestHook {
	return func(req *Request) error {
		req.Headers["Authorization"] = "Bearer " + am.Config.Token
		return nil
	}
}

func (am *AuthManager) apiKeyAuthHook() RequestHook {
	header := getOrDefault(&am.Config.Header, "apikey")
	return func(req *Request) error {
		req.Headers[header] = am.Config.APIKey
		return nil
	}
}

// GetAuthHook returns the pre-request hook for the configured scheme.
func (am *AuthManager) GetAuthHook() (RequestHook, error) {
	switch am.Config.Type {
	case Basic:
		return am.basicAuthHook(), nil
	case Bearer:
		return am.bearerAuthHook(), nil
	case APIKey:
		return am.apiKeyAuthHook(), nil
	default:
		return nil, newArgumentError("auth.type", "unknown auth type %q", am.Config.Type)
	}
}
