// Package config loads the fitbridge configuration.
//
// Configuration is assembled in three layers, each overriding the previous:
//
//  1. built-in defaults (GetDefaultConfig)
//  2. an optional YAML file passed with --config
//  3. environment variables
//
// # Environment Variables
//
//	OAUTH_CLIENT_ID              Fitbit application client id
//	OAUTH_CLIENT_SECRET          Fitbit application client secret
//	OAUTH_REDIRECT_URL           absolute URL of /api/auth/callback
//	SESSION_SECRET               64 hex characters (AES-256 key)
//	SESSION_COOKIE_NAME          default chatgpt-fitbit-bridge-session
//	SESSION_COOKIE_FORCE_SECURE  Secure cookie attribute, default true
//	FITBRIDGE_LISTEN_ADDR        default :3000
//	FITBRIDGE_HTTP_TIMEOUT       provider call timeout, 10s to 30s, default 15s
//	FITBRIDGE_LOG_LEVEL          debug, info, warn or error
//	FITBRIDGE_LOG_FORMAT         text or json
//	FITBIT_AUTHORIZE_URL         provider authorize endpoint
//	FITBIT_TOKEN_URL             provider token endpoint
//	FITBIT_API_URL               Fitbit Web API base URL
//
// # File Format
//
//	oauth:
//	  clientId: ABC123
//	  clientSecret: s3cret
//	  redirectUrl: https://bridge.example.com/api/auth/callback
//	session:
//	  secret: 0123...
//	  forceSecure: false
//	server:
//	  listenAddr: ":8080"
//	  httpTimeout: 20s
//	logging:
//	  level: debug
//	  format: json
//
// The merged result is validated with go-playground/validator. Validation
// failures are reported as ValidationErrors naming the environment variable
// of each offending field.
package config
