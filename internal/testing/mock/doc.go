// Package mock provides test doubles for the Fitbit platform.
//
// FitbitServer is an in-process HTTP server implementing the parts of Fitbit
// that fitbridge talks to:
//
//	GET  /oauth2/authorize          issues a code (or redirects with AutoApprove)
//	POST /oauth2/token              authorization_code and refresh_token grants
//	POST /1/user/-/foods/log.json   create food log
//	GET  /1/foods/search.json       food search
//	GET  /1/foods/units.json        units
//
// The token endpoint checks HTTP Basic client credentials and the PKCE S256
// verifier. Codes and refresh tokens are single use, as on Fitbit. Errors
// use Fitbit's {"errors":[{"errorType","message"}]} shape.
//
// Usage:
//
//	server := mock.NewFitbitServer(mock.FitbitServerConfig{
//	    ClientSecret: "secret",
//	    AutoApprove:  true,
//	})
//	if _, err := server.Start(); err != nil {
//	    t.Fatal(err)
//	}
//	defer server.Stop(context.Background())
//
// Clock and FakeClock let tests control token expiry.
package mock
