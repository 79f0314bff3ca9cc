/*
Package auth checks the API key a client presents against a static
allow-list.

A request without a key is rejected with 401, a request whose key is unknown
or disabled with 403. The allow-list comes from configuration and can be
swapped at runtime when the configuration file changes:

	validator := auth.NewAPIKeyValidator(auth.KeysFromConfig(cfg.Security.Auth.Keys))
	mw := auth.NewAPIKeyMiddleware(validator,
		[]auth.APIKeySource{auth.HeaderSource("X-API-Key")},
		auth.WithPathPrefix("/api/"),
	)
	http.Handle("/", mw.Handle(mux))

	// on reload
	validator.Replace(auth.KeysFromConfig(newCfg.Security.Auth.Keys))

Handlers read the authenticated key with GetAPIKeyInfo.
*/
package auth
