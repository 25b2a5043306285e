// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session keeps each researcher's wizard state between requests.

# Cookies

The feasibility_session cookie holds "<uuid>.<mac>" (see
auth.SignSessionID). It is HttpOnly, SameSite=Lax, and Secure when
configured. It is re-issued whenever the state is saved, so it expires
one TTL after the last change. A missing or forged cookie starts a new,
empty wizard.

# Middleware

	m := session.NewManager(session.NewSQLStore(conn, driver), session.Options{
		Secret: cfg.SessionSecret,
		Secure: cfg.SecureCookies,
		TTL:    cfg.SessionTTL,
	})
	r.Use(m.Middleware)

Handlers read and mutate the state through the context:

	sess, _ := session.FromContext(r.Context())
	sess.State.Criteria.Platform = models.PlatformJDR

After the handler returns the state is saved if it changed. The response
is buffered until then; if the save fails the client gets a 500 instead
of the handler's response. Requests for one session are serialized, so
two tabs saving different steps do not lose each other's answers.

# Storage

SQLStore stores the state as JSON in wizard_session. RunJanitor deletes
sessions that have not been saved for longer than the TTL.
*/
package session
