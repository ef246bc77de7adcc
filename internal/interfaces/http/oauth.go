package http

import "net/http"

const oauthStateMaxAge = 600 // seconds

// setOAuthState stores the anti-forgery state in a short-lived HttpOnly
// cookie. SameSite=Lax so the cookie survives the provider's redirect back.
func setOAuthState(w http.ResponseWriter, name, state string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    state,
		Path:     "/",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// verifyOAuthState checks the returned state against the stored cookie and
// clears the cookie either way.
func verifyOAuthState(w http.ResponseWriter, r *http.Request, name, state string) bool {
	cookie, err := r.Cookie(name)

	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	return err == nil && state != "" && cookie.Value == state
}
