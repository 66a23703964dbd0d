package route

// Decision is what the guard does with a classified request once a
// session check is in place.
type Decision int

const (
	// Pass forwards the request unchanged.
	Pass Decision = iota
	// RedirectLogin sends an anonymous visitor of a protected page to login.
	RedirectLogin
	// RedirectDashboard sends a signed-in user away from the auth flow.
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case RedirectLogin:
		return "redirect_login"
	case RedirectDashboard:
		return "redirect_dashboard"
	default:
		return "pass"
	}
}

// Decide maps a classification and session state to a Decision.
// Unclassified paths always pass.
func Decide(class Classification, authenticated bool) Decision {
	switch {
	case class == Protected && !authenticated:
		return RedirectLogin
	case class == AuthFlow && authenticated:
		return RedirectDashboard
	default:
		return Pass
	}
}
