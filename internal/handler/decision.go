package handler

// Action is what the entry handler does with a request.
type Action int

const (
	// ActionServeForm asks an anonymous visitor for an identifier.
	ActionServeForm Action = iota
	// ActionRedirect sends the caller to its canonical room path.
	ActionRedirect
	// ActionProceed hands the request to the room addressed by the path.
	ActionProceed
)

func (a Action) String() string {
	switch a {
	case ActionServeForm:
		return "serve_form"
	case ActionRedirect:
		return "redirect"
	case ActionProceed:
		return "proceed"
	default:
		return "unknown"
	}
}

// Decide picks the action for a request whose path addresses pathKey ("" for
// the root). canonical is the room key of the resolved identifier and is
// ignored when found is false.
func Decide(found bool, canonical, pathKey string) Action {
	if found {
		if pathKey == canonical {
			return ActionProceed
		}
		return ActionRedirect
	}
	if pathKey == "" {
		return ActionServeForm
	}
	return ActionProceed
}
