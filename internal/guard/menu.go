package guard

import "context"

// MenuEntry is an item of the account menu. Logout entries carry no path.
type MenuEntry struct {
	Label  string
	Path   string
	Logout bool
}

// Menu returns the account menu for the current session. "Problem Editor" appears only when
// the editor route is in the guarded set. Empty without a valid session.
func (g *Guard) Menu(ctx context.Context) []MenuEntry {
	routes := g.GuardedRoutes(ctx)
	if len(routes) == 0 {
		return nil
	}
	var out []MenuEntry
	if containsRoute(routes, RouteAccount) {
		out = append(out, MenuEntry{Label: "My Account", Path: BasePath + "/account"})
	}
	if containsRoute(routes, RouteEditor) {
		out = append(out, MenuEntry{Label: "Problem Editor", Path: BasePath + "/editor"})
	}
	return append(out, MenuEntry{Label: "Log out", Logout: true})
}
