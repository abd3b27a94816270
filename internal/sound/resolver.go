// /internal/sound/resolver.go
package sound

// Preferences is what the resolver needs from the preference store.
type Preferences interface {
	UserSound(userID string) (string, bool)
	ChannelSound(channelID string) (string, bool)
	DefaultSound() (string, bool)
}

// Resolver picks the greeting sound for a (user, channel) pair.
//
// Precedence is fixed: user sound, channel sound, default, random, none.
// A mapped sound that has since left the catalog falls through silently to
// the next rule.
type Resolver struct {
	prefs   Preferences
	catalog *Catalog
}

func NewResolver(prefs Preferences, catalog *Catalog) *Resolver {
	return &Resolver{prefs: prefs, catalog: catalog}
}

// Resolve returns the chosen sound name, or false when the catalog has
// nothing to offer.
func (r *Resolver) Resolve(userID, channelID string) (string, bool) {
	if name, ok := r.prefs.UserSound(userID); ok && r.catalog.Exists(name) {
		return name, true
	}
	if name, ok := r.prefs.ChannelSound(channelID); ok && r.catalog.Exists(name) {
		return name, true
	}
	if name, ok := r.prefs.DefaultSound(); ok && r.catalog.Exists(name) {
		return name, true
	}
	return r.catalog.Random()
}

// Random bypasses preference precedence entirely.
func (r *Resolver) Random() (string, bool) {
	return r.catalog.Random()
}

// Path returns the asset path for a resolved name.
func (r *Resolver) Path(name string) string {
	return r.catalog.Path(name)
}
