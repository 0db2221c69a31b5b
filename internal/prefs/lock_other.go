//go:build !unix && !windows

package prefs

// lockFile is a no-op where no advisory locking is available; the
// in-process mutex still serialises access.
func lockFile(string, bool) (func(), error) {
	return func() {}, nil
}
