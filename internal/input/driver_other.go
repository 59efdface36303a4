//go:build !windows && !linux && !darwin

package input

var libraryCandidates []string

func openLibrary(string) (Driver, error) { return nil, ErrNoDriver }
