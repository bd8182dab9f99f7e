//go:build !darwin && !linux && !windows

package clip

func newSystem() (Backend, error) {
	return nil, &AccessError{Op: "init", Backend: "system", Err: ErrUnavailable}
}
