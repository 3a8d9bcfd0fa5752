package credentials

import "fmt"

// Rotate calls attempt with the pool's current credential. While attempt
// fails with an error for which rotatable reports true, the cursor advances
// and attempt runs again with the next credential. When no credential is
// left the result wraps both ErrExhausted and the last failure. Any other
// outcome of attempt is returned as is. The returned count is the number of
// times the cursor moved.
func Rotate(pool *Pool, rotatable func(error) bool, attempt func(credential string) error) (int, error) {
	rotations := 0
	for {
		credential, err := pool.Current()
		if err != nil {
			return rotations, err
		}

		err = attempt(credential)
		if err == nil || !rotatable(err) {
			return rotations, err
		}

		if advErr := pool.Advance(); advErr != nil {
			return rotations, fmt.Errorf("%w: %w", advErr, err)
		}
		rotations++
	}
}
