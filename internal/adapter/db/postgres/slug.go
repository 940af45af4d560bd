package postgres

import (
	"fmt"
)

// uniqueSlug returns base, or base-2, base-3, ... until exists reports
// a free slug. The unique index on the table backs this up against races:
// a concurrent insert surfaces as a constraint error and the caller retries.
func uniqueSlug(base string, exists func(slug string) (bool, error)) (string, error) {
	candidate := base
	for i := 2; ; i++ {
		taken, err := exists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)

		if i > 1000 {
			return "", fmt.Errorf("could not find a free slug for %q", base)
		}
	}
}
