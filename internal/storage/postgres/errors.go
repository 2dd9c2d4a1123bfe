package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/sheikh-saqib/bookkeeping-approvals/internal/models"
)

// classify maps driver errors onto the engine's error taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == "42501": // insufficient_privilege, raised by row-level security
			return fmt.Errorf("%w: %s", models.ErrForbidden, pqErr.Message)
		case pqErr.Code.Class() == "08", pqErr.Code.Class() == "53", pqErr.Code.Class() == "57":
			return fmt.Errorf("%w: %s", models.ErrUnavailable, pqErr.Message)
		}
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
}
