package handlers

import (
	"github.com/jsiebens/memberd/internal/errors"
)

func logError(err error) error {
	return errors.Wrap(err, 1)
}
