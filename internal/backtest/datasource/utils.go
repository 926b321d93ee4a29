package datasource

import (
	"github.com/alphabench-lab/alphabench/pkg/errors"
)

func newNoDataError(symbol string) error {
	return errors.Newf(errors.ErrCodeNoDataFound, "no data found for symbol %s", symbol)
}
