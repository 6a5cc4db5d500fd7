/*
Copyright © 2019 the Beaker authors.
This file is part of Beaker.

Beaker is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Beaker is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Beaker.  If not, see <http://www.gnu.org/licenses/>.
*/

package beaker

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigError.
var ErrConfiguration = errors.New("beaker: configuration error")

// ErrNumericalDomain is returned when a free-ion concentration or a
// kinetic rate is no longer a positive finite number. It indicates a
// defect in the model setup or database rather than a transient
// condition, so callers should not retry.
var ErrNumericalDomain = errors.New("beaker: free-ion concentration outside of the numerical domain")

// ConfigError is a fatal problem with the chemistry setup, such as an
// empty total concentration array, an unknown activity model or rate
// law, or a malformed database entry.
type ConfigError struct {
	Op  string // operation that failed, e.g. "setup" or "database"
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("beaker: %s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Is reports whether target is ErrConfiguration.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

func configErrorf(op, format string, args ...interface{}) error {
	return &ConfigError{Op: op, Err: fmt.Errorf(format, args...)}
}
