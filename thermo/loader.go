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

package thermo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/beaker"
	"github.com/spatialmodel/beaker/internal/hash"
)

// Read reads a database in the given format from r and builds its
// reaction network. name identifies the input in error messages.
func Read(r io.Reader, name, format string, o *beaker.Output) (*beaker.Network, error) {
	var db *Database
	var err error
	switch strings.ToLower(format) {
	case Simple:
		db, err = ReadSimple(r, name)
	case TOML:
		db, err = ReadTOML(r, name)
	default:
		return nil, &beaker.ConfigError{
			Op:  "database",
			Err: fmt.Errorf("invalid database format '%s'; valid options are '%s' and '%s'", format, Simple, TOML),
		}
	}
	if err != nil {
		return nil, err
	}
	return Build(db, o)
}

// ReadFile reads the database file at path. If format is empty it is
// chosen from the file extension: ".toml" files are TOML and anything
// else is the simple format.
func ReadFile(path, format string, o *beaker.Output) (*beaker.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &beaker.ConfigError{Op: "database", Err: err}
	}
	defer f.Close()
	return Read(f, path, FormatOf(path, format), o)
}

// FormatOf returns format, or the format implied by the extension of
// path if format is empty.
func FormatOf(path, format string) string {
	if format != "" {
		return format
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML
	}
	return Simple
}

// Loader loads reaction networks from database files. Each distinct file
// is read once: concurrent requests for the same file wait for a single
// read, and recently used networks are kept in memory. Because the
// returned networks are shared they must not be modified.
type Loader struct {
	cache *requestcache.Cache
}

// loadKey identifies a read: the file contents are hashed alongside it.
type loadKey struct {
	path, format string
}

type loadRequest struct {
	loadKey
	o *beaker.Output
}

// loadResult carries read errors through the cache as data, so that
// requests waiting on a failed read are released. A failure is kept like
// a network, until the file contents change.
type loadResult struct {
	net *beaker.Network
	err error
}

// NewLoader returns a loader that keeps up to cacheSize networks in
// memory.
func NewLoader(cacheSize int) *Loader {
	l := new(Loader)
	l.cache = requestcache.NewCache(l.load, runtime.GOMAXPROCS(-1),
		requestcache.Deduplicate(), requestcache.Memory(cacheSize))
	return l
}

func (l *Loader) load(ctx context.Context, request interface{}) (interface{}, error) {
	r := request.(loadRequest)
	r.o.Printf(beaker.Verbose, "thermo: reading %s database %s", r.format, r.path)
	net, err := ReadFile(r.path, r.format, r.o)
	return loadResult{net: net, err: err}, nil
}

// Load returns the reaction network in the database file at path. format
// is chosen as in ReadFile. Diagnostics from reading the file go to o. The
// cache key includes the file contents, so a file that changes is read
// again.
func (l *Loader) Load(ctx context.Context, path, format string, o *beaker.Output) (*beaker.Network, error) {
	k := loadKey{path: path, format: strings.ToLower(FormatOf(path, format))}
	contents, err := hash.File(path)
	if err != nil {
		return nil, &beaker.ConfigError{Op: "database", Err: err}
	}
	result, err := l.cache.NewRequest(ctx, loadRequest{loadKey: k, o: o}, hash.Key(contents, k)).Result()
	if err != nil {
		return nil, err
	}
	r := result.(loadResult)
	return r.net, r.err
}
