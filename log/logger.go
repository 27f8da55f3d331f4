// Copyright 2022-2026 The N42 Authors
// This file is part of the N42 library.
//
// The N42 library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The N42 library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the N42 library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
)

// Ctx is a convenience alternative to the variadic key/value pairs accepted
// by Info/Warn/etc: New(ctx.toArray()...) flattens it into the same shape.
type Ctx map[string]interface{}

// toArray flattens a Ctx into alternating key, value elements.
func (c Ctx) toArray() []interface{} {
	arr := make([]interface{}, 0, len(c)*2)
	for k, v := range c {
		arr = append(arr, k, v)
	}
	return arr
}

// normalize pads an odd-length context slice with a trailing nil value, so
// a caller that forgets a value still produces well-formed key/value pairs
// instead of panicking on the odd key out.
func normalize(ctx []interface{}) []interface{} {
	if len(ctx)%2 != 0 {
		ctx = append(ctx, nil)
	}
	return ctx
}

// logger is the concrete Logger: an accumulated context plus a pool of
// scratch field maps reused across write calls to keep logging
// allocation-light on the hot path.
type logger struct {
	ctx     []interface{}
	mapPool sync.Pool
}

func newLogger(ctx []interface{}) *logger {
	return &logger{
		ctx: ctx,
		mapPool: sync.Pool{
			New: func() any { return map[string]interface{}{} },
		},
	}
}

// New returns a new Logger whose context is this logger's context plus ctx.
func (l *logger) New(ctx ...interface{}) Logger {
	child := make([]interface{}, 0, len(l.ctx)+len(ctx))
	child = append(child, l.ctx...)
	child = append(child, normalize(ctx)...)
	return newLogger(child)
}

// fields borrows a scratch map from the pool; discard returns it, cleared.
func (l *logger) fields() (map[string]interface{}, func()) {
	v, _ := l.mapPool.Get().(map[string]interface{})
	if v == nil {
		v = make(map[string]interface{})
	}
	return v, func() {
		for k := range v {
			delete(v, k)
		}
		l.mapPool.Put(v)
	}
}

func (l *logger) write(msg string, lvl Lvl, ctx []interface{}, skip int) {
	fields, discard := l.fields()
	defer discard()

	all := normalize(ctx)
	full := make([]interface{}, 0, len(l.ctx)+len(all))
	full = append(full, l.ctx...)
	full = append(full, all...)
	for i := 0; i+1 < len(full); i += 2 {
		key, ok := full[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", full[i])
		}
		fields[key] = full[i+1]
	}

	entry := terminal.WithFields(fields)
	if _, file, line, ok := runtime.Caller(skip); ok {
		entry = entry.WithField("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
	}

	switch lvl {
	case LvlCrit, LvlFatal, LvlError:
		entry.Error(msg)
	case LvlWarn:
		entry.Warn(msg)
	case LvlInfo:
		entry.Info(msg)
	case LvlDebug:
		entry.Debug(msg)
	case LvlTrace:
		entry.Trace(msg)
	}
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.write(msg, LvlTrace, ctx, skipLevel) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.write(msg, LvlDebug, ctx, skipLevel) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.write(msg, LvlInfo, ctx, skipLevel) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.write(msg, LvlWarn, ctx, skipLevel) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.write(msg, LvlError, ctx, skipLevel) }

// Crit logs at LvlCrit and then calls osExit(1). Unlike the package-level
// Crit, which calls os.Exit(1), the default osExit panics.
func (l *logger) Crit(msg string, ctx ...interface{}) {
	l.write(msg, LvlCrit, ctx, skipLevel)
	osExit(1)
}

// osExit is the exit hook logger.Crit calls. It is a var so it can be
// replaced; the default panics with the exit code instead of calling os.Exit.
var osExit = func(code int) { panic(fmt.Sprintf("log: Crit called, exit code %d", code)) }
