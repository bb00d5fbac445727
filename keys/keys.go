// Package keys derives comparable cache keys from call arguments.
//
// A key is a 64-bit xxhash digest over a canonical encoding of the
// argument list: positional arguments in call order followed by named
// arguments sorted by name. Values that cannot participate in a stable
// key (funcs, channels, unsafe pointers, cyclic structures) fail with
// an error wrapping ErrUnhashable.
//
// Collisions between distinct argument lists are possible in principle
// (the key is a digest, not the arguments themselves) but require an
// xxhash64 collision in practice.
package keys

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Key is an opaque, comparable cache key.
type Key uint64

// String renders the key as fixed-width hex, for logs and debugging.
func (k Key) String() string {
	return fmt.Sprintf("%016x", uint64(k))
}

// ErrUnhashable is wrapped by Encode when an argument cannot be used as
// part of a stable key. The returned error names the offending argument.
var ErrUnhashable = errors.New("unhashable argument")

// NamedArg is the keyword-argument rendition for Go call sites: any
// argument passed as Named(name, value) is order-independent and keyed
// by name. All other arguments are positional and order-dependent.
type NamedArg struct {
	Name  string
	Value any
}

// Named wraps a value as a named argument.
func Named(name string, v any) NamedArg { return NamedArg{Name: name, Value: v} }

// Codec encodes argument lists into keys.
//
// With Typed set, the concrete type of each top-level argument is mixed
// into the key, so Encode(3) and Encode(3.0) produce distinct keys.
// Without it, integral floating-point values encode identically to the
// equal integer, so int(3) and float64(3.0) share one key.
type Codec struct {
	Typed bool
}

// Encode derives the key for an argument list. Deterministic: equal
// argument lists (under the Typed rules above) always produce equal
// keys, regardless of the order named arguments appear in.
func (c Codec) Encode(args ...any) (Key, error) {
	d := xxhash.New()
	w := walker{}

	var named []NamedArg
	pos := 0
	for _, a := range args {
		if na, ok := a.(NamedArg); ok {
			named = append(named, na)
			continue
		}
		writeTag(d, 'p')
		if err := c.encodeArg(d, &w, a); err != nil {
			return 0, fmt.Errorf("keys: argument %d (%T): %w", pos, a, err)
		}
		pos++
	}

	sort.SliceStable(named, func(i, j int) bool { return named[i].Name < named[j].Name })
	for i, na := range named {
		if i > 0 && named[i-1].Name == na.Name {
			return 0, fmt.Errorf("keys: duplicate named argument %q: %w", na.Name, ErrUnhashable)
		}
		writeTag(d, 'k')
		writeString(d, na.Name)
		if err := c.encodeArg(d, &w, na.Value); err != nil {
			return 0, fmt.Errorf("keys: argument %q (%T): %w", na.Name, na.Value, err)
		}
	}
	return Key(d.Sum64()), nil
}

func (c Codec) encodeArg(d *xxhash.Digest, w *walker, v any) error {
	if c.Typed && v != nil {
		writeTag(d, 't')
		writeString(d, reflect.TypeOf(v).String())
	}
	return w.hash(d, reflect.ValueOf(v))
}

// walker recursively hashes a reflect.Value into a digest. It tracks
// visited pointers to reject cyclic structures instead of recursing
// forever. Unexported struct fields are read through reflect directly
// (never via Interface), so private state participates in the key.
type walker struct {
	visited map[uintptr]struct{}
}

func (w *walker) hash(d *xxhash.Digest, rv reflect.Value) error {
	if !rv.IsValid() {
		writeTag(d, 'n') // untyped nil
		return nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		writeTag(d, 'b')
		if rv.Bool() {
			writeTag(d, 1)
		} else {
			writeTag(d, 0)
		}
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		writeInt(d, rv.Int())
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			writeInt(d, int64(u)) // same encoding as the equal signed value
			return nil
		}
		writeTag(d, 'u')
		writeUint64(d, u)
		return nil

	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		// Integral floats collapse to the integer encoding so that,
		// in untyped mode, f(3) and f(3.0) share a cache entry.
		if i := int64(f); float64(i) == f {
			writeInt(d, i)
			return nil
		}
		writeTag(d, 'f')
		writeUint64(d, math.Float64bits(f))
		return nil

	case reflect.Complex64, reflect.Complex128:
		cv := rv.Complex()
		writeTag(d, 'c')
		writeUint64(d, math.Float64bits(real(cv)))
		writeUint64(d, math.Float64bits(imag(cv)))
		return nil

	case reflect.String:
		writeString(d, rv.String())
		return nil

	case reflect.Slice:
		if rv.IsNil() {
			writeTag(d, 'n')
			return nil
		}
		fallthrough
	case reflect.Array:
		writeTag(d, 'S')
		writeUint64(d, uint64(rv.Len()))
		for i := 0; i < rv.Len(); i++ {
			if err := w.hash(d, rv.Index(i)); err != nil {
				return err
			}
		}
		return nil

	case reflect.Map:
		if rv.IsNil() {
			writeTag(d, 'n')
			return nil
		}
		if err := w.enter(rv.Pointer()); err != nil {
			return err
		}
		defer w.leave(rv.Pointer())

		// Entries are hashed independently and XOR-combined so the key
		// does not depend on map iteration order.
		writeTag(d, 'M')
		writeUint64(d, uint64(rv.Len()))
		var acc uint64
		iter := rv.MapRange()
		for iter.Next() {
			sub := xxhash.New()
			if err := w.hash(sub, iter.Key()); err != nil {
				return err
			}
			if err := w.hash(sub, iter.Value()); err != nil {
				return err
			}
			acc ^= sub.Sum64()
		}
		writeUint64(d, acc)
		return nil

	case reflect.Pointer:
		if rv.IsNil() {
			writeTag(d, 'n')
			return nil
		}
		if err := w.enter(rv.Pointer()); err != nil {
			return err
		}
		defer w.leave(rv.Pointer())
		// Pointers hash by pointee, not identity: *T and T with equal
		// contents produce the same key.
		return w.hash(d, rv.Elem())

	case reflect.Interface:
		return w.hash(d, rv.Elem())

	case reflect.Struct:
		writeTag(d, 'T')
		t := rv.Type()
		writeUint64(d, uint64(t.NumField()))
		for i := 0; i < t.NumField(); i++ {
			writeString(d, t.Field(i).Name)
			if err := w.hash(d, rv.Field(i)); err != nil {
				return err
			}
		}
		return nil

	default: // Func, Chan, UnsafePointer
		return fmt.Errorf("%s value: %w", rv.Kind(), ErrUnhashable)
	}
}

func (w *walker) enter(p uintptr) error {
	if _, ok := w.visited[p]; ok {
		return fmt.Errorf("cyclic value: %w", ErrUnhashable)
	}
	if w.visited == nil {
		w.visited = make(map[uintptr]struct{})
	}
	w.visited[p] = struct{}{}
	return nil
}

func (w *walker) leave(p uintptr) { delete(w.visited, p) }

// -------------------- digest helpers --------------------

func writeTag(d *xxhash.Digest, b byte) {
	var buf [1]byte
	buf[0] = b
	_, _ = d.Write(buf[:])
}

func writeUint64(d *xxhash.Digest, u uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	_, _ = d.Write(buf[:])
}

func writeInt(d *xxhash.Digest, i int64) {
	writeTag(d, 'i')
	writeUint64(d, uint64(i))
}

func writeString(d *xxhash.Digest, s string) {
	writeTag(d, 's')
	writeUint64(d, uint64(len(s)))
	_, _ = d.WriteString(s)
}
