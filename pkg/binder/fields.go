package binder

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

var (
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
	errUnsupportedKind  = errors.New("unsupported field type")
)

// bindFields fills the fields of *v carrying tag from lookup. Untagged fields
// and fields tagged "-" are left alone, as are fields lookup has no value for.
func bindFields(v any, tag string, lookup func(name string) []string, bindErr error) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: target must be a pointer to struct", bindErr)
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := range rt.NumField() {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(sf.Tag.Get(tag), ",")
		if name == "" || name == "-" {
			continue
		}
		raw := lookup(name)
		if len(raw) == 0 {
			continue
		}
		if err := assign(rv.Field(i), raw); err != nil {
			return fmt.Errorf("%w: %s: %v", bindErr, name, err)
		}
	}
	return nil
}

// assign converts raw into dst. Slices accept repeated values as well as
// comma-separated ones; scalars use the first value.
func assign(dst reflect.Value, raw []string) error {
	if dst.Kind() == reflect.Pointer {
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), raw); err != nil {
			return err
		}
		dst.Set(elem)
		return nil
	}

	if reflect.PointerTo(dst.Type()).Implements(textUnmarshalerType) {
		u := dst.Addr().Interface().(encoding.TextUnmarshaler)
		if err := u.UnmarshalText([]byte(raw[0])); err != nil {
			return fmt.Errorf("invalid value %q: %w", raw[0], err)
		}
		return nil
	}

	if dst.Kind() == reflect.Slice {
		var items []string
		for _, v := range raw {
			for item := range strings.SplitSeq(v, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := assign(out.Index(i), []string{item}); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	}

	return assignScalar(dst, raw[0])
}

func assignScalar(dst reflect.Value, s string) error {
	switch dst.Kind() {
	case reflect.String:
		dst.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid bool %q", s)
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", s)
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(s, dst.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		dst.SetFloat(n)
	default:
		return fmt.Errorf("%w: %s", errUnsupportedKind, dst.Type())
	}
	return nil
}
