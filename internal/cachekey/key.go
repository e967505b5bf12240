// Package cachekey builds the structured keys cached view results are stored
// under. A key is entity kind + operation + a normalized parameter record;
// keys are comparable values so they can index maps directly, and a Prefix
// selects every key below a kind, a set of operations or a parameter subset.
package cachekey

import (
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Kind names the entity family a key belongs to.
type Kind string

const (
	KindClients      Kind = "clients"
	KindTechnicians  Kind = "technicians"
	KindTickets      Kind = "tickets"
	KindAppointments Kind = "appointments"
)

// Operation names the read performed for a key.
type Operation string

const (
	OpList       Operation = "list"
	OpDetail     Operation = "detail"
	OpSearch     Operation = "search"
	OpStatistics Operation = "statistics"
	OpAvailable  Operation = "available"
	OpWorkload   Operation = "workload"
	OpOverdue    Operation = "overdue"
	OpUnassigned Operation = "unassigned"
	OpUrgent     Operation = "urgent"
)

// ParamID is the parameter detail and workload keys carry.
const ParamID = "id"

// Params is the loose parameter bag callers build keys from. Nil, empty and
// nil-pointer values are dropped so an unset filter and an absent filter
// produce the same key.
type Params map[string]any

// Matcher selects cache keys. Both Key (exact) and Prefix implement it.
type Matcher interface {
	Matches(Key) bool
	String() string
}

// Key identifies one cached result.
type Key struct {
	kind   Kind
	op     Operation
	params string
}

// New builds a key. Parameter order never affects the result.
func New(kind Kind, op Operation, params Params) Key {
	return Key{kind: kind, op: op, params: encode(params).Encode()}
}

// Detail is the key of a single entity.
func Detail(kind Kind, id int64) Key {
	return New(kind, OpDetail, Params{ParamID: id})
}

func (k Key) Kind() Kind { return k.kind }
func (k Key) Operation() Operation { return k.op }

// IsZero reports whether k was never built.
func (k Key) IsZero() bool { return k.kind == "" }

// Param returns a normalized parameter value.
func (k Key) Param(name string) (string, bool) {
	values := k.values()
	if _, ok := values[name]; !ok {
		return "", false
	}
	return values.Get(name), true
}

// Matches is exact equality.
func (k Key) Matches(other Key) bool { return k == other }

func (k Key) String() string {
	if k.params == "" {
		return string(k.kind) + "/" + string(k.op)
	}
	return string(k.kind) + "/" + string(k.op) + "?" + k.params
}

func (k Key) values() url.Values {
	if k.params == "" {
		return url.Values{}
	}
	values, err := url.ParseQuery(k.params)
	if err != nil {
		return url.Values{}
	}
	return values
}

// Prefix is a partial key: a kind, optionally narrowed to some operations
// and to keys whose parameters contain a given subset.
type Prefix struct {
	kind   Kind
	ops    []Operation
	params url.Values
}

// All selects every key of kind.
func All(kind Kind) Prefix {
	return Prefix{kind: kind}
}

// Ops narrows the prefix to the listed operations.
func (p Prefix) Ops(ops ...Operation) Prefix {
	next := p.clone()
	next.ops = append(next.ops, ops...)
	return next
}

// Where narrows the prefix to keys carrying name=value.
func (p Prefix) Where(name string, value any) Prefix {
	next := p.clone()
	if s, ok := normalize(value); ok {
		next.params.Set(name, s)
	}
	return next
}

// Matches reports whether key falls under the prefix.
func (p Prefix) Matches(key Key) bool {
	if key.kind != p.kind {
		return false
	}
	if len(p.ops) > 0 && !slices.Contains(p.ops, key.op) {
		return false
	}
	if len(p.params) == 0 {
		return true
	}
	values := key.values()
	for name := range p.params {
		got, ok := values[name]
		if !ok || len(got) == 0 || got[0] != p.params.Get(name) {
			return false
		}
	}
	return true
}

func (p Prefix) String() string {
	var b strings.Builder
	b.WriteString(string(p.kind))
	if len(p.ops) > 0 {
		ops := make([]string, len(p.ops))
		for i, op := range p.ops {
			ops[i] = string(op)
		}
		b.WriteString("/{" + strings.Join(ops, ",") + "}")
	} else {
		b.WriteString("/*")
	}
	if len(p.params) > 0 {
		b.WriteString("?" + p.params.Encode())
	}
	return b.String()
}

func (p Prefix) clone() Prefix {
	next := Prefix{kind: p.kind, ops: slices.Clone(p.ops), params: url.Values{}}
	for name, vals := range p.params {
		next.params[name] = slices.Clone(vals)
	}
	return next
}

func encode(params Params) url.Values {
	values := url.Values{}
	for name, value := range params {
		if s, ok := normalize(value); ok {
			values.Set(name, s)
		}
	}
	return values
}

func normalize(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case *string:
		if v == nil {
			return "", false
		}
		return normalize(*v)
	case int:
		return strconv.Itoa(v), true
	case *int:
		if v == nil {
			return "", false
		}
		return strconv.Itoa(*v), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case *int64:
		if v == nil {
			return "", false
		}
		return strconv.FormatInt(*v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case bool:
		return strconv.FormatBool(v), true
	case *bool:
		if v == nil {
			return "", false
		}
		return strconv.FormatBool(*v), true
	case time.Time:
		if v.IsZero() {
			return "", false
		}
		return v.UTC().Format(time.RFC3339Nano), true
	case *time.Time:
		if v == nil {
			return "", false
		}
		return normalize(*v)
	case []string:
		if len(v) == 0 {
			return "", false
		}
		sorted := slices.Clone(v)
		slices.Sort(sorted)
		return strings.Join(sorted, ","), true
	default:
		// pointers to anything else are dereferenced, never printed
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return "", false
			}
			return normalize(rv.Elem().Interface())
		}
		if stringer, ok := v.(fmt.Stringer); ok {
			return normalize(stringer.String())
		}
		s := fmt.Sprint(v)
		return s, s != ""
	}
}
