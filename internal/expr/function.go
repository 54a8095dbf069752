package expr

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// ErrUnknownFunction is returned when calling a function that doesn't exist.
var ErrUnknownFunction = errors.New("unknown function")

// A Function is a scalar function usable in row expressions.
type Function struct {
	Name    string
	MinArgs int
	// MaxArgs is -1 for variadic functions.
	MaxArgs int
	// ReturnType computes the result type from the argument types.
	ReturnType func(args []types.Type) (types.Type, error)
	// Call is only invoked with the right number of arguments.
	Call func(args []types.Value) (types.Value, error)
}

// Call is a function call expression.
type Call struct {
	Fn   *Function
	Args []Expr
}

// NewCall looks up the named function and checks the number of arguments.
func NewCall(name string, args ...Expr) (*Call, error) {
	fn, ok := builtins[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownFunction, "%s()", name)
	}

	if len(args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(args) > fn.MaxArgs) {
		return nil, errors.Newf("%s() takes %s, got %d", name, arity(fn), len(args))
	}

	return &Call{Fn: fn, Args: args}, nil
}

func arity(fn *Function) string {
	switch {
	case fn.MaxArgs < 0:
		return fmt.Sprintf("at least %d arguments", fn.MinArgs)
	case fn.MinArgs == fn.MaxArgs:
		return fmt.Sprintf("%d arguments", fn.MinArgs)
	}
	return fmt.Sprintf("%d to %d arguments", fn.MinArgs, fn.MaxArgs)
}

// Functions returns the names of the builtin functions, sorted.
func Functions() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Call) Eval(r row.Row) (types.Value, error) {
	args := make([]types.Value, len(c.Args))
	for i, a := range c.Args {
		v, err := a.Eval(r)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	v, err := c.Fn.Call(args)
	if err != nil {
		return nil, errors.Wrapf(err, "%s()", c.Fn.Name)
	}
	return v, nil
}

func (c *Call) Type(s *dataset.Schema) (types.Type, error) {
	argTypes := make([]types.Type, len(c.Args))
	for i, a := range c.Args {
		t, err := a.Type(s)
		if err != nil {
			return types.TypeAny, err
		}
		argTypes[i] = t
	}

	t, err := c.Fn.ReturnType(argTypes)
	if err != nil {
		return types.TypeAny, errors.Wrapf(err, "%s", c)
	}
	return t, nil
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	return c.Fn.Name + "(" + strings.Join(args, ", ") + ")"
}

var builtins = map[string]*Function{}

func register(fn *Function) {
	builtins[fn.Name] = fn
}

func init() {
	register(&Function{Name: "is_na", MinArgs: 1, MaxArgs: 1,
		ReturnType: returns(types.TypeBoolean),
		Call: func(args []types.Value) (types.Value, error) {
			return types.NewBooleanValue(types.IsNull(args[0])), nil
		},
	})

	register(&Function{Name: "abs", MinArgs: 1, MaxArgs: 1,
		ReturnType: numericPreserving,
		Call: numeric1(func(x int64) int64 {
			if x < 0 {
				return -x
			}
			return x
		}, math.Abs),
	})

	for name, fn := range map[string]func(float64) float64{
		"sqrt": math.Sqrt,
		"exp":  math.Exp,
	} {
		register(&Function{Name: name, MinArgs: 1, MaxArgs: 1,
			ReturnType: numericToDouble,
			Call:       double1(fn),
		})
	}

	register(&Function{Name: "log", MinArgs: 1, MaxArgs: 2,
		ReturnType: numericToDouble,
		Call: func(args []types.Value) (types.Value, error) {
			if anyNull(args) {
				return types.NewNullValue(), nil
			}
			if err := requireNumeric(args...); err != nil {
				return nil, err
			}
			x := math.Log(types.AsFloat64(args[0]))
			if len(args) == 2 {
				x /= math.Log(types.AsFloat64(args[1]))
			}
			return types.NewDoubleValue(x), nil
		},
	})

	register(&Function{Name: "floor", MinArgs: 1, MaxArgs: 1,
		ReturnType: numericPreserving,
		Call:       numeric1(func(x int64) int64 { return x }, math.Floor),
	})

	register(&Function{Name: "ceiling", MinArgs: 1, MaxArgs: 1,
		ReturnType: numericPreserving,
		Call:       numeric1(func(x int64) int64 { return x }, math.Ceil),
	})

	// round uses the round half to even rule.
	register(&Function{Name: "round", MinArgs: 1, MaxArgs: 2,
		ReturnType: numericPreserving,
		Call: func(args []types.Value) (types.Value, error) {
			if anyNull(args) {
				return types.NewNullValue(), nil
			}
			if err := requireNumeric(args...); err != nil {
				return nil, err
			}
			digits := 0.0
			if len(args) == 2 {
				digits = math.Trunc(types.AsFloat64(args[1]))
			}
			if args[0].Type() == types.TypeInteger && digits >= 0 {
				return args[0], nil
			}
			if args[0].Type() == types.TypeBoolean {
				return types.NewIntegerValue(int64(types.AsFloat64(args[0]))), nil
			}
			scale := math.Pow(10, digits)
			return types.NewDoubleValue(math.RoundToEven(types.AsFloat64(args[0])*scale) / scale), nil
		},
	})

	register(&Function{Name: "if_else", MinArgs: 3, MaxArgs: 3,
		ReturnType: func(args []types.Type) (types.Type, error) {
			if args[0] != types.TypeBoolean && args[0] != types.TypeNull && args[0] != types.TypeAny {
				return types.TypeAny, errors.Wrapf(types.ErrTypeMismatch, "condition is %s, expected boolean", args[0])
			}
			return unify(args[1:])
		},
		Call: func(args []types.Value) (types.Value, error) {
			if types.IsNull(args[0]) {
				return types.NewNullValue(), nil
			}
			if args[0].Type() != types.TypeBoolean {
				return nil, errors.Wrapf(types.ErrTypeMismatch, "condition is %s, expected boolean", args[0].Type())
			}
			if types.AsBool(args[0]) {
				return args[1], nil
			}
			return args[2], nil
		},
	})

	register(&Function{Name: "coalesce", MinArgs: 1, MaxArgs: -1,
		ReturnType: unify,
		Call: func(args []types.Value) (types.Value, error) {
			for _, a := range args {
				if !types.IsNull(a) {
					return a, nil
				}
			}
			return types.NewNullValue(), nil
		},
	})

	register(&Function{Name: "between", MinArgs: 3, MaxArgs: 3,
		ReturnType: func(args []types.Type) (types.Type, error) {
			if !args[0].IsComparableWith(args[1]) || !args[0].IsComparableWith(args[2]) {
				return types.TypeAny, errors.Wrapf(types.ErrTypeMismatch, "cannot compare %s with %s and %s", args[0], args[1], args[2])
			}
			return types.TypeBoolean, nil
		},
		Call: func(args []types.Value) (types.Value, error) {
			if anyNull(args) {
				return types.NewNullValue(), nil
			}
			lo, err := types.Compare(args[0], args[1])
			if err != nil {
				return nil, err
			}
			hi, err := types.Compare(args[0], args[2])
			if err != nil {
				return nil, err
			}
			return types.NewBooleanValue(lo >= 0 && hi <= 0), nil
		},
	})

	register(&Function{Name: "lower", MinArgs: 1, MaxArgs: 1,
		ReturnType: textTo(types.TypeText),
		Call:       text1(func(s string) types.Value { return types.NewTextValue(strings.ToLower(s)) }),
	})
	register(&Function{Name: "upper", MinArgs: 1, MaxArgs: 1,
		ReturnType: textTo(types.TypeText),
		Call:       text1(func(s string) types.Value { return types.NewTextValue(strings.ToUpper(s)) }),
	})
	register(&Function{Name: "nchar", MinArgs: 1, MaxArgs: 1,
		ReturnType: textTo(types.TypeInteger),
		Call: text1(func(s string) types.Value {
			return types.NewIntegerValue(int64(utf8.RuneCountInString(s)))
		}),
	})

	for name, part := range map[string]func(v types.Value) int{
		"year":  func(v types.Value) int { return types.AsTime(v).Year() },
		"month": func(v types.Value) int { return int(types.AsTime(v).Month()) },
		"day":   func(v types.Value) int { return types.AsTime(v).Day() },
		"hour":  func(v types.Value) int { return types.AsTime(v).Hour() },
	} {
		register(&Function{Name: name, MinArgs: 1, MaxArgs: 1,
			ReturnType: func(args []types.Type) (types.Type, error) {
				if args[0] != types.TypeTimestamp && args[0] != types.TypeNull && args[0] != types.TypeAny {
					return types.TypeAny, errors.Wrapf(types.ErrTypeMismatch, "expected timestamp, got %s", args[0])
				}
				return types.TypeInteger, nil
			},
			Call: func(args []types.Value) (types.Value, error) {
				if types.IsNull(args[0]) {
					return types.NewNullValue(), nil
				}
				if args[0].Type() != types.TypeTimestamp {
					return nil, errors.Wrapf(types.ErrTypeMismatch, "expected timestamp, got %s", args[0].Type())
				}
				return types.NewIntegerValue(int64(part(args[0]))), nil
			},
		})
	}
}

func returns(t types.Type) func([]types.Type) (types.Type, error) {
	return func([]types.Type) (types.Type, error) { return t, nil }
}

func anyNull(args []types.Value) bool {
	for _, a := range args {
		if types.IsNull(a) {
			return true
		}
	}
	return false
}

func requireNumeric(args ...types.Value) error {
	for _, a := range args {
		switch a.Type() {
		case types.TypeInteger, types.TypeDouble, types.TypeBoolean:
		default:
			return errors.Wrapf(types.ErrTypeMismatch, "expected number, got %s", a.Type())
		}
	}
	return nil
}

func checkNumericTypes(args []types.Type) error {
	for _, t := range args {
		switch t {
		case types.TypeInteger, types.TypeDouble, types.TypeBoolean, types.TypeNull, types.TypeAny:
		default:
			return errors.Wrapf(types.ErrTypeMismatch, "expected number, got %s", t)
		}
	}
	return nil
}

func numericPreserving(args []types.Type) (types.Type, error) {
	if err := checkNumericTypes(args); err != nil {
		return types.TypeAny, err
	}
	if args[0] == types.TypeBoolean {
		return types.TypeInteger, nil
	}
	if len(args) > 1 && args[0] == types.TypeInteger {
		// round(x, digits) may produce decimals
		return types.TypeAny, nil
	}
	return args[0], nil
}

func numericToDouble(args []types.Type) (types.Type, error) {
	if err := checkNumericTypes(args); err != nil {
		return types.TypeAny, err
	}
	return types.TypeDouble, nil
}

// numeric1 applies fi to integers and booleans and ff to doubles.
func numeric1(fi func(int64) int64, ff func(float64) float64) func([]types.Value) (types.Value, error) {
	return func(args []types.Value) (types.Value, error) {
		if types.IsNull(args[0]) {
			return types.NewNullValue(), nil
		}
		if err := requireNumeric(args[0]); err != nil {
			return nil, err
		}
		if args[0].Type() == types.TypeDouble {
			return types.NewDoubleValue(ff(types.AsFloat64(args[0]))), nil
		}
		return types.NewIntegerValue(fi(int64(types.AsFloat64(args[0])))), nil
	}
}

func double1(fn func(float64) float64) func([]types.Value) (types.Value, error) {
	return func(args []types.Value) (types.Value, error) {
		if types.IsNull(args[0]) {
			return types.NewNullValue(), nil
		}
		if err := requireNumeric(args[0]); err != nil {
			return nil, err
		}
		return types.NewDoubleValue(fn(types.AsFloat64(args[0]))), nil
	}
}

func textTo(t types.Type) func([]types.Type) (types.Type, error) {
	return func(args []types.Type) (types.Type, error) {
		switch args[0] {
		case types.TypeText, types.TypeFactor, types.TypeNull, types.TypeAny:
			return t, nil
		}
		return types.TypeAny, errors.Wrapf(types.ErrTypeMismatch, "expected text, got %s", args[0])
	}
}

func text1(fn func(string) types.Value) func([]types.Value) (types.Value, error) {
	return func(args []types.Value) (types.Value, error) {
		if types.IsNull(args[0]) {
			return types.NewNullValue(), nil
		}
		switch args[0].Type() {
		case types.TypeText, types.TypeFactor:
			return fn(types.AsString(args[0])), nil
		}
		return nil, errors.Wrapf(types.ErrTypeMismatch, "expected text, got %s", args[0].Type())
	}
}

// unify returns the common type of the arguments, ignoring missing values.
func unify(args []types.Type) (types.Type, error) {
	t := types.TypeNull
	for _, a := range args {
		switch {
		case a == types.TypeNull:
		case a == types.TypeAny:
			return types.TypeAny, nil
		case t == types.TypeNull || t == a:
			t = a
		case t.IsNumber() && a.IsNumber():
			t = types.TypeDouble
		case (t == types.TypeText && a == types.TypeFactor) || (t == types.TypeFactor && a == types.TypeText):
			t = types.TypeText
		default:
			return types.TypeAny, errors.Wrapf(types.ErrTypeMismatch, "incompatible types %s and %s", t, a)
		}
	}
	return t, nil
}
