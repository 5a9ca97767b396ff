// Package tools exposes the fixed palette of actions the chat model may call.
//
// Every tool has a typed request struct that is decoded from the model's
// JSON arguments and validated before any business logic runs. Results are
// human-readable reply strings the model relays to the customer.
//
// Failure contract:
//   - malformed or invalid arguments resolve to a "❌ 参数错误" string;
//   - logical not-found resolves to a descriptive "⚠️" string;
//   - storage and infrastructure failures are returned as Go errors.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Spec describes one tool to the model.
type Spec struct {
	Name        string
	Description string
	// Parameters is a JSON Schema object.
	Parameters map[string]any
}

// Handler executes a tool with raw JSON arguments.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Registry maps tool names to specs and handlers.
type Registry struct {
	specs    []Spec
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register adds a tool. Registering the same name twice panics.
func (r *Registry) Register(s Spec, h Handler) {
	if _, dup := r.handlers[s.Name]; dup {
		panic("tools: duplicate tool " + s.Name)
	}
	r.specs = append(r.specs, s)
	r.handlers[s.Name] = h
}

// Specs returns the registered tool specs in registration order.
func (r *Registry) Specs() []Spec {
	out := make([]Spec, len(r.specs))
	copy(out, r.specs)
	return out
}

// Names returns the sorted tool names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.handlers))
	for n := range r.handlers {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Call runs the named tool. An unknown name yields a reply string, not an
// error, so the model can correct itself.
func (r *Registry) Call(ctx context.Context, name, args string) (string, error) {
	h, ok := r.handlers[name]
	if !ok {
		return fmt.Sprintf("❌ 未知工具：%s", name), nil
	}
	raw := json.RawMessage(strings.TrimSpace(args))
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return h(ctx, raw)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Money fields validate as numbers (gt=0, gte=0).
	v.RegisterCustomTypeFunc(func(v reflect.Value) any {
		d, ok := v.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})
	return v
}

// errBadArgs marks a decode/validation failure; its message is shown to
// the model.
type errBadArgs struct{ msg string }

func (e errBadArgs) Error() string { return e.msg }

// bind decodes raw into dst and validates it.
func bind(raw json.RawMessage, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return errBadArgs{msg: "参数不是合法的 JSON 对象"}
	}
	if err := validate.Struct(dst); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			parts := make([]string, 0, len(ves))
			for _, fe := range ves {
				parts = append(parts, describe(fe))
			}
			return errBadArgs{msg: strings.Join(parts, "；")}
		}
		return errBadArgs{msg: err.Error()}
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " 不能为空"
	case "gt":
		return fe.Field() + " 必须大于 " + fe.Param()
	case "gte":
		return fe.Field() + " 不能小于 " + fe.Param()
	case "max":
		return fe.Field() + " 过长（最多 " + fe.Param() + "）"
	case "oneof":
		return fe.Field() + " 必须是以下之一：" + fe.Param()
	default:
		return fe.Field() + " 无效（" + fe.Tag() + "）"
	}
}

func badArgs(err error) string {
	return "❌ 参数错误：" + err.Error()
}

// typed adapts a handler over a request struct into a Handler.
func typed[T any](fn func(ctx context.Context, req T) (string, error)) Handler {
	return func(ctx context.Context, raw json.RawMessage) (string, error) {
		var req T
		if err := bind(raw, &req); err != nil {
			return badArgs(err), nil
		}
		return fn(ctx, req)
	}
}
