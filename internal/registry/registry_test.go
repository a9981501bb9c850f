package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/haasonsaas/mealplanner/internal/mealerr"
	"github.com/haasonsaas/mealplanner/internal/mealmodel"
)

func echoHandler(result mealmodel.ToolResult) Handler {
	return func(ctx context.Context, params map[string]any, authToken string) (mealmodel.ToolResult, error) {
		return result, nil
	}
}

func TestRegistry_LookupUnknown(t *testing.T) {
	r := New()
	_, err := r.Lookup("nope.nope")
	if !mealerr.Is(err, mealerr.KindUnknownTool) {
		t.Fatalf("Lookup() err = %v, want UnknownTool", err)
	}
}

func TestRegistry_RegisterAndDispatch(t *testing.T) {
	r := New()
	desc := mealmodel.ToolDescriptor{
		Name:   "inventory_service.get_inventory",
		Server: "inventory_service",
		Parameters: map[string]mealmodel.ParameterSpec{
			"user_id": {Required: true, Type: "string"},
		},
	}
	want := mealmodel.ToolResult{Success: true, Data: []string{"milk"}}
	if err := r.Register(desc, echoHandler(want)); err != nil {
		t.Fatalf("Register() = %v", err)
	}

	if !r.Has("inventory_service.get_inventory") {
		t.Fatal("Has() = false, want true")
	}

	got, err := r.Dispatch(context.Background(), "inventory_service.get_inventory", map[string]any{"user_id": "u1"}, "tok")
	if err != nil {
		t.Fatalf("Dispatch() err = %v", err)
	}
	if !got.Success {
		t.Fatalf("Dispatch() = %+v, want success", got)
	}
}

func TestRegistry_DispatchUnknown(t *testing.T) {
	r := New()
	_, err := r.Dispatch(context.Background(), "nope.nope", nil, "")
	var e *mealerr.Error
	if !errors.As(err, &e) || e.Kind != mealerr.KindUnknownTool {
		t.Fatalf("Dispatch() err = %v, want UnknownTool", err)
	}
}

func TestRegistry_ValidateSchema_MissingRequired(t *testing.T) {
	r := New()
	desc := mealmodel.ToolDescriptor{
		Name:   "inventory_service.add_inventory",
		Server: "inventory_service",
		Parameters: map[string]mealmodel.ParameterSpec{
			"item_name": {Required: true, Type: "string"},
			"quantity":  {Required: true, Type: "number"},
		},
	}
	if err := r.Register(desc, echoHandler(mealmodel.ToolResult{Success: true})); err != nil {
		t.Fatalf("Register() = %v", err)
	}

	if err := r.ValidateSchema("inventory_service.add_inventory", map[string]any{"item_name": "egg"}); err == nil {
		t.Fatal("ValidateSchema() = nil, want error for missing quantity")
	}

	if err := r.ValidateSchema("inventory_service.add_inventory", map[string]any{"item_name": "egg", "quantity": 4.0}); err != nil {
		t.Fatalf("ValidateSchema() = %v, want nil", err)
	}
}

func TestRegistry_SideEffectingUnknownDefaultsTrue(t *testing.T) {
	r := New()
	if !r.SideEffecting("nope.nope") {
		t.Fatal("SideEffecting() of unknown tool = false, want conservative true")
	}
}
