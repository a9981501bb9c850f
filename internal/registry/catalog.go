package registry

import "github.com/haasonsaas/mealplanner/internal/mealmodel"

// StandardDescriptors returns the static catalog of tools the planner
// is allowed to reference, grouped by owning server (spec.md §1, §4.1).
// Handlers are wired separately via Register; this only declares shape.
func StandardDescriptors() []mealmodel.ToolDescriptor {
	return []mealmodel.ToolDescriptor{
		{
			Name:   "inventory_service.get_inventory",
			Server: "inventory_service",
			Parameters: map[string]mealmodel.ParameterSpec{
				"user_id": {Required: true, Type: "string"},
			},
		},
		{
			Name:   "inventory_service.add_inventory",
			Server: "inventory_service",
			Parameters: map[string]mealmodel.ParameterSpec{
				"user_id":   {Required: true, Type: "string"},
				"item_name": {Required: true, Type: "string"},
				"quantity":  {Required: true, Type: "number"},
				"unit":      {Required: true, Type: "string"},
			},
			SideEffecting: true,
		},
		{
			Name:   "inventory_service.update_inventory",
			Server: "inventory_service",
			Parameters: map[string]mealmodel.ParameterSpec{
				"user_id":         {Required: true, Type: "string"},
				"item_identifier": {Required: true, Type: "string"},
				"updates":         {Required: true, Type: "object"},
				"strategy":        {Required: false, Type: "string"},
			},
			MayBeAmbiguous: true,
			SideEffecting:  true,
		},
		{
			Name:   "inventory_service.delete_inventory",
			Server: "inventory_service",
			Parameters: map[string]mealmodel.ParameterSpec{
				"user_id":         {Required: true, Type: "string"},
				"item_identifier": {Required: true, Type: "string"},
				"strategy":        {Required: false, Type: "string"},
			},
			MayBeAmbiguous: true,
			SideEffecting:  true,
		},
		{
			Name:   "proposal_service.generate_menu_plan",
			Server: "proposal_service",
			Parameters: map[string]mealmodel.ParameterSpec{
				"inventory":     {Required: true, Type: "array"},
				"menu_category": {Required: false, Type: "string"},
				"exclude":       {Required: false, Type: "array"},
			},
		},
		{
			Name:   "proposal_service.search_menu_from_rag",
			Server: "proposal_service",
			Parameters: map[string]mealmodel.ParameterSpec{
				"inventory":     {Required: true, Type: "array"},
				"menu_category": {Required: false, Type: "string"},
				"exclude":       {Required: false, Type: "array"},
			},
		},
		{
			Name:   "proposal_service.search_recipes_from_web",
			Server: "proposal_service",
			Parameters: map[string]mealmodel.ParameterSpec{
				"titles": {Required: true, Type: "array"},
			},
		},
		{
			Name:   "history_service.save_recipe",
			Server: "history_service",
			Parameters: map[string]mealmodel.ParameterSpec{
				"user_id": {Required: true, Type: "string"},
				"title":   {Required: true, Type: "string"},
				"source":  {Required: true, Type: "string"},
			},
			SideEffecting: true,
		},
	}
}
