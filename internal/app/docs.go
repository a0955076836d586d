package app

// Version is stamped by the build; "dev" otherwise.
var Version = "dev"

// Endpoint documents one API operation for the /api/docs catalog.
type Endpoint struct {
	Method       string `json:"method"`
	Path         string `json:"path"`
	RequiresAuth bool   `json:"requiresAuth,omitempty"`
	Description  string `json:"description"`
}

func apiEndpoints() []Endpoint {
	return []Endpoint{
		{Method: "POST", Path: "/api/auth", Description: "Register a new user"},
		{Method: "PUT", Path: "/api/auth", Description: "Login existing user"},
		{Method: "PUT", Path: "/api/auth/{userId}", RequiresAuth: true, Description: "Update user"},
		{Method: "DELETE", Path: "/api/auth", RequiresAuth: true, Description: "Logout a user"},
		{Method: "GET", Path: "/api/franchise", Description: "List all the franchises"},
		{Method: "GET", Path: "/api/franchise/{userId}", RequiresAuth: true, Description: "List a user's franchises"},
		{Method: "POST", Path: "/api/franchise", RequiresAuth: true, Description: "Create a new franchise"},
		{Method: "DELETE", Path: "/api/franchise/{franchiseId}", RequiresAuth: true, Description: "Delete a franchise"},
		{Method: "POST", Path: "/api/franchise/{franchiseId}/store", RequiresAuth: true, Description: "Create a new franchise store"},
		{Method: "DELETE", Path: "/api/franchise/{franchiseId}/store/{storeId}", RequiresAuth: true, Description: "Delete a store"},
		{Method: "GET", Path: "/api/order/menu", Description: "Get the menu"},
		{Method: "PUT", Path: "/api/order/menu", RequiresAuth: true, Description: "Add an item to the menu"},
		{Method: "GET", Path: "/api/order", RequiresAuth: true, Description: "Get the orders for the authenticated user"},
		{Method: "POST", Path: "/api/order", RequiresAuth: true, Description: "Create an order for the authenticated user"},
	}
}
