package franchise

// Admin is a user holding a franchisee grant on a franchise.
type Admin struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Store is a franchise location. TotalRevenue is derived from order-item
// prices and only populated in the detailed view.
type Store struct {
	ID           int64   `json:"id"`
	FranchiseID  int64   `json:"franchiseId,omitempty"`
	Name         string  `json:"name"`
	TotalRevenue float64 `json:"totalRevenue"`
}

// StoreSummary is the public view of a store.
type StoreSummary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Franchise is the detailed (admin) view: owners and store revenue resolved.
type Franchise struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Admins []Admin `json:"admins"`
	Stores []Store `json:"stores"`
}

// Summary is the public view: id, name, and store names only.
type Summary struct {
	ID     int64          `json:"id"`
	Name   string         `json:"name"`
	Stores []StoreSummary `json:"stores"`
}

// NewFranchise carries the fields needed to create a franchise. AdminEmails
// must each resolve to an existing user.
type NewFranchise struct {
	Name        string   `json:"name"`
	AdminEmails []string `json:"-"`
}
