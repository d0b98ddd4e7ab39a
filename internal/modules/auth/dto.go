package auth

// LoginDTO is the login request body.
type LoginDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterDTO creates the owner account.
type RegisterDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
}

// LoginResponse is returned by login and logout.
type LoginResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
