package models

type User struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
