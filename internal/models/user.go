package models

// Credential is one login pair read from the environment. Password holds
// either a plain secret or a bcrypt digest.
type Credential struct {
	Username string
	Password string
	Source   string
}
