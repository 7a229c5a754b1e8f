package user

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/classroom/core"
)

// Role is one of RoleStudent or RoleTeacher.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

var Roles = []Role{RoleStudent, RoleTeacher}

// ParseRole returns the Role matching s, or false when s is not a recognized role.
func ParseRole(s string) (Role, bool) {
	r := Role(core.CleanString(s, true /* lower */))
	for _, role := range Roles {
		if r == role {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string { return string(r) }

type User struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Role         Role   `json:"role"`
	PasswordHash []byte `json:"-"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to register a new User.
type NewUser struct {
	Email           string `json:"email" validate:"required,max=255,email"`
	FullName        string `json:"full_name" validate:"max=100"`
	Password        string `json:"password" validate:"required,bcrypt"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=student teacher"`
}

func (nu *NewUser) Clean() {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FullName = core.CleanString(nu.FullName)
	nu.Role = core.CleanString(nu.Role, true /* lower */)
}

// UpdateSettings defines what a User may change on their own profile.
type UpdateSettings struct {
	FullName string `json:"full_name" validate:"notblank,max=100"`
}

func (us *UpdateSettings) Clean() {
	us.FullName = core.CleanString(us.FullName)
}

// LoginRequest holds the credentials checked by Service.Authenticate.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (lr *LoginRequest) Clean() {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
}

type resetPassword struct {
	Password string `json:"password" validate:"required,bcrypt"`
}
