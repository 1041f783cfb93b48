package domain

const MaxFieldLength = 100

type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Password string `json:"-"`
	Fullname string `json:"fullname"`
	RoleID   int64  `json:"role_id"`
}

type UpsertUser struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
	RoleID   int64  `json:"role_id"`
}

func (u *UpsertUser) Validate() error {
	if u.Email == "" || u.Password == "" || u.Fullname == "" || u.RoleID == 0 {
		return ErrMissingField
	}

	if len(u.Email) > MaxFieldLength || len(u.Password) > MaxFieldLength || len(u.Fullname) > MaxFieldLength {
		return ErrFieldTooLong
	}

	return nil
}

type UserRepository interface {
	FindByID(id int64) (*User, error)
	FindByEmail(email string) (*User, error)
	Create(user *User) error
	Update(user *User) error
	Delete(id int64) error
}

type UserService interface {
	GetUserByID(id int64) (*User, error)
	GetUserByEmail(email string) (*User, error)
	CreateUser(input *UpsertUser) (*User, error)
	UpdateUser(id int64, input *UpsertUser) (*User, error)
	DeleteUser(id int64) error
}
