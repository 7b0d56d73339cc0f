package gormrepos

import (
	"context"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"

	"github.com/pioneiros/colina/core"
	"github.com/pioneiros/colina/core/user"
)

// UserRow is the usuarios table. Email and last_login are nullable.
type UserRow struct {
	ID         int         `gorm:"primaryKey"`
	Login      string      `gorm:"column:login;not null;uniqueIndex"`
	Password   []byte      `gorm:"column:senha;not null"`
	Permission string      `gorm:"column:permissao;not null"`
	SGC        string      `gorm:"column:codigo_sgc;not null;uniqueIndex"`
	Email      null.String `gorm:"column:email;type:varchar(254)"`
	LastLogin  null.Time   `gorm:"column:last_login;type:datetime"`
}

func (UserRow) TableName() string { return "usuarios" }

var userOrdering = map[string]string{
	"id":         "id",
	"login":      "login",
	"permission": "permissao",
	"sgc_code":   "codigo_sgc",
	"last_login": "last_login",
}

type userRepository struct {
	db *gorm.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) UserRow {
	return UserRow{
		ID:         usr.ID,
		Login:      usr.Login,
		Password:   usr.PasswordHash,
		Permission: usr.Permission,
		SGC:        usr.SGC,
		Email:      null.NewString(usr.Email, usr.Email != ""),
		LastLogin:  null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (repo userRepository) fromRow(row UserRow) user.User {
	usr := user.User{
		ID:           row.ID,
		Login:        row.Login,
		Email:        row.Email.String,
		Permission:   row.Permission,
		SGC:          row.SGC,
		PasswordHash: row.Password,
	}
	if row.LastLogin.Valid {
		usr.LastLogin = row.LastLogin.Time.UTC()
	}
	return usr
}

func (repo userRepository) CheckUniqueness(ctx context.Context, login, sgc string, excludedID int) error {
	var rows []UserRow
	q := repo.db.WithContext(ctx).Where("login = ? OR codigo_sgc = ?", login, sgc)
	if excludedID > 0 {
		q = q.Where("id <> ?", excludedID)
	}
	if err := q.Find(&rows).Error; err != nil {
		return wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if row.Login == login {
			return user.ErrLoginExists
		}
	}
	if len(rows) > 0 {
		return user.ErrSGCExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	row.ID = 0
	if err := repo.db.WithContext(ctx).Create(&row).Error; err != nil {
		return user.User{}, wrap(err, "inserting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, ordering []core.DBOrdering) ([]user.User, error) {
	var rows []UserRow
	err := repo.db.WithContext(ctx).
		Order(core.OrderClause(ordering, userOrdering, "login ASC")).
		Find(&rows).Error
	if err != nil {
		return nil, wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	q := repo.db.WithContext(ctx)
	switch {
	case filter.ID > 0:
		q = q.Where("id = ?", filter.ID)
	case filter.Login != "":
		q = q.Where("login = ?", filter.Login)
	case filter.SGC != "":
		q = q.Where("codigo_sgc = ?", filter.SGC)
	case filter.Email != "":
		q = q.Where("email = ?", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row UserRow
	if err := q.First(&row).Error; err != nil {
		return user.User{}, trapNotFound(err, user.ErrNotFound, "finding user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	res := repo.db.WithContext(ctx).Model(&UserRow{ID: row.ID}).Select("*").Omit("id").Updates(&row)
	if err := mustAffect(res, user.ErrNotFound, "updating user"); err != nil {
		return user.User{}, err
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id int) error {
	res := repo.db.WithContext(ctx).Delete(&UserRow{}, id)
	return mustAffect(res, user.ErrNotFound, "deleting user")
}
