package Models

import (
	"errors"

	"gorm.io/gorm"
)

// Permission levels checked by middleware.Verify.
const (
	PermissionWorker  = 1
	PermissionManager = 3
	PermissionAdmin   = 4
)

// User is one actor on a tenant's roster. The bcrypt password backs the
// cookie session; the short numeric PIN is the per-action credential used
// on shared devices.
type User struct {
	Id         uint   `json:"id" gorm:"primaryKey"`
	TenantID   uint   `json:"tenant_id" gorm:"index;not null"`
	Name       string `json:"name"`
	Email      string `json:"email" gorm:"index"`
	Password   []byte `json:"-"`
	Pin        string `json:"-" gorm:"type:varchar(8)"` // 4-8 digits per policy
	Permission int    `json:"permission"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`
}

// SetupUserIndexes enforces email uniqueness for login accounts only.
// PIN-only roster entries never log in and carry no email, and empty
// strings are equal under a plain unique index, so the index is scoped to
// non-empty emails.
func SetupUserIndexes(db *gorm.DB) error {
	return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email) WHERE email <> ''").Error
}

// ValidatePin looks up the active actor registered with exactly this PIN in
// the tenant's roster. A wrong PIN returns (nil, nil): it is an expected
// outcome, distinct from a storage failure. Callers re-validate on every
// completion and every signoff; a shared device means the next action may
// belong to a different worker, so a past validation is never reused.
func ValidatePin(db *gorm.DB, tenantID uint, pin string) (*User, error) {
	if pin == "" {
		return nil, nil
	}
	var user User
	err := db.Where("tenant_id = ? AND pin = ? AND is_active = ?", tenantID, pin, true).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
