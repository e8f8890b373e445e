package Models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinOnlyRosterEntriesCoexistWithoutEmail(t *testing.T) {
	db := testDB(t)

	// Shared-kiosk workers are registered with a PIN only and never log in.
	require.NoError(t, db.Create(&User{TenantID: 1, Name: "Dana R.", Pin: "4321", Permission: PermissionWorker, IsActive: true}).Error)
	require.NoError(t, db.Create(&User{TenantID: 1, Name: "Sam K.", Pin: "9876", Permission: PermissionWorker, IsActive: true}).Error)
	require.NoError(t, db.Create(&User{TenantID: 2, Name: "Lee P.", Pin: "4321", Permission: PermissionWorker, IsActive: true}).Error)

	var count int64
	db.Model(&User{}).Where("email = ''").Count(&count)
	assert.EqualValues(t, 3, count)
}

func TestLoginEmailMustBeUnique(t *testing.T) {
	db := testDB(t)

	require.NoError(t, db.Create(&User{TenantID: 1, Name: "Manager", Email: "manager@shiftcheck.test", Permission: PermissionManager, IsActive: true}).Error)

	err := db.Create(&User{TenantID: 1, Name: "Impostor", Email: "manager@shiftcheck.test", Permission: PermissionWorker, IsActive: true}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	// Another login account with a different email is fine.
	require.NoError(t, db.Create(&User{TenantID: 1, Name: "Admin", Email: "admin@shiftcheck.test", Permission: PermissionAdmin, IsActive: true}).Error)
}
