package account

import (
	"crypto/sha256"
	"encoding/hex"

	"pms/authority"
	"pms/bizerror"
	"pms/idgen"
	"pms/persistence"
	"pms/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

var (
	userIdWorker = sonyflake.NewSonyflake(sonyflake.Settings{})

	LoadPermFunc = LoadPerms
)

func HashSha256(raw string) string {
	h := sha256.New()
	h.Write([]byte(raw))
	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}

// LoadPerms resolve the permission set of a user from the default role.
// The admin account carries the system admin permission besides its role.
func LoadPerms(userId types.ID) authority.Permissions {
	perms := authority.Permissions{}
	user := User{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Where(&User{ID: userId}).First(&user).Error; err != nil {
		return perms
	}
	if user.Name == "admin" {
		perms = append(perms, SystemAdminPermission.ID)
	}
	if user.DefaultRoleID != 0 {
		role := Role{}
		if err := db.Where(&Role{ID: user.DefaultRoleID}).First(&role).Error; err == nil {
			perms = append(perms, role.Name)
		}
	}
	return perms
}

func QueryUsers(sec *session.Context) (*[]UserInfo, error) {
	var users []UserInfo
	if err := persistence.ActiveDataSourceManager.GormDB().Model(&User{}).Scan(&users).Error; err != nil {
		return nil, err
	}
	return &users, nil
}

func CreateUser(c *UserCreation, sec *session.Context) (*UserInfo, error) {
	if !sec.Perms.HasRole(SystemAdminPermission.ID) {
		return nil, bizerror.ErrForbidden
	}

	user := User{ID: idgen.NextID(userIdWorker), Name: c.Name, Nickname: c.Nickname,
		Secret: HashSha256(c.Secret), DefaultRoleID: c.DefaultRoleID}
	if err := persistence.ActiveDataSourceManager.GormDB().Save(&user).Error; err != nil {
		return nil, err
	}
	return &UserInfo{ID: user.ID, Name: user.Name, Nickname: user.Nickname, DefaultRoleID: user.DefaultRoleID}, nil
}

func UpdateBasicAuthSecret(u *BasicAuthUpdating, sec *session.Context) error {
	user := User{}
	db := persistence.ActiveDataSourceManager.GormDB()
	if err := db.Model(&User{}).Where(&User{ID: sec.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).Scan(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return bizerror.ErrInvalidPassword
		}
		return err
	}

	return db.Model(&User{}).Where(&User{ID: sec.Identity.ID, Secret: HashSha256(u.OriginalSecret)}).
		Update(&User{Secret: HashSha256(u.NewSecret)}).Error
}

func QueryAccountNames(ids []types.ID) (map[types.ID]string, error) {
	if len(ids) == 0 {
		return map[types.ID]string{}, nil
	}
	db := persistence.ActiveDataSourceManager.GormDB()
	var records []UserInfo
	if err := db.Model(&User{}).Where("id IN (?)", ids).Scan(&records).Error; err != nil {
		return nil, err
	}
	result := map[types.ID]string{}
	for _, r := range records {
		result[r.ID] = r.DisplayName()
	}
	return result, nil
}

// EnsureAdminUser seed the admin account on first start. The initial secret
// comes from ADMIN_SECRET, with a development default.
func EnsureAdminUser(tx *gorm.DB, initialSecret string) error {
	user := User{}
	err := tx.Where(&User{Name: "admin"}).First(&user).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}
	user = User{ID: idgen.NextID(userIdWorker), Name: "admin", Nickname: "Administrator",
		Secret: HashSha256(initialSecret)}
	return tx.Create(&user).Error
}

// EnsureRole create the named role when absent and return it.
func EnsureRole(tx *gorm.DB, name, description string) (*Role, error) {
	role := Role{}
	err := tx.Where(&Role{Name: name}).First(&role).Error
	if err == nil {
		return &role, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	role = Role{ID: idgen.NextID(userIdWorker), Name: name, Description: description, IsSystemRole: true}
	if err := tx.Create(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}
