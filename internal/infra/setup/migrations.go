package setup

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/jaanque/stanza/internal/domain"
)

// MigrateDB 执行数据库自动迁移，建出用户、房间和成员账本三张表。
// room_members 的 (room_id, user_id) 复合主键和 rooms.code 的唯一索引
// 都由模型标签声明，迁移时一并创建。
func MigrateDB(db *gorm.DB) error {
	logrus.Info("Running database migrations...")
	err := db.AutoMigrate(
		&domain.User{},
		&domain.Room{},
		&domain.Membership{},
	)
	if err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	logrus.Info("Database migrations completed")
	return nil
}
