package model

// User 用户表，对应 users
type User struct {
	ID           string `gorm:"type:varchar(36);primaryKey"          json:"id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex:uk_users_username" json:"username"`
	PasswordHash string `gorm:"type:varchar(100);not null"           json:"-"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }
