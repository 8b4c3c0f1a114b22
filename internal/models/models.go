package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`

	Posts []Post `gorm:"foreignKey:AuthorID" json:"-"`
}

type Post struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null"                 json:"title"`
	Content     string    `gorm:"not null"                 json:"content"`
	Thumbnail   *string   `json:"thumbnail"`
	IsPublished bool      `gorm:"default:false"            json:"isPublished"`
	CreatedAt   time.Time `json:"createdAt"`
	AuthorID    uint      `gorm:"index;not null"           json:"authorId"`

	Author User `gorm:"foreignKey:AuthorID" json:"-"`
}
