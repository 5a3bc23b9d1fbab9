package models

import (
	"time"
)

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"      json:"id"`
	Email        string `gorm:"uniqueIndex;size:120;not null" json:"email"`
	Username     string `gorm:"uniqueIndex;size:40;not null"  json:"username"`
	PasswordHash string `gorm:"not null"                      json:"-"`
	IsAdmin      bool   `gorm:"default:false"                 json:"is_admin"`
}

type Car struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title         string    `gorm:"size:120;not null"        json:"title"`
	Brand         string    `gorm:"size:40;index;not null"   json:"brand"`
	Model         string    `gorm:"size:60;not null"         json:"model"`
	Year          int       `gorm:"index;not null"           json:"year"`
	MileageKM     int       `gorm:"not null"                 json:"mileage_km"`
	Price         int       `gorm:"index;not null"           json:"price"`
	City          string    `gorm:"size:40;index;not null"   json:"city"`
	Description   string    `gorm:"type:text"                json:"description"`
	ImageFilename string    `gorm:"size:255"                 json:"image_filename"`
	IsActive      bool      `gorm:"default:true;index"       json:"is_active"`
	CreatedAt     time.Time `gorm:"index"                    json:"created_at"`
	SellerID      uint      `gorm:"index;not null"           json:"seller_id"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"             json:"id"`
	UserID    uint      `gorm:"uniqueIndex:uq_user_car_fav;not null" json:"user_id"`
	CarID     uint      `gorm:"uniqueIndex:uq_user_car_fav;not null" json:"car_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CarID     uint      `gorm:"index;not null"           json:"car_id"`
	UserID    uint      `gorm:"index;not null"           json:"user_id"`
	Content   string    `gorm:"size:500;not null"        json:"content"`
	CreatedAt time.Time `gorm:"index"                    json:"created_at"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}
