package models

import "time"

// RiderStatus is the availability state of a delivery rider
type RiderStatus string

const (
	RiderAvailable  RiderStatus = "available"
	RiderOnDelivery RiderStatus = "on-delivery"
	RiderOffline    RiderStatus = "offline"
)

const (
	DefaultVehicleType = "Bike"
	DefaultRating      = 5.0
)

type Rider struct {
	ID              string      `json:"riderId" gorm:"primaryKey;size:40"`
	Name            string      `json:"name" gorm:"not null"`
	Phone           string      `json:"phone" gorm:"not null;index"`
	VehicleType     string      `json:"vehicleType"`
	VehicleNumber   string      `json:"vehicleNumber"`
	Status          RiderStatus `json:"status" gorm:"not null;index"`
	CurrentOrderID  *string     `json:"currentOrderId"` // owning reference, set only while on-delivery
	TotalDeliveries int         `json:"totalDeliveries"`
	Rating          float64     `json:"rating"`
	IsActive        bool        `json:"isActive"`
	FCMToken        *string     `json:"fcmToken,omitempty" gorm:"column:fcm_token"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
