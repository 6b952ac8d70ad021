package models

import (
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type CampaignStatus string

const (
	CampaignPending   CampaignStatus = "pending"
	CampaignActive    CampaignStatus = "active"
	CampaignSuspended CampaignStatus = "suspended"
	CampaignCompleted CampaignStatus = "completed"
)

type Category string

var Categories = []Category{
	"Education",
	"Health",
	"Tech",
	"Charity",
	"Environment",
	"Arts",
	"Other",
}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

const (
	MaxShortDescription = 200
	MaxCampaignImages   = 5
)

type CampaignUpdate struct {
	Title   string    `json:"title" bson:"title"`
	Content string    `json:"content" bson:"content"`
	Date    time.Time `json:"date" bson:"date"`
}

type Campaign struct {
	BaseModel `bson:",inline"`

	Title            string                              `gorm:"not null" bson:"title"`
	Description      string                              `gorm:"type:text;not null" bson:"description"`
	ShortDescription string                              `gorm:"size:200" bson:"short_description"`
	Goal             decimal.Decimal                     `gorm:"type:decimal(14,2);not null" bson:"goal"`
	RaisedAmount     decimal.Decimal                     `gorm:"type:decimal(14,2);not null;default:0" bson:"raised_amount"`
	Deadline         time.Time                           `gorm:"not null;index" bson:"deadline"`
	CreatorID        string                              `gorm:"type:varchar(26);not null;index" bson:"creator_id"`
	Category         Category                            `gorm:"type:varchar(32);not null;index" bson:"category"`
	Images           datatypes.JSONSlice[string]         `bson:"images"`
	Status           CampaignStatus                      `gorm:"type:varchar(16);not null;default:'pending';index" bson:"status"`
	Updates          datatypes.JSONSlice[CampaignUpdate] `bson:"updates"`
	DonorsCount      int64                               `gorm:"not null;default:0" bson:"donors_count"`
}

// DaysLeft rounds partial days up and never goes below zero.
func (c *Campaign) DaysLeft(now time.Time) int {
	remaining := c.Deadline.Sub(now).Hours() / 24

	return int(math.Max(0, math.Ceil(remaining)))
}

// Progress is raised/goal as a percentage. It is not clamped at 100.
func (c *Campaign) Progress() float64 {
	if c.Goal.IsZero() {
		return 0
	}

	return c.RaisedAmount.Div(c.Goal).Mul(decimal.NewFromInt(100)).InexactFloat64()
}
