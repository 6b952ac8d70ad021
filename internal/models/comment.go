package models

const MaxCommentLength = 500

type Comment struct {
	BaseModel `bson:",inline"`

	CampaignID string `gorm:"type:varchar(26);not null;index" bson:"campaign_id"`
	UserID     string `gorm:"type:varchar(26);not null;index" bson:"user_id"`
	Text       string `gorm:"size:500;not null" bson:"text"`
}

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Campaign{},
		&Donation{},
		&Comment{},
	}
}
