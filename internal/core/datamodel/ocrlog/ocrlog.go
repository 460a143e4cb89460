package ocrlog

import "time"

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusPending = "pending"
)

// OCRLog records one receipt scan attempt. RawJSON is free-form diagnostics.
type OCRLog struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"column:user_id;not null;index"`
	RawJSON   *string   `json:"raw_json" gorm:"column:raw_json"`
	Status    string    `json:"status" gorm:"column:status;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (OCRLog) TableName() string {
	return "ocr_logs"
}
