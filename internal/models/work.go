package models

import (
	"time"
)

type Work struct {
	WorkID      string    `json:"workId" db:"work_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type WorkStats struct {
	WorkID                   string  `json:"workId"`
	TotalSubmissions         int     `json:"totalSubmissions"`
	AverageSimilarityPercent float64 `json:"averageSimilarityPercent"`
}
