package catalog

import (
	"time"
)

type Wall struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id" yaml:"id"`
	Name      string    `gorm:"column:name;not null" json:"name" yaml:"name"`
	Type      string    `gorm:"column:type" json:"type" yaml:"type"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0" json:"sort_order" yaml:"sort_order"`
	CreatedAt time.Time `gorm:"not null" json:"-" yaml:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-" yaml:"-"`
}

func (Wall) TableName() string { return "wall" }
