package model

import "time"

type Department struct {
	Base
	Name      string    `db:"name" json:"name" validate:"required,min=3,max=50"`
	Budget    float64   `db:"budget" json:"budget" validate:"gte=0"`
	StartDate time.Time `db:"start_date" json:"start_date" validate:"required"`
}

func (d *Department) DisplayName() string {
	return d.Name
}
