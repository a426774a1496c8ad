package model

import (
	"time"

	"github.com/lib/pq"
)

// Status is the approval state of a listing.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Kind distinguishes single properties from multi-unit projects.
type Kind string

const (
	KindProperty Kind = "PROPERTY"
	KindProject  Kind = "PROJECT"
)

func (k Kind) Valid() bool {
	return k == KindProperty || k == KindProject
}

type PropertyType string

const (
	TypeHouse      PropertyType = "HOUSE"
	TypeApartment  PropertyType = "APARTMENT"
	TypeLand       PropertyType = "LAND"
	TypeCommercial PropertyType = "COMMERCIAL"
	TypeOffice     PropertyType = "OFFICE"
)

func (t PropertyType) Valid() bool {
	switch t {
	case TypeHouse, TypeApartment, TypeLand, TypeCommercial, TypeOffice:
		return true
	}
	return false
}

type TransactionType string

const (
	TransactionSale TransactionType = "SALE"
	TransactionRent TransactionType = "RENT"
)

func (t TransactionType) Valid() bool {
	return t == TransactionSale || t == TransactionRent
}

// Listing is a property or project submitted by an agent.
// RejectionReason is non-nil only while Status is REJECTED.
type Listing struct {
	ID              string          `db:"id" json:"id"`
	Kind            Kind            `db:"kind" json:"kind"`
	OwnerAgentID    string          `db:"owner_agent_id" json:"ownerAgentId"`
	OwnerAgencyID   string          `db:"owner_agency_id" json:"ownerAgencyId"`
	Title           string          `db:"title" json:"title"`
	Description     string          `db:"description" json:"description"`
	Type            PropertyType    `db:"type" json:"type"`
	TransactionType TransactionType `db:"transaction_type" json:"transactionType"`
	Price           float64         `db:"price" json:"price"`
	Bedrooms        int             `db:"bedrooms" json:"bedrooms"`
	Bathrooms       int             `db:"bathrooms" json:"bathrooms"`
	Area            float64         `db:"area" json:"area"`
	Address         string          `db:"address" json:"address"`
	City            string          `db:"city" json:"city"`
	State           string          `db:"state" json:"state"`
	Latitude        *float64        `db:"latitude" json:"latitude,omitempty"`
	Longitude       *float64        `db:"longitude" json:"longitude,omitempty"`
	Features        pq.StringArray  `db:"features" json:"features"`
	Images          pq.StringArray  `db:"images" json:"images"`
	Documents       pq.StringArray  `db:"documents" json:"documents,omitempty"`
	Status          Status          `db:"status" json:"status"`
	RejectionReason *string         `db:"rejection_reason" json:"rejectionReason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updatedAt"`

	Floors []Floor `db:"-" json:"floors,omitempty"`
}

// Clone returns a copy that shares no slices or pointers with l.
func (l *Listing) Clone() *Listing {
	c := *l
	c.Features = append(pq.StringArray(nil), l.Features...)
	c.Images = append(pq.StringArray(nil), l.Images...)
	c.Documents = append(pq.StringArray(nil), l.Documents...)
	if l.RejectionReason != nil {
		r := *l.RejectionReason
		c.RejectionReason = &r
	}
	if l.Latitude != nil {
		v := *l.Latitude
		c.Latitude = &v
	}
	if l.Longitude != nil {
		v := *l.Longitude
		c.Longitude = &v
	}
	if l.Floors != nil {
		c.Floors = make([]Floor, len(l.Floors))
		for i, f := range l.Floors {
			c.Floors[i] = f
			c.Floors[i].Quadrants = append([]Quadrant(nil), f.Quadrants...)
		}
	}
	return &c
}
