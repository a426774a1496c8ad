// Package validation holds the typed input schemas of the service and their
// single validation entry points.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
)

// ListingDraft is the editable part of a listing as submitted by an agent.
// Status is accepted for compatibility with older clients and ignored.
type ListingDraft struct {
	Kind            string       `json:"kind" validate:"oneof=PROPERTY PROJECT"`
	Title           string       `json:"title" validate:"required,min=3,max=200"`
	Description     string       `json:"description" validate:"required,max=5000"`
	Type            string       `json:"type" validate:"required,oneof=HOUSE APARTMENT LAND COMMERCIAL OFFICE"`
	TransactionType string       `json:"transactionType" validate:"required,oneof=SALE RENT"`
	Price           float64      `json:"price" validate:"gt=0"`
	Bedrooms        int          `json:"bedrooms" validate:"gte=0,lte=100"`
	Bathrooms       int          `json:"bathrooms" validate:"gte=0,lte=100"`
	Area            float64      `json:"area" validate:"gte=0"`
	Address         string       `json:"address" validate:"required,max=300"`
	City            string       `json:"city" validate:"required,max=120"`
	State           string       `json:"state" validate:"max=120"`
	Latitude        *float64     `json:"latitude" validate:"omitempty,latitude"`
	Longitude       *float64     `json:"longitude" validate:"omitempty,longitude"`
	Features        []string     `json:"features" validate:"max=50,dive,required,max=60"`
	Images          []string     `json:"images" validate:"max=40,dive,url"`
	Documents       []string     `json:"documents" validate:"max=20,dive,url"`
	Floors          []FloorDraft `json:"floors" validate:"max=200,dive"`
	Status          string       `json:"status" validate:"-"`
}

type FloorDraft struct {
	Name      string          `json:"name" validate:"required,max=80"`
	Quadrants []QuadrantDraft `json:"quadrants" validate:"max=500,dive"`
}

type QuadrantDraft struct {
	Label  string  `json:"label" validate:"required,max=40"`
	Area   float64 `json:"area" validate:"gte=0"`
	Price  float64 `json:"price" validate:"gte=0"`
	Status string  `json:"status" validate:"oneof=AVAILABLE UNAVAILABLE RESERVED"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(listingDraftRules, ListingDraft{})
	return v
}

func listingDraftRules(sl validator.StructLevel) {
	d := sl.Current().Interface().(ListingDraft)
	if d.Kind == string(model.KindProperty) && len(d.Floors) > 0 {
		sl.ReportError(d.Floors, "floors", "Floors", "property_floors", "")
	}
	if (d.Latitude == nil) != (d.Longitude == nil) {
		sl.ReportError(d.Latitude, "latitude", "Latitude", "coordinates", "")
	}
}

// Listing normalizes and validates d. It returns the normalized draft or a
// validation error carrying one message per offending field.
func Listing(d ListingDraft) (ListingDraft, error) {
	d = normalize(d)
	if err := validate.Struct(d); err != nil {
		return ListingDraft{}, toAppErr("invalid listing", err)
	}
	return d, nil
}

func normalize(d ListingDraft) ListingDraft {
	d.Kind = strings.ToUpper(strings.TrimSpace(d.Kind))
	if d.Kind == "" {
		d.Kind = string(model.KindProperty)
	}
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Type = strings.ToUpper(strings.TrimSpace(d.Type))
	d.TransactionType = strings.ToUpper(strings.TrimSpace(d.TransactionType))
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.State = strings.TrimSpace(d.State)
	d.Features = trimAll(d.Features)
	d.Images = trimAll(d.Images)
	d.Documents = trimAll(d.Documents)
	floors := make([]FloorDraft, len(d.Floors))
	for i, f := range d.Floors {
		f.Name = strings.TrimSpace(f.Name)
		qs := make([]QuadrantDraft, len(f.Quadrants))
		for j, q := range f.Quadrants {
			q.Label = strings.TrimSpace(q.Label)
			q.Status = strings.ToUpper(strings.TrimSpace(q.Status))
			if q.Status == "" {
				q.Status = string(model.UnitAvailable)
			}
			qs[j] = q
		}
		f.Quadrants = qs
		floors[i] = f
	}
	d.Floors = floors
	return d
}

func trimAll(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

// ApplyTo copies the editable fields of d onto l. Images and documents are
// only replaced when d carries them, so uploaded media survive text edits.
func (d ListingDraft) ApplyTo(l *model.Listing) {
	l.Kind = model.Kind(d.Kind)
	l.Title = d.Title
	l.Description = d.Description
	l.Type = model.PropertyType(d.Type)
	l.TransactionType = model.TransactionType(d.TransactionType)
	l.Price = d.Price
	l.Bedrooms = d.Bedrooms
	l.Bathrooms = d.Bathrooms
	l.Area = d.Area
	l.Address = d.Address
	l.City = d.City
	l.State = d.State
	l.Latitude = d.Latitude
	l.Longitude = d.Longitude
	l.Features = append(pq.StringArray{}, d.Features...)
	if d.Images != nil || l.Images == nil {
		l.Images = append(pq.StringArray{}, d.Images...)
	}
	if d.Documents != nil || l.Documents == nil {
		l.Documents = append(pq.StringArray{}, d.Documents...)
	}
}

// UnitStatus validates a quadrant status update.
func UnitStatus(s string) (model.UnitStatus, error) {
	st := model.UnitStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", apperr.Validation("invalid quadrant status",
			apperr.FieldErrors{"status": "must be one of AVAILABLE, UNAVAILABLE, RESERVED"})
	}
	return st, nil
}

// RejectionReason validates the reason attached to a rejection.
func RejectionReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	switch {
	case reason == "":
		return "", apperr.Validation("rejection reason is required", apperr.FieldErrors{"reason": "is required"})
	case len(reason) > 1000:
		return "", apperr.Validation("rejection reason is too long", apperr.FieldErrors{"reason": "must be at most 1000 characters"})
	}
	return reason, nil
}

func toAppErr(msg string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal(msg, err)
	}
	fields := apperr.FieldErrors{}
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return apperr.Validation(msg, fields)
}

// fieldPath drops the root struct name from the namespace,
// "ListingDraft.floors[0].name" becomes "floors[0].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "min":
		return fmt.Sprintf("must have at least %s characters", fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must have at most %s items", fe.Param())
		}
		return fmt.Sprintf("must have at most %s characters", fe.Param())
	case "url":
		return "must be a URL"
	case "latitude", "longitude":
		return "must be a valid coordinate"
	case "coordinates":
		return "latitude and longitude must be given together"
	case "property_floors":
		return "only projects have floors"
	default:
		return "is invalid"
	}
}
