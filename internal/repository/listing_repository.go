package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"property-portal/internal/apperr"
	"property-portal/internal/model"
	"property-portal/internal/store"
	"property-portal/internal/visibility"
)

const listingColumns = `id, kind, owner_agent_id, owner_agency_id, title, description, type,
	transaction_type, price, bedrooms, bathrooms, area, address, city, state, latitude, longitude,
	features, images, documents, status, rejection_reason, created_at, updated_at`

type ListingRepository struct {
	DB *sqlx.DB
}

func NewListingRepository(db *sqlx.DB) *ListingRepository {
	return &ListingRepository{DB: db}
}

// Create inserts the listing and its floors in one transaction.
func (r *ListingRepository) Create(ctx context.Context, l *model.Listing) (err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ListingRepository.Create begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.NamedExecContext(ctx, `
		INSERT INTO listings
			(`+listingColumns+`)
		VALUES
			(:id, :kind, :owner_agent_id, :owner_agency_id, :title, :description, :type,
			 :transaction_type, :price, :bedrooms, :bathrooms, :area, :address, :city, :state, :latitude, :longitude,
			 :features, :images, :documents, :status, :rejection_reason, :created_at, :updated_at)
	`, l); err != nil {
		return fmt.Errorf("ListingRepository.Create insert: %w", err)
	}
	if err = insertFloors(ctx, tx, l.Floors); err != nil {
		return fmt.Errorf("ListingRepository.Create floors: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ListingRepository.Create commit: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	err := r.DB.GetContext(ctx, &l, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("ListingRepository.GetByID: %w", err)
	}
	return &l, nil
}

// UpdateStatus is a single-row write keyed by id; concurrent reviewers race
// and the last write wins.
func (r *ListingRepository) UpdateStatus(ctx context.Context, l *model.Listing) error {
	res, err := r.DB.NamedExecContext(ctx, `
		UPDATE listings SET
			status           = :status,
			rejection_reason = :rejection_reason,
			updated_at       = :updated_at
		WHERE id = :id
	`, l)
	if err != nil {
		return fmt.Errorf("ListingRepository.UpdateStatus: %w", err)
	}
	return expectRow(res, "listing not found")
}

// Update writes the listing row and, for projects, swaps the floor plan in
// the same transaction so a failed floor write leaves the listing untouched.
func (r *ListingRepository) Update(ctx context.Context, l *model.Listing) (err error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ListingRepository.Update begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.NamedExecContext(ctx, `
		UPDATE listings SET
			title            = :title,
			description      = :description,
			type             = :type,
			transaction_type = :transaction_type,
			price            = :price,
			bedrooms         = :bedrooms,
			bathrooms        = :bathrooms,
			area             = :area,
			address          = :address,
			city             = :city,
			state            = :state,
			latitude         = :latitude,
			longitude        = :longitude,
			features         = :features,
			images           = :images,
			documents        = :documents,
			status           = :status,
			rejection_reason = :rejection_reason,
			updated_at       = :updated_at
		WHERE id = :id
	`, l)
	if err != nil {
		return fmt.Errorf("ListingRepository.Update: %w", err)
	}
	if err = expectRow(res, "listing not found"); err != nil {
		return err
	}
	if l.Kind == model.KindProject {
		if err = replaceFloors(ctx, tx, l.ID, l.Floors); err != nil {
			return fmt.Errorf("ListingRepository.Update %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("ListingRepository.Update commit: %w", err)
	}
	return nil
}

func (r *ListingRepository) List(ctx context.Context, p visibility.Predicate, sort visibility.Sort, limit, offset int) ([]*model.Listing, error) {
	where, args := whereClause(p)
	col := sort.Field.Column()
	if col == "" {
		col = "created_at"
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	query := fmt.Sprintf(`SELECT %s FROM listings%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		listingColumns, where, col, dir, dir, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var list []*model.Listing
	if err := r.DB.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, fmt.Errorf("ListingRepository.List: %w", err)
	}
	return list, nil
}

func (r *ListingRepository) Count(ctx context.Context, p visibility.Predicate) (int, error) {
	where, args := whereClause(p)
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT COUNT(1) FROM listings`+where, args...); err != nil {
		return 0, fmt.Errorf("ListingRepository.Count: %w", err)
	}
	return count, nil
}

func (r *ListingRepository) AppendMedia(ctx context.Context, id string, col store.MediaColumn, url string) error {
	if col != store.MediaImages && col != store.MediaDocuments {
		return fmt.Errorf("ListingRepository.AppendMedia: unknown column %q", col)
	}
	query := fmt.Sprintf(`UPDATE listings SET %[1]s = array_append(%[1]s, $1), updated_at = now() WHERE id = $2`, col)
	res, err := r.DB.ExecContext(ctx, query, url, id)
	if err != nil {
		return fmt.Errorf("ListingRepository.AppendMedia: %w", err)
	}
	return expectRow(res, "listing not found")
}

// whereClause compiles p into a WHERE clause with positional arguments.
func whereClause(p visibility.Predicate) (string, []any) {
	var b condBuilder
	if p.Status != nil {
		b.add("status = $%d", string(*p.Status))
	}
	if p.OwnerAgentID != "" {
		b.add("owner_agent_id = $%d", p.OwnerAgentID)
	}
	if p.OwnerAgencyID != "" {
		b.add("owner_agency_id = $%d", p.OwnerAgencyID)
	}
	if p.Kind != nil {
		b.add("kind = $%d", string(*p.Kind))
	}
	if p.Type != nil {
		b.add("type = $%d", string(*p.Type))
	}
	if p.TransactionType != nil {
		b.add("transaction_type = $%d", string(*p.TransactionType))
	}
	if p.City != "" {
		b.add("city ILIKE $%d", likePattern(p.City))
	}
	if p.State != "" {
		b.add("state ILIKE $%d", likePattern(p.State))
	}
	if p.Location != "" {
		b.add("(address ILIKE $%[1]d OR city ILIKE $%[1]d OR state ILIKE $%[1]d)", likePattern(p.Location))
	}
	if p.MinPrice != nil {
		b.add("price >= $%d", *p.MinPrice)
	}
	if p.MaxPrice != nil {
		b.add("price <= $%d", *p.MaxPrice)
	}
	if p.MinBedrooms != nil {
		b.add("bedrooms >= $%d", *p.MinBedrooms)
	}
	if p.MaxBedrooms != nil {
		b.add("bedrooms <= $%d", *p.MaxBedrooms)
	}
	if p.MinBathrooms != nil {
		b.add("bathrooms >= $%d", *p.MinBathrooms)
	}
	if p.MaxBathrooms != nil {
		b.add("bathrooms <= $%d", *p.MaxBathrooms)
	}
	if p.MinArea != nil {
		b.add("area >= $%d", *p.MinArea)
	}
	if p.MaxArea != nil {
		b.add("area <= $%d", *p.MaxArea)
	}
	if len(p.Features) > 0 {
		b.add("features @> $%d", pq.StringArray(p.Features))
	}
	if p.Search != "" {
		b.add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", likePattern(p.Search))
	}
	if len(b.conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(b.conds, " AND "), b.args
}

type condBuilder struct {
	conds []string
	args  []any
}

func (b *condBuilder) add(format string, arg any) {
	b.args = append(b.args, arg)
	b.conds = append(b.conds, fmt.Sprintf(format, len(b.args)))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func expectRow(res sql.Result, notFound string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return apperr.NotFound(notFound)
	}
	return nil
}
