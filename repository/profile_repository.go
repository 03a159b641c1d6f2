package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"clickshare/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrSlugTaken       = errors.New("slug is already taken")
	ErrInvalidProfile  = errors.New("invalid profile")
)

var newID = uuid.NewString

var validate = newValidator()

const uniqueViolation = "23505"

const profileColumns = `id, created_at, full_name, job_title, company, profile_image, bio, email, phone,
	website, social_links, custom_theme, slug, edit_token, visits, qr_code_scans`

// ProfileRepository is the data-access layer over the profiles table.
type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(conn *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: conn}
}

// newValidator reports fields by their json name and knows the notblank rule,
// which rejects whitespace-only strings.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// GetBySlug returns nil without an error when no profile uses the slug.
func (r *ProfileRepository) GetBySlug(ctx context.Context, slug string) (*models.Profile, error) {
	return r.getOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE slug = $1 LIMIT 1", slug)
}

// GetByEditToken returns nil without an error when the token is unknown.
func (r *ProfileRepository) GetByEditToken(ctx context.Context, editToken string) (*models.Profile, error) {
	if editToken == "" {
		return nil, nil
	}
	return r.getOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE edit_token = $1 LIMIT 1", editToken)
}

// Create inserts a new profile with zeroed counters and returns its id.
func (r *ProfileRepository) Create(ctx context.Context, input models.ProfileInput, slug, editToken string) (string, error) {
	if err := ValidateInput(input); err != nil {
		return "", err
	}
	if slug == "" || editToken == "" {
		return "", fmt.Errorf("%w: slug and edit_token are required", ErrInvalidProfile)
	}

	id := newID()
	_, err := r.db.ExecContext(ctx, `INSERT INTO profiles (id, full_name, job_title, company, profile_image, bio, email, phone,
		website, social_links, custom_theme, slug, edit_token, visits, qr_code_scans)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 0, 0)`,
		id, input.FullName, input.JobTitle, input.Company, nullString(input.ProfileImage), input.Bio,
		input.Email, input.Phone, nullString(input.Website), input.SocialLinks, input.CustomTheme,
		slug, editToken)
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrSlugTaken
		}
		return "", fmt.Errorf("insert profile: %w", err)
	}
	return id, nil
}

// Update replaces every mutable attribute of the profile. Slug, edit token and
// counters are left untouched.
func (r *ProfileRepository) Update(ctx context.Context, id string, input models.ProfileInput) error {
	if err := ValidateInput(input); err != nil {
		return err
	}
	if !validID(id) {
		return ErrProfileNotFound
	}

	result, err := r.db.ExecContext(ctx, `UPDATE profiles SET full_name = $2, job_title = $3, company = $4,
		profile_image = $5, bio = $6, email = $7, phone = $8, website = $9, social_links = $10, custom_theme = $11
		WHERE id = $1`,
		id, input.FullName, input.JobTitle, input.Company, nullString(input.ProfileImage), input.Bio,
		input.Email, input.Phone, nullString(input.Website), input.SocialLinks, input.CustomTheme)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireAffected(result)
}

// IncrementVisits adds one to the visit counter. found is false when the id
// does not exist.
func (r *ProfileRepository) IncrementVisits(ctx context.Context, id string) (int64, bool, error) {
	return r.increment(ctx, "UPDATE profiles SET visits = visits + 1 WHERE id = $1 RETURNING visits", id)
}

// IncrementQRScans adds one to the QR scan counter. found is false when the id
// does not exist.
func (r *ProfileRepository) IncrementQRScans(ctx context.Context, id string) (int64, bool, error) {
	return r.increment(ctx, "UPDATE profiles SET qr_code_scans = qr_code_scans + 1 WHERE id = $1 RETURNING qr_code_scans", id)
}

// SetProfileImage patches only the stored image reference.
func (r *ProfileRepository) SetProfileImage(ctx context.Context, id, storageID string) error {
	if !validID(id) {
		return ErrProfileNotFound
	}
	result, err := r.db.ExecContext(ctx, "UPDATE profiles SET profile_image = $2 WHERE id = $1", id, nullString(storageID))
	if err != nil {
		return fmt.Errorf("store profile image: %w", err)
	}
	return requireAffected(result)
}

func (r *ProfileRepository) getOne(ctx context.Context, query string, arg string) (*models.Profile, error) {
	var (
		profile      models.Profile
		profileImage sql.NullString
		website      sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&profile.ID,
		&profile.CreatedAt,
		&profile.FullName,
		&profile.JobTitle,
		&profile.Company,
		&profileImage,
		&profile.Bio,
		&profile.Email,
		&profile.Phone,
		&website,
		&profile.SocialLinks,
		&profile.CustomTheme,
		&profile.Slug,
		&profile.EditToken,
		&profile.Visits,
		&profile.QRCodeScans,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	profile.ProfileImage = profileImage.String
	profile.Website = website.String
	return &profile, nil
}

func (r *ProfileRepository) increment(ctx context.Context, query, id string) (int64, bool, error) {
	if !validID(id) {
		return 0, false, nil
	}
	var value int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("increment counter: %w", err)
	}
	return value, true, nil
}

// ValidateInput checks the required profile fields. Failures wrap
// ErrInvalidProfile.
func ValidateInput(input models.ProfileInput) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make([]string, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			fields = append(fields, fieldErr.Field())
		}
		return fmt.Errorf("%w: missing %s", ErrInvalidProfile, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalidProfile, err)
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
