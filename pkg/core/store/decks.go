package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrDuplicateStartup is returned by Save when the name is taken.
	ErrDuplicateStartup = errors.New("store: startup already exists")
	ErrStartupNotFound  = errors.New("store: startup not found")
	ErrInvalidStatus    = errors.New("store: invalid startup status")
)

// Investor board statuses as stored in startup_investor_map.
const (
	StatusNew      = "New"
	StatusReviewed = "Reviewed"
	StatusFunded   = "Funded"
	StatusRejected = "Rejected"
)

var statusLabels = map[string]string{
	"Not Viewed":       StatusNew,
	"Decision Pending": StatusReviewed,
	StatusNew:          StatusNew,
	StatusReviewed:     StatusReviewed,
	StatusFunded:       StatusFunded,
	StatusRejected:     StatusRejected,
}

// ParseStatus maps a dashboard label ("Not Viewed", "Decision Pending",
// "Funded", "Rejected") or a stored status to its stored form.
func ParseStatus(label string) (string, error) {
	if s, ok := statusLabels[strings.TrimSpace(label)]; ok {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, label)
}

// Deck is a submitted pitch deck and its generated summary.
type Deck struct {
	ID            string    `json:"id"`
	StartupName   string    `json:"startup_name"`
	Industry      string    `json:"industry"`
	Website       string    `json:"website_url"`
	FundingAsk    string    `json:"funding_ask"`
	FundingAskUSD *float64  `json:"funding_ask_usd"`
	Summary       string    `json:"summary_report"`
	ObjectKey     string    `json:"pitch_deck_key"`
	Filename      string    `json:"pitch_deck_file"`
	CreatedAt     time.Time `json:"created_at"`
}

// DeckRepo stores pitch-deck submissions in the startups table.
type DeckRepo struct {
	pool *pgxpool.Pool
}

func NewDeckRepo(pool *pgxpool.Pool) *DeckRepo {
	return &DeckRepo{pool: pool}
}

// StartupExists reports whether a startup with name (any case) was saved.
func (r *DeckRepo) StartupExists(ctx context.Context, name string) (bool, error) {
	if r.pool == nil {
		return false, ErrPoolNotInitialized
	}
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM startups WHERE LOWER(startup_name) = LOWER($1))`,
		name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check startup %q: %w", name, err)
	}
	return exists, nil
}

// Save inserts d. A startup already on file under the same name (any case)
// yields ErrDuplicateStartup and leaves the existing row untouched. Decks
// named "Unknown" never conflict.
func (r *DeckRepo) Save(ctx context.Context, d *Deck) error {
	if r.pool == nil {
		return ErrPoolNotInitialized
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO startups (
			id, startup_name, industry, website_url, funding_ask, funding_ask_usd,
			summary_report, pitch_deck_key, pitch_deck_file
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id::text, created_at`,
		d.ID, d.StartupName, d.Industry, d.Website, d.FundingAsk, d.FundingAskUSD,
		d.Summary, d.ObjectKey, d.Filename,
	).Scan(&d.ID, &d.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateStartup, d.StartupName)
	}
	if err != nil {
		return fmt.Errorf("save deck for %q: %w", d.StartupName, err)
	}
	return nil
}

// Delete removes the startup with id and its investor mappings.
func (r *DeckRepo) Delete(ctx context.Context, id string) error {
	if r.pool == nil {
		return ErrPoolNotInitialized
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM startups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete startup %s: %w", id, err)
	}
	return nil
}

// GetByID returns the startup with id. Unknown or malformed ids yield
// ErrStartupNotFound.
func (r *DeckRepo) GetByID(ctx context.Context, id string) (*Deck, error) {
	if r.pool == nil {
		return nil, ErrPoolNotInitialized
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrStartupNotFound, id)
	}
	var d Deck
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, startup_name, COALESCE(industry, ''), COALESCE(website_url, ''),
		       COALESCE(funding_ask, ''), funding_ask_usd, COALESCE(summary_report, ''),
		       COALESCE(pitch_deck_key, ''), COALESCE(pitch_deck_file, ''), created_at
		FROM startups WHERE id = $1`, id,
	).Scan(&d.ID, &d.StartupName, &d.Industry, &d.Website, &d.FundingAsk, &d.FundingAskUSD,
		&d.Summary, &d.ObjectKey, &d.Filename, &d.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrStartupNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get startup %s: %w", id, err)
	}
	return &d, nil
}

// StartupRef is a startup as listed on an investor's board.
type StartupRef struct {
	ID   string `json:"startup_id"`
	Name string `json:"startup_name"`
}

// ListByStatus returns the startups investorID has filed under status.
func (r *DeckRepo) ListByStatus(ctx context.Context, investorID int64, status string) ([]StartupRef, error) {
	if r.pool == nil {
		return nil, ErrPoolNotInitialized
	}
	rows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.startup_name
		FROM startup_investor_map m
		JOIN startups s ON s.id = m.startup_id
		WHERE m.investor_id = $1 AND m.status = $2
		ORDER BY s.created_at DESC`, investorID, status)
	if err != nil {
		return nil, fmt.Errorf("list startups for investor %d: %w", investorID, err)
	}
	defer rows.Close()

	out := []StartupRef{}
	for rows.Next() {
		var ref StartupRef
		if err := rows.Scan(&ref.ID, &ref.Name); err != nil {
			return nil, fmt.Errorf("scan startup ref: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// SetStatus files startupID under status for investorID, creating the
// mapping when the investor has not seen the startup before.
func (r *DeckRepo) SetStatus(ctx context.Context, investorID int64, startupID, status string) error {
	if r.pool == nil {
		return ErrPoolNotInitialized
	}
	if _, err := uuid.Parse(startupID); err != nil {
		return fmt.Errorf("%w: %s", ErrStartupNotFound, startupID)
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO startup_investor_map (investor_id, startup_id, status)
		SELECT $1, id, $3 FROM startups WHERE id = $2
		ON CONFLICT (investor_id, startup_id) DO UPDATE SET
			status     = EXCLUDED.status,
			updated_at = NOW()`, investorID, startupID, status)
	if err != nil {
		return fmt.Errorf("set status for startup %s: %w", startupID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrStartupNotFound, startupID)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
