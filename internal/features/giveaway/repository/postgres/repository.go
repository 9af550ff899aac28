package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"tweet-giveaway-backend/internal/features/giveaway/models"
	"tweet-giveaway-backend/internal/features/giveaway/repository"
)

const uniqueViolation = "23505"

const giveawayColumns = `
	id, creator_id, creator_handle, token, amount_per_recipient, total_amount,
	keywords, receiver, max_recipients, allow_early_claim, claim_link, status,
	created_at, expires_at, updated_at`

type postgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) repository.Store {
	return &postgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGiveaway(row rowScanner) (*models.Giveaway, error) {
	var (
		g        models.Giveaway
		keywords pq.StringArray
		receiver sql.NullString
		maxRecip sql.NullInt64
	)
	err := row.Scan(
		&g.ID, &g.CreatorID, &g.CreatorHandle, &g.Token, &g.AmountPerRecipient, &g.TotalAmount,
		&keywords, &receiver, &maxRecip, &g.AllowEarlyClaim, &g.ClaimLink, &g.Status,
		&g.CreatedAt, &g.ExpiresAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.Keywords = []string(keywords)
	if receiver.Valid {
		g.Receiver = &receiver.String
	}
	if maxRecip.Valid {
		max := int(maxRecip.Int64)
		g.MaxRecipients = &max
	}
	return &g, nil
}

func (r *postgresRepository) CreateGiveaway(ctx context.Context, giveaway *models.Giveaway) error {
	query := `
		INSERT INTO giveaways (id, creator_id, creator_handle, token, amount_per_recipient, total_amount,
			keywords, receiver, max_recipients, allow_early_claim, claim_link, status, created_at, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $13)
	`
	var maxRecip sql.NullInt64
	if giveaway.MaxRecipients != nil {
		maxRecip = sql.NullInt64{Int64: int64(*giveaway.MaxRecipients), Valid: true}
	}
	var receiver sql.NullString
	if giveaway.Receiver != nil {
		receiver = sql.NullString{String: *giveaway.Receiver, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		giveaway.ID, giveaway.CreatorID, giveaway.CreatorHandle, giveaway.Token,
		giveaway.AmountPerRecipient, giveaway.TotalAmount, pq.Array(giveaway.Keywords),
		receiver, maxRecip, giveaway.AllowEarlyClaim, giveaway.ClaimLink, giveaway.Status,
		giveaway.CreatedAt, giveaway.ExpiresAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateID
		}
		return fmt.Errorf("failed to create giveaway: %w", err)
	}
	giveaway.UpdatedAt = giveaway.CreatedAt
	return nil
}

// GetGiveaway получает гив по ID
func (r *postgresRepository) GetGiveaway(ctx context.Context, id string) (*models.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + ` FROM giveaways WHERE id = $1`

	g, err := scanGiveaway(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrGiveawayNotFound
		}
		return nil, fmt.Errorf("failed to get giveaway: %w", err)
	}
	return g, nil
}

func (r *postgresRepository) CountClaims(ctx context.Context, giveawayID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM claims WHERE giveaway_id = $1`, giveawayID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}
	return count, nil
}

func (r *postgresRepository) SumClaimedAmount(ctx context.Context, giveawayID string) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM claims WHERE giveaway_id = $1`, giveawayID).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum claims: %w", err)
	}
	return sum, nil
}

func (r *postgresRepository) HasClaimed(ctx context.Context, giveawayID, claimantID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM claims WHERE giveaway_id = $1 AND claimant_id = $2)`,
		giveawayID, claimantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check claim: %w", err)
	}
	return exists, nil
}

// InsertClaim блокирует строку гива (SELECT ... FOR UPDATE), перепроверяет статус,
// дубликат и лимит получателей, затем вставляет клейм. Клеймы по одному гиву
// сериализуются, уникальный индекс остается последней линией защиты.
func (r *postgresRepository) InsertClaim(ctx context.Context, claim *models.Claim) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		status   models.GiveawayStatus
		maxRecip sql.NullInt64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT status, max_recipients FROM giveaways WHERE id = $1 FOR UPDATE`,
		claim.GiveawayID).Scan(&status, &maxRecip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrGiveawayNotFound
		}
		return fmt.Errorf("failed to lock giveaway: %w", err)
	}
	if status != models.GiveawayStatusActive {
		return repository.ErrNotActive
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM claims WHERE giveaway_id = $1 AND claimant_id = $2)`,
		claim.GiveawayID, claim.ClaimantID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check claim: %w", err)
	}
	if exists {
		return repository.ErrDuplicateClaim
	}

	if maxRecip.Valid {
		var count int64
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM claims WHERE giveaway_id = $1`, claim.GiveawayID).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count claims: %w", err)
		}
		if count >= maxRecip.Int64 {
			return repository.ErrCapacityReached
		}
	}

	var wallet sql.NullString
	if claim.WalletAddress != nil {
		wallet = sql.NullString{String: *claim.WalletAddress, Valid: true}
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO claims (giveaway_id, claimant_id, claimant_handle, wallet_address, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, claimed_at
	`, claim.GiveawayID, claim.ClaimantID, claim.ClaimantHandle, wallet, claim.Amount).
		Scan(&claim.ID, &claim.ClaimedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicateClaim
		}
		return fmt.Errorf("failed to insert claim: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit claim: %w", err)
	}
	return nil
}

// InsertWhitelistEntry допускает повторную вставку
func (r *postgresRepository) InsertWhitelistEntry(ctx context.Context, entry *models.WhitelistEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO whitelist (giveaway_id, claimant_id, claimant_handle, proof_ref)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (giveaway_id, claimant_id) DO NOTHING
	`, entry.GiveawayID, entry.ClaimantID, entry.ClaimantHandle, entry.ProofRef)
	if err != nil {
		return fmt.Errorf("failed to insert whitelist entry: %w", err)
	}
	return nil
}

func (r *postgresRepository) IsWhitelisted(ctx context.Context, giveawayID, claimantID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM whitelist WHERE giveaway_id = $1 AND claimant_id = $2)`,
		giveawayID, claimantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check whitelist: %w", err)
	}
	return exists, nil
}

func (r *postgresRepository) UpdateStatus(ctx context.Context, giveawayID string, status models.GiveawayStatus) (bool, error) {
	if !status.IsTerminal() {
		return false, repository.ErrInvalidStatus
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE giveaways SET status = $2, updated_at = NOW() WHERE id = $1 AND status = 'active'`,
		giveawayID, status)
	if err != nil {
		return false, fmt.Errorf("failed to update status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rowsAffected > 0 {
		return true, nil
	}

	// Ничего не обновили: либо гив уже в терминальном статусе, либо его нет
	var exists bool
	err = r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM giveaways WHERE id = $1)`, giveawayID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check giveaway: %w", err)
	}
	if !exists {
		return false, repository.ErrGiveawayNotFound
	}
	return false, nil
}

func (r *postgresRepository) ListByCreator(ctx context.Context, creatorID string, limit int) ([]*models.Giveaway, error) {
	query := `SELECT ` + giveawayColumns + `
		FROM giveaways
		WHERE creator_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, creatorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}
	defer rows.Close()

	var giveaways []*models.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan giveaway: %w", err)
		}
		giveaways = append(giveaways, g)
	}
	return giveaways, rows.Err()
}

func (r *postgresRepository) ListClaimsByClaimant(ctx context.Context, claimantID string, limit int) ([]*models.ClaimWithGiveaway, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.giveaway_id, c.claimant_id, c.claimant_handle, c.wallet_address,
			c.amount, c.claimed_at, g.token
		FROM claims c
		JOIN giveaways g ON g.id = c.giveaway_id
		WHERE c.claimant_id = $1
		ORDER BY c.claimed_at DESC
		LIMIT $2
	`, claimantID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*models.ClaimWithGiveaway
	for rows.Next() {
		var (
			c      models.ClaimWithGiveaway
			wallet sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.GiveawayID, &c.ClaimantID, &c.ClaimantHandle, &wallet,
			&c.Amount, &c.ClaimedAt, &c.Token); err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		if wallet.Valid {
			c.WalletAddress = &wallet.String
		}
		claims = append(claims, &c)
	}
	return claims, rows.Err()
}

func (r *postgresRepository) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	var stats models.UserStats
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM giveaways
		WHERE creator_id = $1
	`, userID).Scan(&stats.TotalGiveaways, &stats.ActiveGiveaways, &stats.CompletedGiveaways)
	if err != nil {
		return nil, fmt.Errorf("failed to count giveaways: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM claims WHERE claimant_id = $1`, userID).Scan(&stats.VerifiedClaims)
	if err != nil {
		return nil, fmt.Errorf("failed to count claims: %w", err)
	}
	return &stats, nil
}

func (r *postgresRepository) ListCompletable(ctx context.Context, limit int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.id
		FROM giveaways g
		JOIN claims c ON c.giveaway_id = g.id
		WHERE g.status = 'active'
		GROUP BY g.id, g.total_amount
		HAVING SUM(c.amount) >= g.total_amount
		ORDER BY g.id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list completable giveaways: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
