/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains the SQL for the `onramp_orders` table and the read-only queries
 * over the `businesses`, `business_tokens` and `business_fees` tables.
 *
 * @notes
 * - Order notes, metadata and webhook delivery state are stored as jsonb.
 * - Monetary columns are NUMERIC and scanned into shopspring decimals via their
 *   text representation, keeping fee arithmetic exact end to end.
 * - Terminal-state guards live in the UPDATE WHERE clauses: an order already
 *   COMPLETED or FAILED is never downgraded by a late settlement write.
 *
 * @dependencies
 * - context, encoding/json, errors, fmt: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/abokixyz/Aboki-B2B-sub004/internal/domain"
)

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `
	id, reference, business_id, customer_email, customer_name, customer_wallet,
	amount::text, target_token, target_network, token_contract_address,
	exchange_rate::text, estimated_token_amount::text, fee_percentage::text,
	fee_amount::text, net_amount::text, actual_token_amount::text,
	status, payment_link_url, transaction_hash, liquidity_server_order_id,
	error_message, notes, webhook_url, webhook_status, metadata,
	created_at, expires_at, settlement_initiated_at, completed_at, updated_at`

// FindBusinessByID loads a business with its per-network token and fee configuration.
func (r *PostgresRepository) FindBusinessByID(ctx context.Context, businessID uuid.UUID) (*domain.Business, error) {
	query := `SELECT id, name, COALESCE(webhook_url, ''), COALESCE(webhook_secret, '') FROM businesses WHERE id = $1`
	business := &domain.Business{}
	err := r.db.QueryRow(ctx, query, businessID).Scan(&business.ID, &business.Name, &business.WebhookURL, &business.WebhookSecret)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if err := r.loadBusinessConfig(ctx, business); err != nil {
		return nil, err
	}
	return business, nil
}

// FindBusinessByAPIKey resolves a business from the API key presented on merchant requests.
func (r *PostgresRepository) FindBusinessByAPIKey(ctx context.Context, apiKey string) (*domain.Business, error) {
	query := `SELECT id, name, COALESCE(webhook_url, ''), COALESCE(webhook_secret, '') FROM businesses WHERE api_key = $1 AND is_active`
	business := &domain.Business{}
	err := r.db.QueryRow(ctx, query, apiKey).Scan(&business.ID, &business.Name, &business.WebhookURL, &business.WebhookSecret)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrBusinessNotFound
		}
		return nil, err
	}
	if err := r.loadBusinessConfig(ctx, business); err != nil {
		return nil, err
	}
	return business, nil
}

func (r *PostgresRepository) loadBusinessConfig(ctx context.Context, business *domain.Business) error {
	business.Tokens = make(map[domain.Network][]domain.SupportedToken)
	business.Fees = make(map[domain.Network][]domain.FeeConfig)

	tokenRows, err := r.db.Query(ctx,
		`SELECT network, symbol, contract_address, decimals, is_active, is_trading_enabled
		 FROM business_tokens WHERE business_id = $1 ORDER BY network, symbol`, business.ID)
	if err != nil {
		return fmt.Errorf("query business tokens: %w", err)
	}
	defer tokenRows.Close()
	for tokenRows.Next() {
		var t domain.SupportedToken
		if err := tokenRows.Scan(&t.Network, &t.Symbol, &t.ContractAddress, &t.Decimals, &t.IsActive, &t.IsTradingEnabled); err != nil {
			return fmt.Errorf("scan business token: %w", err)
		}
		if !domain.KnownNetwork(t.Network) {
			// Unknown networks are skipped at the boundary rather than surfacing
			// mistyped rows into validation.
			continue
		}
		business.Tokens[t.Network] = append(business.Tokens[t.Network], t)
	}
	if err := tokenRows.Err(); err != nil {
		return err
	}

	feeRows, err := r.db.Query(ctx,
		`SELECT network, contract_address, fee_percentage::text, is_active
		 FROM business_fees WHERE business_id = $1 ORDER BY network`, business.ID)
	if err != nil {
		return fmt.Errorf("query business fees: %w", err)
	}
	defer feeRows.Close()
	for feeRows.Next() {
		var f domain.FeeConfig
		var pct string
		if err := feeRows.Scan(&f.Network, &f.ContractAddress, &pct, &f.IsActive); err != nil {
			return fmt.Errorf("scan business fee: %w", err)
		}
		f.FeePercentage, err = decimal.NewFromString(pct)
		if err != nil {
			return fmt.Errorf("parse fee percentage %q: %w", pct, err)
		}
		if !domain.KnownNetwork(f.Network) {
			continue
		}
		business.Fees[f.Network] = append(business.Fees[f.Network], f)
	}
	return feeRows.Err()
}

// CreateOrder persists a new order in its INITIATED state.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *domain.BusinessOnrampOrder) error {
	notes, err := json.Marshal(order.Notes)
	if err != nil {
		return fmt.Errorf("marshal notes: %w", err)
	}
	webhookStatus, err := json.Marshal(order.WebhookStatus)
	if err != nil {
		return fmt.Errorf("marshal webhook status: %w", err)
	}
	metadata, err := json.Marshal(order.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
		INSERT INTO onramp_orders (
			id, reference, business_id, customer_email, customer_name, customer_wallet,
			amount, target_token, target_network, token_contract_address,
			exchange_rate, estimated_token_amount, fee_percentage, fee_amount, net_amount,
			status, payment_link_url, webhook_url, notes, webhook_status, metadata,
			created_at, expires_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21,
			$22, $23, $22
		)`
	_, err = r.db.Exec(ctx, query,
		order.ID, order.Reference, order.BusinessID, order.CustomerEmail, order.CustomerName, order.CustomerWallet,
		order.Amount.String(), order.TargetToken, order.TargetNetwork, order.TokenContractAddress,
		order.ExchangeRate.String(), order.EstimatedTokenAmount.String(), order.FeePercentage.String(),
		order.FeeAmount.String(), order.NetAmount.String(),
		order.Status, order.PaymentLinkURL, order.WebhookURL, notes, webhookStatus, metadata,
		order.CreatedAt, order.ExpiresAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateOrder
		}
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// FindOrderByID retrieves a single order by its internal id.
func (r *PostgresRepository) FindOrderByID(ctx context.Context, orderID uuid.UUID) (*domain.BusinessOnrampOrder, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM onramp_orders WHERE id = $1`, orderID)
	return scanOrder(row)
}

// FindOrderByReference retrieves a single order by its merchant-facing reference.
func (r *PostgresRepository) FindOrderByReference(ctx context.Context, reference string) (*domain.BusinessOnrampOrder, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM onramp_orders WHERE reference = $1`, reference)
	return scanOrder(row)
}

// ListOrdersByBusiness returns a page of a business's orders, newest first.
func (r *PostgresRepository) ListOrdersByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]domain.BusinessOnrampOrder, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+orderColumns+` FROM onramp_orders WHERE business_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		businessID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]domain.BusinessOnrampOrder, 0, limit)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// UpdateOrderPaymentLink stores the hosted checkout URL issued for an order.
func (r *PostgresRepository) UpdateOrderPaymentLink(ctx context.Context, orderID uuid.UUID, paymentLinkURL string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE onramp_orders SET payment_link_url = $2, updated_at = now() WHERE id = $1`,
		orderID, paymentLinkURL)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkOrderProcessing transitions INITIATED -> PROCESSING. The status guard in
// the WHERE clause makes replayed 'processing' webhooks a no-op.
func (r *PostgresRepository) MarkOrderProcessing(ctx context.Context, orderID uuid.UUID, liquidityOrderID *string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE onramp_orders
		SET status = 'PROCESSING',
		    settlement_initiated_at = COALESCE(settlement_initiated_at, now()),
		    liquidity_server_order_id = COALESCE($2, liquidity_server_order_id),
		    updated_at = now()
		WHERE id = $1 AND status = 'INITIATED'`,
		orderID, liquidityOrderID)
	return err
}

// MarkOrderCompleted finalizes an order with its settlement results.
func (r *PostgresRepository) MarkOrderCompleted(ctx context.Context, orderID uuid.UUID, transactionHash string, actualTokenAmount decimal.Decimal, liquidityOrderID *string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE onramp_orders
		SET status = 'COMPLETED',
		    transaction_hash = $2,
		    actual_token_amount = $3::numeric,
		    liquidity_server_order_id = COALESCE($4, liquidity_server_order_id),
		    completed_at = now(),
		    updated_at = now()
		WHERE id = $1 AND status NOT IN ('COMPLETED', 'FAILED')`,
		orderID, transactionHash, actualTokenAmount.String(), liquidityOrderID)
	return err
}

// MarkOrderFailed finalizes an order as FAILED with the upstream error message.
func (r *PostgresRepository) MarkOrderFailed(ctx context.Context, orderID uuid.UUID, errorMessage string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE onramp_orders
		SET status = 'FAILED',
		    error_message = $2,
		    updated_at = now()
		WHERE id = $1 AND status NOT IN ('COMPLETED', 'FAILED')`,
		orderID, errorMessage)
	return err
}

// AppendOrderNote appends an advisory note to the order's jsonb notes array.
func (r *PostgresRepository) AppendOrderNote(ctx context.Context, orderID uuid.UUID, note domain.OrderNote) error {
	payload, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE onramp_orders
		SET notes = COALESCE(notes, '[]'::jsonb) || $2::jsonb,
		    updated_at = now()
		WHERE id = $1`,
		orderID, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// RecordWebhookDelivery persists merchant webhook delivery bookkeeping.
func (r *PostgresRepository) RecordWebhookDelivery(ctx context.Context, orderID uuid.UUID, state domain.WebhookDeliveryState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal webhook status: %w", err)
	}
	_, err = r.db.Exec(ctx,
		`UPDATE onramp_orders SET webhook_status = $2, updated_at = now() WHERE id = $1`,
		orderID, payload)
	return err
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanOrder.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.BusinessOnrampOrder, error) {
	var (
		order                                         domain.BusinessOnrampOrder
		amount, exchangeRate, estimatedTokenAmount    string
		feePercentage, feeAmount, netAmount           string
		actualTokenAmount, paymentLinkURL, webhookURL *string
		notes, webhookStatus, metadata                []byte
	)
	err := row.Scan(
		&order.ID, &order.Reference, &order.BusinessID, &order.CustomerEmail, &order.CustomerName, &order.CustomerWallet,
		&amount, &order.TargetToken, &order.TargetNetwork, &order.TokenContractAddress,
		&exchangeRate, &estimatedTokenAmount, &feePercentage,
		&feeAmount, &netAmount, &actualTokenAmount,
		&order.Status, &paymentLinkURL, &order.TransactionHash, &order.LiquidityServerOrderID,
		&order.ErrorMessage, &notes, &webhookURL, &webhookStatus, &metadata,
		&order.CreatedAt, &order.ExpiresAt, &order.SettlementInitiatedAt, &order.CompletedAt, &order.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	if order.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	if order.ExchangeRate, err = decimal.NewFromString(exchangeRate); err != nil {
		return nil, fmt.Errorf("parse exchange rate: %w", err)
	}
	if order.EstimatedTokenAmount, err = decimal.NewFromString(estimatedTokenAmount); err != nil {
		return nil, fmt.Errorf("parse estimated token amount: %w", err)
	}
	if order.FeePercentage, err = decimal.NewFromString(feePercentage); err != nil {
		return nil, fmt.Errorf("parse fee percentage: %w", err)
	}
	if order.FeeAmount, err = decimal.NewFromString(feeAmount); err != nil {
		return nil, fmt.Errorf("parse fee amount: %w", err)
	}
	if order.NetAmount, err = decimal.NewFromString(netAmount); err != nil {
		return nil, fmt.Errorf("parse net amount: %w", err)
	}
	if actualTokenAmount != nil {
		parsed, err := decimal.NewFromString(*actualTokenAmount)
		if err != nil {
			return nil, fmt.Errorf("parse actual token amount: %w", err)
		}
		order.ActualTokenAmount = &parsed
	}
	if paymentLinkURL != nil {
		order.PaymentLinkURL = *paymentLinkURL
	}
	if webhookURL != nil {
		order.WebhookURL = *webhookURL
	}
	if len(notes) > 0 {
		if err := json.Unmarshal(notes, &order.Notes); err != nil {
			return nil, fmt.Errorf("unmarshal notes: %w", err)
		}
	}
	if len(webhookStatus) > 0 {
		if err := json.Unmarshal(webhookStatus, &order.WebhookStatus); err != nil {
			return nil, fmt.Errorf("unmarshal webhook status: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &order.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &order, nil
}
