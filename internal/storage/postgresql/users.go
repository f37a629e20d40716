package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
)

const userColumns = `uid, seq, username, email, password_hash, country, full_name,
	total_bets, won_bets, lost_bets, total_amount, total_winnings, disabled, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Seq, &u.Username, &u.Email, &u.PasswordHash, &u.Country,
		&u.FullName, &u.TotalBets, &u.WonBets, &u.LostBets, &u.TotalAmount, &u.TotalWinnings,
		&u.Disabled, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Country = strings.TrimSpace(u.Country)
	return &u, nil
}

// CreateUser сохраняет нового пользователя и увеличивает версию учётных записей.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.postgresql.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rollback(tx)

	query := `INSERT INTO users (uid, username, email, password_hash, country, full_name, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING ` + userColumns
	created, err := scanUser(tx.QueryRowContext(ctx, query,
		user.ID, user.Username, strings.ToLower(user.Email), user.PasswordHash,
		user.Country, user.FullName, user.CreatedAt))
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return nil, wrap(op, err)
	}
	if err = bumpVersion(ctx, tx); err != nil {
		return nil, wrap(op, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, wrap(op, err)
	}
	return created, nil
}

// GetUser возвращает пользователя по UID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.postgresql.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE uid = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == codeInvalidText {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, wrap(op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.postgresql.GetUserByUsername"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return nil, wrap(op, err)
	}
	return u, nil
}

// ApplySettlement записывает расчёт ставки и обновляет счётчики пользователя одной транзакцией.
// Если ставка с таким BetID уже учтена, возвращает false без изменений.
func (s *Storage) ApplySettlement(ctx context.Context, st models.Settlement) (bool, error) {
	const op = "storage.postgresql.ApplySettlement"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, wrap(op, err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO settlements (bet_id, user_uid, won, stake, payout, settled_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (bet_id) DO NOTHING`,
		st.BetID, st.UserID, st.Won, st.Stake, st.Payout, st.SettledAt)
	if err != nil {
		if code := pgCode(err); code == codeForeignKeyViolation || code == codeInvalidText {
			return false, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return false, wrap(op, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, wrap(op, err)
	}
	if inserted == 0 {
		return false, nil
	}

	var won, lost int64
	if st.Won {
		won = 1
	} else {
		lost = 1
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET total_bets = total_bets + 1,
		     won_bets = won_bets + $2,
		     lost_bets = lost_bets + $3,
		     total_amount = total_amount + $4,
		     total_winnings = total_winnings + $5
		 WHERE uid = $1`,
		st.UserID, won, lost, st.Stake, st.Payout); err != nil {
		return false, wrap(op, err)
	}
	if err = bumpVersion(ctx, tx); err != nil {
		return false, wrap(op, err)
	}
	if err = tx.Commit(); err != nil {
		return false, wrap(op, err)
	}
	return true, nil
}

// DisableUser мягко отключает учётную запись.
func (s *Storage) DisableUser(ctx context.Context, id string) error {
	const op = "storage.postgresql.DisableUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op, err)
	}
	defer rollback(tx)

	var disabled bool
	err = tx.QueryRowContext(ctx,
		`SELECT disabled FROM users WHERE uid = $1 FOR UPDATE`, id).Scan(&disabled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || pgCode(err) == codeInvalidText {
			return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return wrap(op, err)
	}
	if disabled {
		return nil
	}
	if _, err = tx.ExecContext(ctx, `UPDATE users SET disabled = true WHERE uid = $1`, id); err != nil {
		return wrap(op, err)
	}
	if err = bumpVersion(ctx, tx); err != nil {
		return wrap(op, err)
	}
	if err = tx.Commit(); err != nil {
		return wrap(op, err)
	}
	return nil
}

// Version возвращает текущую версию учётных записей.
func (s *Storage) Version(ctx context.Context) (models.Version, error) {
	const op = "storage.postgresql.Version"
	if err := checkCtx(ctx, op); err != nil {
		return models.Version{}, err
	}

	var v models.Version
	if err := s.DB.QueryRowContext(ctx,
		`SELECT epoch, version FROM accounts_version WHERE id = 1`).Scan(&v.Epoch, &v.Seq); err != nil {
		return models.Version{}, wrap(op, err)
	}
	return v, nil
}

// Snapshot читает версию и всех пользователей в одной транзакции REPEATABLE READ.
func (s *Storage) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	const op = "storage.postgresql.Snapshot"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rollback(tx)

	var snap models.Snapshot
	if err = tx.QueryRowContext(ctx,
		`SELECT epoch, version FROM accounts_version WHERE id = 1`).Scan(&snap.Version.Epoch, &snap.Version.Seq); err != nil {
		return nil, wrap(op, err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		snap.Users = append(snap.Users, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return &snap, nil
}
