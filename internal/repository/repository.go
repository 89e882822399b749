// Пакет repository — слой доступа к данным PostgreSQL.
// Все запросы — чистый SQL и вызовы хранимых функций через pgx, без ORM.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ошибки слоя репозиториев.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("запись не найдена")
	// ErrRoutineMissing — хранимая функция или процедура отсутствует в БД (SQLSTATE 42883).
	ErrRoutineMissing = errors.New("хранимая функция не найдена")
)

// DBTX — интерфейс для выполнения SQL-запросов.
// Реализуется как *pgxpool.Pool, так и pgx.Tx, что позволяет
// использовать репозитории как внутри, так и вне транзакций.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxRunner позволяет выполнять серию запросов в одной транзакции.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner создаёт TxRunner для управления транзакциями.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunReadOnly выполняет fn в read-only транзакции REPEATABLE READ:
// все запросы fn видят один снимок данных.
// Соединение берётся из пула на время fn и возвращается на любом пути выхода.
func (r *TxRunner) RunReadOnly(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // откат после коммита — no-op

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// wrapRoutineError помечает ошибку отсутствующей хранимой функции как ErrRoutineMissing.
func wrapRoutineError(op string, err error) error {
	if isUndefinedFunction(err) {
		return fmt.Errorf("%s: %w: %v", op, ErrRoutineMissing, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUndefinedFunction проверяет, является ли ошибка отсутствием функции PostgreSQL.
func isUndefinedFunction(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42883" // undefined_function
	}
	return false
}

// derefString возвращает значение или def, если значение NULL или пустое.
func derefString(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
