package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/marcelojr/eleicao-escolar/internal/domain"
)

const (
	sqlStateLockNotAvailable = "55P03"
	sqlStateUniqueViolation  = "23505"
)

// traduzirErro converte erros do GORM/pgx nos sentinelas do domínio, preservando a causa original.
func traduzirErro(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %w", domain.ErrConflito, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateLockNotAvailable:
			return fmt.Errorf("%w: %w", domain.ErrLockTimeout, err)
		case sqlStateUniqueViolation:
			return fmt.Errorf("%w: %w", domain.ErrConflito, err)
		}
	}
	return err
}
