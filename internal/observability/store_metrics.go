package observability

import (
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// ObserveStore times one logical store operation and counts error classes.
func (p *Prom) ObserveStore(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	if err != nil {
		status = "error"
		p.StoreErrorsTotal.WithLabelValues(op, classifyStoreErr(err)).Inc()
	}
	p.StoreOpDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyStoreErr(err error) string {
	switch {
	case errors.Is(err, user.ErrNotFound):
		return "not_found"
	case errors.Is(err, user.ErrEmailTaken):
		return "unique_violation"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return "unique_violation"
		case pgerrcode.SerializationFailure:
			return "serialization_failure"
		case pgerrcode.QueryCanceled:
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	if mongodriver.IsDuplicateKeyError(err) {
		return "unique_violation"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
