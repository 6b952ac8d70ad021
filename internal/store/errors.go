package store

import (
	"errors"
	"strings"

	"github.com/fundflow-dev/fundflow/internal/types"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// translate maps driver errors onto the service error taxonomy.
func translate(err error, entity string) error {
	if err == nil {
		return nil
	}

	var typed *types.Error
	if errors.As(err, &typed) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, mongo.ErrNoDocuments) {
		return types.NotFound("%s not found", entity)
	}

	if isDuplicateKey(err) {
		return types.Conflict("%s already exists", entity)
	}

	return types.Internal("database error", err)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || mongo.IsDuplicateKeyError(err) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}

	var mysqlErr *mysqldriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
